// Package ws exposes the relay over a single persistent websocket per
// client.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/runtime"
	"chat-relay/services"
	"chat-relay/sink"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

type Config struct {
	ConnectionBufferSize int
	WriteTimeout         time.Duration
	PingInterval         time.Duration
	PongTimeout          time.Duration
	ReadLimit            int64
}

type Server struct {
	log      *slog.Logger
	cfg      Config
	gate     auth.Gate
	registry contract.IRegistry
	presence *runtime.Presence
	messages services.IMessageService
	calls    services.ICallService
	upgrader websocket.Upgrader
}

func NewServer(log *slog.Logger, cfg Config, gate auth.Gate, registry contract.IRegistry,
	presence *runtime.Presence, messages services.IMessageService,
	calls services.ICallService) *Server {
	return &Server{
		log:      log,
		cfg:      cfg,
		gate:     gate,
		registry: registry,
		presence: presence,
		messages: messages,
		calls:    calls,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser clients authenticate with the credential, not the
			// Origin header.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/ws", s.handleSocket)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	return router
}

// handleSocket runs one connection lifecycle: admit, upgrade, register,
// pump, and on any exit path unregister so the presence roster stays
// truthful. Rejection happens before registration, leaving no partial
// state.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	user, err := s.gate.Admit(r)
	if err != nil {
		s.log.Info("handshake rejected", "remote", r.RemoteAddr, "error", err)
		http.Error(w, "authentication failed", http.StatusUnauthorized)
		return
	}

	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	conn := &connection{
		id:   uuid.New(),
		user: user,
		ws:   wsConn,
		sink: sink.NewBuffered(s.cfg.ConnectionBufferSize),
		log:  s.log,
		srv:  s,
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s.registry.Register(user.ID, conn.id, conn.sink)
	s.log.Info("user connected", "user_id", user.ID, "name", user.Name, "conn_id", conn.id)
	s.presence.Broadcast(ctx)

	defer func() {
		s.registry.Unregister(user.ID, conn.id)
		_ = wsConn.Close()
		// The departed connection no longer receives the roster; everyone
		// else learns about the change.
		s.presence.Broadcast(context.Background())
		s.log.Info("user disconnected", "user_id", user.ID, "conn_id", conn.id)
	}()

	go conn.writePump(ctx)
	conn.readLoop(ctx)
}
