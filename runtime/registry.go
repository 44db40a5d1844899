// Package runtime owns the in-memory connection state of the relay.
// It carries no business rules: services decide who gets an event,
// the registry resolves identities into live sinks.
package runtime

import (
	"sync"

	"chat-relay/contract"

	"github.com/google/uuid"
)

// Registry maps a user identity to the set of its live connections.
// State is rebuilt from scratch on process restart: every user appears
// offline until their client reconnects.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]map[uuid.UUID]contract.EventSink
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]map[uuid.UUID]contract.EventSink)}
}

// Register adds a connection for a user, creating the user's entry on
// first connection.
func (r *Registry) Register(userID string, connID uuid.UUID, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[userID]; !ok {
		r.conns[userID] = make(map[uuid.UUID]contract.EventSink)
	}
	r.conns[userID][connID] = sink
}

// Unregister removes a connection. When the last connection of a user
// goes away, the whole entry is removed: the map never exposes a user
// with an empty connection set.
func (r *Registry) Unregister(userID string, connID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.conns[userID]
	if !ok {
		return
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(r.conns, userID)
	}
}

// SinksOf returns the live sinks of one user, empty if offline.
func (r *Registry) SinksOf(userID string) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns, ok := r.conns[userID]
	if !ok {
		return nil
	}
	sinks := make([]contract.EventSink, 0, len(conns))
	for _, sink := range conns {
		sinks = append(sinks, sink)
	}
	return sinks
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.conns[userID]
	return ok
}

// OnlineUsers snapshots the reachable roster.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.conns))
	for userID := range r.conns {
		users = append(users, userID)
	}
	return users
}

// AllSinks snapshots every live connection across all users. Used by
// the presence broadcaster, which is intentionally global.
func (r *Registry) AllSinks() []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sinks []contract.EventSink
	for _, conns := range r.conns {
		for _, sink := range conns {
			sinks = append(sinks, sink)
		}
	}
	return sinks
}
