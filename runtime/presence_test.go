package runtime

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"chat-relay/domain/event"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type RecordingSink struct {
	Events []event.DomainEvent
}

func (s *RecordingSink) Consume(ctx context.Context, e event.DomainEvent) error {
	s.Events = append(s.Events, e)
	return nil
}

func TestPresence_Broadcast_Reaches_Every_Connection(t *testing.T) {
	req := require.New(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := NewRegistry()
	presence := NewPresence(log, registry)

	aliceSink1 := &RecordingSink{}
	aliceSink2 := &RecordingSink{}
	bobSink := &RecordingSink{}

	// Given two users, one connected twice
	registry.Register("alice", uuid.New(), aliceSink1)
	registry.Register("alice", uuid.New(), aliceSink2)
	registry.Register("bob", uuid.New(), bobSink)

	// When the roster is broadcast
	presence.Broadcast(context.Background())

	// Then every connection receives the same full roster
	for _, sink := range []*RecordingSink{aliceSink1, aliceSink2, bobSink} {
		req.Len(sink.Events, 1)
		roster, ok := sink.Events[0].(event.OnlineUsers)
		req.True(ok)
		req.ElementsMatch([]string{"alice", "bob"}, roster.UserIDs)
	}
}

func TestPresence_Broadcast_After_Disconnect(t *testing.T) {
	req := require.New(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := NewRegistry()
	presence := NewPresence(log, registry)

	aliceSink := &RecordingSink{}
	bobConnID := uuid.New()

	// Given bob just disconnected
	registry.Register("alice", uuid.New(), aliceSink)
	registry.Register("bob", bobConnID, &RecordingSink{})
	registry.Unregister("bob", bobConnID)

	// When the roster is broadcast
	presence.Broadcast(context.Background())

	// Then the remaining connection sees bob gone
	req.Len(aliceSink.Events, 1)
	roster := aliceSink.Events[0].(event.OnlineUsers)
	req.Equal([]string{"alice"}, roster.UserIDs)
}

func TestPresence_Broadcast_Empty_Registry(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := NewRegistry()
	presence := NewPresence(log, registry)

	// No connections, nothing to deliver to, nothing to panic about
	presence.Broadcast(context.Background())
}
