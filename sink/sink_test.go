package sink

import (
	"context"
	"testing"

	"chat-relay/domain/event"

	"github.com/stretchr/testify/require"
)

func TestBuffered_Consume_Buffers_In_Order(t *testing.T) {
	req := require.New(t)
	s := NewBuffered(4)
	ctx := context.Background()

	first := event.UserStoppedTyping{UserID: "alice"}
	second := event.UserStoppedTyping{UserID: "bob"}

	req.NoError(s.Consume(ctx, first))
	req.NoError(s.Consume(ctx, second))

	req.Equal(first, <-s.Events)
	req.Equal(second, <-s.Events)
}

func TestBuffered_Consume_Drops_When_Full(t *testing.T) {
	req := require.New(t)
	s := NewBuffered(1)
	ctx := context.Background()

	kept := event.UserStoppedTyping{UserID: "alice"}
	dropped := event.UserStoppedTyping{UserID: "bob"}

	// Given a full buffer
	req.NoError(s.Consume(ctx, kept))

	// When another event arrives
	err := s.Consume(ctx, dropped)

	// Then it is dropped without blocking or failing the fan-out
	req.NoError(err)
	req.Equal(kept, <-s.Events)
	req.Empty(s.Events)
}
