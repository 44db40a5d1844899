package sink

import (
	"context"

	"chat-relay/domain/event"
)

// Buffered is the per-connection inbox between the fan-out path and the
// websocket write pump. Consume never blocks delivery to other
// connections: when the buffer is full the event is dropped, matching
// the relay's best-effort, at-most-once contract.
type Buffered struct {
	Events chan event.DomainEvent
}

func NewBuffered(bufferSize int) *Buffered {
	return &Buffered{Events: make(chan event.DomainEvent, bufferSize)}
}

// Consume is called by fan-out. The write pump owning the connection
// drains Events and serializes onto the wire.
func (s *Buffered) Consume(ctx context.Context, e event.DomainEvent) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		// Backpressure: connection is too slow, drop instead of stalling.
		return nil
	}
}
