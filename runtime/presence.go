package runtime

import (
	"context"
	"log/slog"

	"chat-relay/contract"
	"chat-relay/domain/event"
)

// Presence pushes the full reachable roster to every live connection
// after each registry mutation. Reachability is a process-wide fact,
// so the broadcast is global rather than scoped to conversations.
type Presence struct {
	log      *slog.Logger
	registry contract.IRegistry
}

func NewPresence(log *slog.Logger, registry contract.IRegistry) *Presence {
	return &Presence{log: log, registry: registry}
}

// Broadcast snapshots the roster and delivers it to all sinks.
// Best-effort: a sink that fails simply misses this roster and catches
// up on the next mutation.
func (p *Presence) Broadcast(ctx context.Context) {
	roster := event.OnlineUsers{UserIDs: p.registry.OnlineUsers()}
	for _, sink := range p.registry.AllSinks() {
		if err := sink.Consume(ctx, roster); err != nil {
			p.log.Debug("presence roster dropped", "error", err)
		}
	}
}
