package bus

import (
	"context"

	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
	"github.com/yungbote/adaptedu-backend/internal/realtime"
)

type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Close() error
}

// Emitter publishes through the bus so every replica's hub sees the
// message, and falls back to the local hub when publishing fails.
type Emitter struct {
	bus   Bus
	local *realtime.SSEHub
	log   *logger.Logger
}

func NewEmitter(b Bus, local *realtime.SSEHub, log *logger.Logger) *Emitter {
	return &Emitter{bus: b, local: local, log: log.With("component", "SSEEmitter")}
}

func (e *Emitter) Emit(msg realtime.SSEMessage) {
	if e.bus == nil {
		e.local.Broadcast(msg)
		return
	}
	if err := e.bus.Publish(context.Background(), msg); err != nil {
		e.log.Warn("bus publish failed; broadcasting locally", "error", err, "event", msg.Event)
		e.local.Broadcast(msg)
	}
}
