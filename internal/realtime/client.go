package realtime

import (
	"github.com/google/uuid"

	"github.com/yungbote/adaptedu-backend/internal/platform/logger"
)

type SSEClient struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Channels map[string]bool
	Outbound chan SSEMessage
	done     chan struct{}
	Logger   *logger.Logger
}

// Done is closed when the hub drops the client.
func (c *SSEClient) Done() <-chan struct{} { return c.done }
