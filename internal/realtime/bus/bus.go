package bus

import (
	"context"

	"github.com/yungbote/dojoquest-backend/internal/realtime"
)

// Bus fans SSE messages out across API instances. It satisfies
// realtime.Publisher.
type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Close() error
}
