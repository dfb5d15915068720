package bus

import (
	"context"

	"github.com/chadayu1004/smart-apartment-ai/internal/realtime"
)

// Bus fans SSE messages and chat events out across server instances.
type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	PublishChat(ctx context.Context, tenantID uint, payload []byte) error
	StartForwarder(ctx context.Context, h Handlers) error
	Close() error
}

// Handlers receive messages from the bus. Chat events published by this
// instance are filtered out; SSE messages are delivered everywhere.
type Handlers struct {
	OnSSE  func(m realtime.SSEMessage)
	OnChat func(tenantID uint, payload []byte)
}
