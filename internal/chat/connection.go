package chat

import (
	"sync"

	"github.com/google/uuid"

	"github.com/chadayu1004/smart-apartment-ai/internal/domain/user"
)

// Transport is one bidirectional client channel. ReadMessage is only called
// from the owning session goroutine; WriteJSON calls are serialized by Connection.
type Transport interface {
	ReadMessage() ([]byte, error)
	WriteJSON(v any) error
	Close() error
}

// Connection is a registered participant in a tenant thread.
type Connection struct {
	ID       string
	TenantID uint
	Identity user.Identity

	t   Transport
	wmu sync.Mutex
}

func NewConnection(t Transport, id user.Identity, tenantID uint) *Connection {
	return &Connection{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		Identity: id,
		t:        t,
	}
}

func (c *Connection) IsAdmin() bool { return c.Identity.IsAdmin() }

func (c *Connection) Send(v any) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.t.WriteJSON(v)
}
