package bus

import (
	"encoding/json"
	"fmt"

	"github.com/chadayu1004/smart-apartment-ai/internal/realtime"
)

const (
	kindSSE  = "sse"
	kindChat = "chat"
)

type envelope struct {
	Origin   string               `json:"origin"`
	Kind     string               `json:"kind"`
	SSE      *realtime.SSEMessage `json:"sse,omitempty"`
	TenantID uint                 `json:"tenant_id,omitempty"`
	Payload  json.RawMessage      `json:"payload,omitempty"`
}

// dispatch routes one raw bus payload to h. It returns an error for payloads
// that cannot be decoded.
func dispatch(origin string, raw []byte, h Handlers) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return err
	}
	switch env.Kind {
	case kindSSE:
		if env.SSE == nil {
			return fmt.Errorf("sse envelope without message")
		}
		if h.OnSSE != nil {
			h.OnSSE(*env.SSE)
		}
	case kindChat:
		if env.Origin == origin {
			return nil
		}
		if env.TenantID == 0 || len(env.Payload) == 0 {
			return fmt.Errorf("chat envelope without tenant or payload")
		}
		if h.OnChat != nil {
			h.OnChat(env.TenantID, env.Payload)
		}
	default:
		return fmt.Errorf("unknown envelope kind %q", env.Kind)
	}
	return nil
}
