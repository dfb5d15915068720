package chat

import (
	"time"

	types "github.com/chadayu1004/smart-apartment-ai/internal/domain"
)

const (
	EventPresence = "presence"
	EventMessage  = "message"
	EventError    = "error"
)

type PresenceEvent struct {
	Type        string `json:"type"`
	AdminActive bool   `json:"admin_active"`
}

type MessageEvent struct {
	Type         string `json:"type"`
	ID           uint   `json:"id"`
	TenantID     uint   `json:"tenant_id"`
	SenderRole   string `json:"sender_role"`
	SenderUserID *uint  `json:"sender_user_id"`
	Content      string `json:"content"`
	CreatedAt    string `json:"created_at"`
}

// ErrorEvent is written once before a rejected connection is closed.
type ErrorEvent struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type inboundMessage struct {
	Content string `json:"content"`
}

func NewMessageEvent(m *types.ChatMessage) MessageEvent {
	return MessageEvent{
		Type:         EventMessage,
		ID:           m.ID,
		TenantID:     m.TenantID,
		SenderRole:   m.SenderRole,
		SenderUserID: m.SenderUserID,
		Content:      m.Content,
		CreatedAt:    m.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
