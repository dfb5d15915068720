package chat

import "time"

const (
	SenderTenant = "tenant"
	SenderAdmin  = "admin"
	SenderAI     = "ai"
)

type ChatMessage struct {
	ID           uint      `gorm:"primaryKey;index:idx_chat_message_page,priority:3" json:"id"`
	TenantID     uint      `gorm:"column:tenant_id;not null;index:idx_chat_message_page,priority:1" json:"tenant_id"`
	SenderRole   string    `gorm:"column:sender_role;not null" json:"sender_role"`
	SenderUserID *uint     `gorm:"column:sender_user_id" json:"sender_user_id"`
	Content      string    `gorm:"column:content;type:text;not null" json:"content"`
	CreatedAt    time.Time `gorm:"not null;index:idx_chat_message_page,priority:2" json:"created_at"`
}

func (ChatMessage) TableName() string { return "chat_message" }

// MessagePage is one slice of a tenant's history, newest first.
type MessagePage struct {
	Items               []*ChatMessage
	HasMore             bool
	NextBeforeCreatedAt *time.Time
	NextBeforeID        *uint
}
