package chat

import "time"

// ChatThread holds the per-tenant AI switch. AIEnabled mirrors the absence of a
// connected admin; the Hub keeps it in sync on every join and leave.
type ChatThread struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TenantID  uint      `gorm:"column:tenant_id;not null;uniqueIndex" json:"tenant_id"`
	AIEnabled bool      `gorm:"column:ai_enabled;not null" json:"ai_enabled"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ChatThread) TableName() string { return "chat_thread" }
