package notification

import (
	"time"

	"gorm.io/datatypes"
)

const (
	TypeDepositDue = "deposit_due"
	TypePayment    = "payment"
	TypeBooking    = "booking"
	TypeSystem     = "system"
)

type Notification struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"column:user_id;not null;index" json:"user_id"`
	Title     string         `gorm:"column:title;not null" json:"title"`
	Message   string         `gorm:"column:message;type:text;not null" json:"message"`
	Type      string         `gorm:"column:type;not null" json:"type"`
	IsRead    bool           `gorm:"column:is_read;not null;index" json:"is_read"`
	Data      datatypes.JSON `gorm:"column:data" json:"data,omitempty"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
}

func (Notification) TableName() string { return "notification" }
