package domain

import (
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/billing"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/chat"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/notification"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/rooms"
	"github.com/chadayu1004/smart-apartment-ai/internal/domain/user"
)

type (
	User     = user.User
	Tenant   = user.Tenant
	Identity = user.Identity

	Room           = rooms.Room
	BookingRequest = rooms.BookingRequest

	Contract         = billing.Contract
	Payment          = billing.Payment
	AdminPaymentView = billing.AdminPaymentView

	Notification = notification.Notification

	ChatThread  = chat.ChatThread
	ChatMessage = chat.ChatMessage
	MessagePage = chat.MessagePage
)

const (
	RoleUser   = user.RoleUser
	RoleTenant = user.RoleTenant
	RoleAdmin  = user.RoleAdmin
)

// Models lists every persisted type, in migration order.
func Models() []any {
	return []any{
		&User{},
		&Tenant{},
		&Room{},
		&BookingRequest{},
		&Contract{},
		&Payment{},
		&Notification{},
		&ChatThread{},
		&ChatMessage{},
	}
}
