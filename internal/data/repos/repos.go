package repos

import (
	"gorm.io/gorm"

	"github.com/chadayu1004/smart-apartment-ai/internal/data/repos/billing"
	"github.com/chadayu1004/smart-apartment-ai/internal/data/repos/chat"
	"github.com/chadayu1004/smart-apartment-ai/internal/data/repos/notifications"
	"github.com/chadayu1004/smart-apartment-ai/internal/data/repos/rooms"
	"github.com/chadayu1004/smart-apartment-ai/internal/data/repos/user"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
)

type UserRepo = user.UserRepo
type TenantRepo = user.TenantRepo

type RoomRepo = rooms.RoomRepo
type BookingRepo = rooms.BookingRepo

type ContractRepo = billing.ContractRepo
type PaymentRepo = billing.PaymentRepo

type NotificationRepo = notifications.NotificationRepo

type ChatThreadRepo = chat.ChatThreadRepo
type ChatMessageRepo = chat.ChatMessageRepo

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo     { return user.NewUserRepo(db, log) }
func NewTenantRepo(db *gorm.DB, log *logger.Logger) TenantRepo { return user.NewTenantRepo(db, log) }

func NewRoomRepo(db *gorm.DB, log *logger.Logger) RoomRepo       { return rooms.NewRoomRepo(db, log) }
func NewBookingRepo(db *gorm.DB, log *logger.Logger) BookingRepo { return rooms.NewBookingRepo(db, log) }

func NewContractRepo(db *gorm.DB, log *logger.Logger) ContractRepo {
	return billing.NewContractRepo(db, log)
}

func NewPaymentRepo(db *gorm.DB, log *logger.Logger) PaymentRepo {
	return billing.NewPaymentRepo(db, log)
}

func NewNotificationRepo(db *gorm.DB, log *logger.Logger) NotificationRepo {
	return notifications.NewNotificationRepo(db, log)
}

func NewChatThreadRepo(db *gorm.DB, log *logger.Logger) ChatThreadRepo {
	return chat.NewChatThreadRepo(db, log)
}

func NewChatMessageRepo(db *gorm.DB, log *logger.Logger) ChatMessageRepo {
	return chat.NewChatMessageRepo(db, log)
}
