package app

import (
	"gorm.io/gorm"

	"github.com/chadayu1004/smart-apartment-ai/internal/data/repos"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
)

type Repos struct {
	User         repos.UserRepo
	Tenant       repos.TenantRepo
	Room         repos.RoomRepo
	Booking      repos.BookingRepo
	Contract     repos.ContractRepo
	Payment      repos.PaymentRepo
	Notification repos.NotificationRepo
	ChatThread   repos.ChatThreadRepo
	ChatMessage  repos.ChatMessageRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:         repos.NewUserRepo(db, log),
		Tenant:       repos.NewTenantRepo(db, log),
		Room:         repos.NewRoomRepo(db, log),
		Booking:      repos.NewBookingRepo(db, log),
		Contract:     repos.NewContractRepo(db, log),
		Payment:      repos.NewPaymentRepo(db, log),
		Notification: repos.NewNotificationRepo(db, log),
		ChatThread:   repos.NewChatThreadRepo(db, log),
		ChatMessage:  repos.NewChatMessageRepo(db, log),
	}
}
