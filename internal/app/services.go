package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/chadayu1004/smart-apartment-ai/internal/chat"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/localmedia"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/promptstyle"
	"github.com/chadayu1004/smart-apartment-ai/internal/realtime"
	"github.com/chadayu1004/smart-apartment-ai/internal/services"
)

type Services struct {
	Auth          services.AuthService
	Rooms         services.RoomService
	Bookings      services.BookingService
	Contracts     services.ContractService
	Payments      services.PaymentService
	Tenants       services.TenantService
	Notifications services.NotificationService
	ChatHistory   services.ChatHistoryService

	ChatHub      *chat.Hub
	ChatSessions *chat.SessionService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, sseHub *realtime.SSEHub) (Services, error) {
	log.Info("Wiring services...")

	media := localmedia.New(log, cfg.MediaDir)

	var emitter services.SSEEmitter
	if clients.Bus != nil {
		// Every instance, this one included, delivers from its bus forwarder.
		emitter = &services.RedisEmitter{Bus: clients.Bus, Log: log}
	} else {
		emitter = &services.HubEmitter{Hub: sseHub}
	}

	otp := services.NewOTPDispatcher(log, clients.SendGrid, clients.Twilio)
	authService := services.NewAuthService(db, log, repos.User, otp, cfg.JWTSecretKey, cfg.AccessTokenTTL)
	notificationService := services.NewNotificationService(log, repos.Notification, emitter)
	roomService := services.NewRoomService(log, repos.Room, media)
	tenantService := services.NewTenantService(log, repos.Tenant)

	var ocr services.TextRecognizer
	if clients.Vision != nil {
		ocr = clients.Vision
	}
	bookingService := services.NewBookingService(db, log, services.BookingDeps{
		Rooms:         repos.Room,
		Bookings:      repos.Booking,
		Tenants:       repos.Tenant,
		Users:         repos.User,
		Contracts:     repos.Contract,
		Notifications: notificationService,
		Media:         media,
		OCR:           ocr,
	})
	paymentService := services.NewPaymentService(db, log, services.PaymentDeps{
		Payments:          repos.Payment,
		Contracts:         repos.Contract,
		Users:             repos.User,
		NotificationsRepo: repos.Notification,
		Notifications:     notificationService,
		Media:             media,
		OCR:               ocr,
	})

	prompt, err := promptstyle.Load(cfg.AIPromptFile)
	if err != nil {
		return Services{}, fmt.Errorf("load AI prompt: %w", err)
	}
	responder := services.NewAIResponder(log, clients.AI, prompt)

	policy := chat.Policy{AllowUnaffiliatedTenants: cfg.ChatAllowUnaffiliatedTenants}
	hub := chat.NewHub(log, repos.ChatThread)
	if clients.Bus != nil {
		hub.SetRelay(clients.Bus)
	}
	sessions := chat.NewSessionService(log, chat.SessionDeps{
		Hub:      hub,
		Threads:  repos.ChatThread,
		Messages: repos.ChatMessage,
		Auth:     authService,
		AI:       responder,
		Policy:   policy,
	})

	return Services{
		Auth:          authService,
		Rooms:         roomService,
		Bookings:      bookingService,
		Contracts:     services.NewContractService(log, repos.Contract),
		Payments:      paymentService,
		Tenants:       tenantService,
		Notifications: notificationService,
		ChatHistory:   services.NewChatHistoryService(log, repos.ChatMessage, policy),
		ChatHub:       hub,
		ChatSessions:  sessions,
	}, nil
}
