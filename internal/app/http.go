package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/chadayu1004/smart-apartment-ai/internal/http"
	httpH "github.com/chadayu1004/smart-apartment-ai/internal/http/handlers"
	httpMW "github.com/chadayu1004/smart-apartment-ai/internal/http/middleware"
	"github.com/chadayu1004/smart-apartment-ai/internal/observability"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
	"github.com/chadayu1004/smart-apartment-ai/internal/realtime"
)

const serviceName = "smart-apartment-api"

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health       *httpH.HealthHandler
	Auth         *httpH.AuthHandler
	User         *httpH.UserHandler
	Room         *httpH.RoomHandler
	Booking      *httpH.BookingHandler
	Contract     *httpH.ContractHandler
	Payment      *httpH.PaymentHandler
	Tenant       *httpH.TenantHandler
	Notification *httpH.NotificationHandler
	Chat         *httpH.ChatHandler
	Realtime     *httpH.RealtimeHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, cfg Config, services Services, sseHub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:       httpH.NewHealthHandler(db),
		Auth:         httpH.NewAuthHandler(services.Auth),
		User:         httpH.NewUserHandler(services.Auth),
		Room:         httpH.NewRoomHandler(services.Rooms),
		Booking:      httpH.NewBookingHandler(services.Bookings),
		Contract:     httpH.NewContractHandler(services.Contracts),
		Payment:      httpH.NewPaymentHandler(services.Payments),
		Tenant:       httpH.NewTenantHandler(services.Tenants),
		Notification: httpH.NewNotificationHandler(services.Notifications),
		Chat:         httpH.NewChatHandler(log, services.ChatSessions, services.ChatHistory, cfg.CORSAllowedOrigins),
		Realtime:     httpH.NewRealtimeHandler(log, sseHub),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:                 log,
		ServiceName:         serviceName,
		CORSOrigins:         cfg.CORSAllowedOrigins,
		MediaDir:            cfg.MediaDir,
		Metrics:             metrics,
		AuthMiddleware:      middleware.Auth,
		HealthHandler:       handlers.Health,
		AuthHandler:         handlers.Auth,
		UserHandler:         handlers.User,
		RoomHandler:         handlers.Room,
		BookingHandler:      handlers.Booking,
		ContractHandler:     handlers.Contract,
		PaymentHandler:      handlers.Payment,
		TenantHandler:       handlers.Tenant,
		NotificationHandler: handlers.Notification,
		ChatHandler:         handlers.Chat,
		RealtimeHandler:     handlers.Realtime,
	})
}
