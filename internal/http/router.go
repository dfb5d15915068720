package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/chadayu1004/smart-apartment-ai/internal/domain/user"
	httpH "github.com/chadayu1004/smart-apartment-ai/internal/http/handlers"
	httpMW "github.com/chadayu1004/smart-apartment-ai/internal/http/middleware"
	"github.com/chadayu1004/smart-apartment-ai/internal/observability"
	"github.com/chadayu1004/smart-apartment-ai/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	MediaDir    string
	Metrics     *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler       *httpH.HealthHandler
	AuthHandler         *httpH.AuthHandler
	UserHandler         *httpH.UserHandler
	RoomHandler         *httpH.RoomHandler
	BookingHandler      *httpH.BookingHandler
	ContractHandler     *httpH.ContractHandler
	PaymentHandler      *httpH.PaymentHandler
	TenantHandler       *httpH.TenantHandler
	NotificationHandler *httpH.NotificationHandler
	ChatHandler         *httpH.ChatHandler
	RealtimeHandler     *httpH.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	if cfg.Metrics != nil {
		r.Use(httpMW.Metrics(cfg.Metrics))
	}
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", func(c *gin.Context) { cfg.Metrics.WriteHTTP(c.Writer, c.Request) })
	}
	if cfg.MediaDir != "" {
		r.Static("/media", cfg.MediaDir)
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/auth/register", cfg.AuthHandler.Register)
			api.POST("/auth/login", cfg.AuthHandler.Login)
			api.POST("/auth/forgot-password", cfg.AuthHandler.ForgotPassword)
			api.POST("/auth/reset-password", cfg.AuthHandler.ResetPassword)
		}
		if cfg.RoomHandler != nil {
			api.GET("/rooms", cfg.RoomHandler.List)
		}
		// The socket authenticates itself after the upgrade.
		if cfg.ChatHandler != nil {
			api.GET("/chat/ws/:tenant_id", cfg.ChatHandler.Connect)
		}
	}

	if cfg.AuthMiddleware == nil {
		return r
	}

	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
			protected.PATCH("/me", cfg.UserHandler.UpdateMe)
		}
		if cfg.RealtimeHandler != nil {
			protected.GET("/sse/stream", cfg.RealtimeHandler.SSEStream)
		}
		if cfg.BookingHandler != nil {
			protected.POST("/bookings", cfg.BookingHandler.Submit)
		}
		if cfg.ContractHandler != nil {
			protected.GET("/contracts/by-booking/:booking_id", cfg.ContractHandler.ByBooking)
			protected.GET("/contracts/me/latest", cfg.ContractHandler.MyLatest)
		}
		if cfg.PaymentHandler != nil {
			protected.POST("/payments", cfg.PaymentHandler.Create)
			protected.GET("/payments/me", cfg.PaymentHandler.ListMine)
			protected.POST("/contracts/:id/upload-slip", cfg.PaymentHandler.UploadSlip)
		}
		if cfg.NotificationHandler != nil {
			protected.GET("/notifications/me", cfg.NotificationHandler.ListMine)
			protected.GET("/notifications/me/unread-count", cfg.NotificationHandler.UnreadCount)
			protected.POST("/notifications/:id/read", cfg.NotificationHandler.MarkRead)
			protected.POST("/notifications/read-all", cfg.NotificationHandler.MarkAllRead)
		}
		if cfg.ChatHandler != nil {
			protected.GET("/chat/messages", cfg.ChatHandler.History)
		}
	}

	admin := protected.Group("/")
	admin.Use(cfg.AuthMiddleware.RequireRole(user.RoleAdmin))
	{
		if cfg.RoomHandler != nil {
			admin.POST("/rooms", cfg.RoomHandler.Create)
			admin.DELETE("/rooms/:id", cfg.RoomHandler.Delete)
		}
		if cfg.BookingHandler != nil {
			admin.GET("/bookings", cfg.BookingHandler.List)
			admin.POST("/bookings/:id/approve", cfg.BookingHandler.Approve)
			admin.POST("/bookings/:id/reject", cfg.BookingHandler.Reject)
		}
		if cfg.PaymentHandler != nil {
			admin.GET("/payments", cfg.PaymentHandler.ListAll)
			admin.POST("/payments/:id/approve", cfg.PaymentHandler.Approve)
			admin.POST("/payments/:id/reject", cfg.PaymentHandler.Reject)
		}
		if cfg.TenantHandler != nil {
			admin.GET("/tenants", cfg.TenantHandler.List)
			admin.GET("/tenants/:id", cfg.TenantHandler.Get)
			admin.POST("/tenants", cfg.TenantHandler.Create)
		}
	}

	return r
}
