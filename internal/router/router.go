package router

import (
	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/config"
	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/internal/domain"
	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/internal/handler"
	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/internal/middleware"
	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/internal/repository"
	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/internal/service"
	"github.com/RedNight114/TenerifeParadiseTourApp-sub005/pkg/redsys"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Setup wires repositories, services and handlers. The rate-limit store is
// constructed here and injected; nothing holds it as a global.
func Setup(cfg *config.Config, db *gorm.DB, limiter *middleware.RateLimitStore) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID())

	// Repositories
	userRepo := repository.NewUserRepository(db)
	excursionRepo := repository.NewExcursionRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Services
	gateway := redsys.NewClient(cfg.Redsys.SecretKeyB64, cfg.Redsys.FreshnessWindow)
	authSvc := service.NewAuthService(cfg, userRepo)
	paymentSvc := service.NewPaymentService(cfg, gateway, reservationRepo, auditRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	excursionHandler := handler.NewExcursionHandler(excursionRepo)
	reservationHandler := handler.NewReservationHandler(reservationRepo, excursionRepo, auditRepo)
	paymentHandler := handler.NewPaymentHandler(cfg, paymentSvc)
	webhookHandler := handler.NewPaymentWebhookHandler(paymentSvc)
	adminHandler := handler.NewAdminHandler(reservationRepo, auditRepo, paymentSvc)

	authMw := middleware.AuthRequired(&cfg.JWT)
	adminMw := middleware.RequireRole(domain.RoleAdmin)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth", middleware.RateLimit(limiter, middleware.LimitAuth))
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		public := api.Group("", middleware.RateLimit(limiter, middleware.LimitPublic))
		{
			public.GET("/excursions", excursionHandler.List)
			public.GET("/excursions/:id", excursionHandler.Get)
			public.GET("/payments/redsys/return/ok", paymentHandler.ReturnOK)
			public.GET("/payments/redsys/return/ko", paymentHandler.ReturnKO)
		}

		reservations := api.Group("/reservations", middleware.RateLimit(limiter, middleware.LimitAPI), authMw)
		{
			reservations.POST("", reservationHandler.Create)
			reservations.GET("", reservationHandler.ListMine)
			reservations.GET("/:id", reservationHandler.Get)
			reservations.POST("/:id/cancel", reservationHandler.Cancel)
		}

		api.POST("/payments/redsys/initiate",
			middleware.RateLimit(limiter, middleware.LimitPayment), authMw, paymentHandler.Initiate)
		api.POST("/webhooks/redsys",
			middleware.RateLimit(limiter, middleware.LimitWebhook), webhookHandler.Handle)

		admin := api.Group("/admin", middleware.RateLimit(limiter, middleware.LimitAdmin), authMw, adminMw)
		{
			admin.GET("/reservations", adminHandler.ListReservations)
			admin.GET("/audit-logs", adminHandler.ListAuditLogs)
			admin.POST("/reservations/:id/capture", adminHandler.Capture)
		}
	}

	return r
}
