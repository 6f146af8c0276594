package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/ecotrack-backend/internal/config"
	"github.com/ignatzorin/ecotrack-backend/internal/http/handlers"
	"github.com/ignatzorin/ecotrack-backend/internal/http/middleware"
	"github.com/ignatzorin/ecotrack-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	reportHandler *handlers.ReportHandler,
	rewardHandler *handlers.RewardHandler,
	notificationHandler *handlers.NotificationHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
	authGroup.Use(authRateLimit)
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	api.GET("/ws", wsHandler.Handle)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.POST("/auth/collector", authHandler.GrantCollector)

		protected.POST("/reports", reportHandler.Create)
		protected.GET("/reports", reportHandler.ListOwn)
		protected.GET("/reports/recent", reportHandler.ListRecent)
		protected.GET("/reports/:id/status", reportHandler.Status)
		protected.POST("/reports/images", reportHandler.UploadImage)

		protected.GET("/rewards", rewardHandler.Catalog)
		protected.GET("/rewards/balance", rewardHandler.Balance)
		protected.GET("/rewards/transactions", rewardHandler.Transactions)
		protected.GET("/rewards/leaderboard", rewardHandler.Leaderboard)
		protected.POST("/rewards/redeem", rewardHandler.Redeem)

		protected.GET("/notifications/unread", notificationHandler.ListUnread)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)

		// Маршруты коллектора
		collector := protected.Group("/")
		collector.Use(middleware.RequireCollector())
		{
			collector.GET("/reports/pending", reportHandler.ListPending)
			collector.GET("/reports/tasks", reportHandler.ListTasks)
			collector.POST("/reports/:id/claim", reportHandler.Claim)
			collector.POST("/reports/:id/verify", reportHandler.Verify)
			collector.GET("/collections", reportHandler.ListCollected)
		}
	}

	return r
}
