package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/bidme-backend/internal/config"
	"github.com/ignatzorin/bidme-backend/internal/http/handlers"
	"github.com/ignatzorin/bidme-backend/internal/http/middleware"
	"github.com/ignatzorin/bidme-backend/internal/service"
)

// SetupRouter собирает все маршруты приложения.
func SetupRouter(
	cfg *config.Config,
	requestHandler *handlers.RequestHandler,
	offerHandler *handlers.OfferHandler,
	paymentHandler *handlers.PaymentHandler,
	disputeHandler *handlers.DisputeHandler,
	reviewHandler *handlers.ReviewHandler,
	notificationHandler *handlers.NotificationHandler,
	messageHandler *handlers.MessageHandler,
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
	r.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	// Публичные маршруты.
	api.GET("/ws", wsHandler.Handle)
	api.GET("/categories", requestHandler.ListCategories)
	api.GET("/requests", requestHandler.List)
	api.GET("/requests/:id", middleware.UUIDValidator("id"), requestHandler.Get)
	api.GET("/requests/:id/offers", middleware.UUIDValidator("id"), requestHandler.ListOffers)
	api.GET("/users/:id/reviews", middleware.UUIDValidator("id"), reviewHandler.ListByUser)
	api.GET("/users/:id/rating", middleware.UUIDValidator("id"), reviewHandler.GetRating)

	// Вебхук шлюза. Авторизации нет: подлинность подтверждает подпись по телу.
	api.POST("/payments/webhook", paymentHandler.Webhook)

	// Защищённые маршруты.
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.POST("/requests", requestHandler.Create)
		protected.GET("/requests/my", requestHandler.ListMine)
		protected.PATCH("/requests/:id/status", middleware.UUIDValidator("id"), requestHandler.UpdateStatus)
		protected.GET("/requests/:id/history", middleware.UUIDValidator("id"), requestHandler.GetHistory)

		protected.POST("/offers", offerHandler.Create)
		protected.GET("/offers/my", offerHandler.ListMine)
		protected.GET("/offers/received", offerHandler.ListReceived)
		protected.GET("/offers/:id", middleware.UUIDValidator("id"), offerHandler.Get)
		protected.PATCH("/offers/:id", middleware.UUIDValidator("id"), offerHandler.Edit)
		protected.PATCH("/offers/:id/status", middleware.UUIDValidator("id"), offerHandler.UpdateStatus)
		protected.GET("/offers/:id/history", middleware.UUIDValidator("id"), offerHandler.GetHistory)

		// Checkout под отдельным жёстким лимитом.
		checkoutRateLimit := middleware.RateLimitMiddleware(cfg.CheckoutRateLimit, cfg.CheckoutRatePeriod)
		protected.POST("/offers/:id/checkout", middleware.UUIDValidator("id"), checkoutRateLimit, paymentHandler.CreateCheckout)

		protected.POST("/offers/:id/dispute", middleware.UUIDValidator("id"), disputeHandler.Open)
		protected.GET("/disputes", disputeHandler.ListMine)
		protected.POST("/disputes/:id/resolve", middleware.UUIDValidator("id"), disputeHandler.Resolve)

		protected.POST("/offers/:id/reviews", middleware.UUIDValidator("id"), reviewHandler.Create)
		protected.GET("/offers/:id/reviews", middleware.UUIDValidator("id"), reviewHandler.ListByOffer)

		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread/count", notificationHandler.CountUnread)
		protected.PUT("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllRead)

		protected.POST("/messages", messageHandler.Send)
		protected.GET("/messages/:userId", middleware.UUIDValidator("userId"), messageHandler.GetConversation)
	}

	return r
}
