package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/bidme-backend/internal/config"
	"github.com/ignatzorin/bidme-backend/internal/db"
	"github.com/ignatzorin/bidme-backend/internal/email"
	httpHandlers "github.com/ignatzorin/bidme-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/bidme-backend/internal/http/router"
	"github.com/ignatzorin/bidme-backend/internal/logger"
	"github.com/ignatzorin/bidme-backend/internal/payment"
	"github.com/ignatzorin/bidme-backend/internal/repository"
	"github.com/ignatzorin/bidme-backend/internal/service"
	"github.com/ignatzorin/bidme-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера.
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	requestRepo := repository.NewRequestRepository(dbConn)
	offerRepo := repository.NewOfferRepository(dbConn)
	disputeRepo := repository.NewDisputeRepository(dbConn)
	reviewRepo := repository.NewReviewRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)
	messageRepo := repository.NewMessageRepository(dbConn)

	// Вебсокеты.
	hub := ws.NewHub(ctx)
	notificationService := service.NewNotificationService(notificationRepo)
	hub.SetNotificationSaver(ws.NewNotificationServiceAdapter(notificationService))
	go hub.Run()

	// Почтовый канал включается отдельно: без него уведомления
	// ограничиваются записью в БД и push через вебсокеты.
	var emailSender service.EmailSender
	if cfg.EmailEnabled {
		sender, err := email.NewSender(ctx, cfg.EmailFrom)
		if err != nil {
			log.Fatalf("main: не удалось настроить отправку почты: %v", err)
		}
		emailSender = sender
	}
	notifier := service.NewNotifier(hub, emailSender, userRepo)

	// Платёжный шлюз.
	gateway := payment.NewStripeGateway(cfg.StripeAPIKey, cfg.StripeWebhookSecret, cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)

	// Сервисы.
	requestService := service.NewRequestService(requestRepo, notifier)
	offerService := service.NewOfferService(offerRepo, requestRepo, userRepo, notifier)
	paymentService := service.NewPaymentService(offerRepo, requestRepo, gateway, notifier)
	disputeService := service.NewDisputeService(disputeRepo, offerRepo, requestRepo, notifier)
	reviewService := service.NewReviewService(reviewRepo, offerRepo, requestRepo)
	messageService := service.NewMessageService(messageRepo, userRepo, notifier)

	// HTTP хэндлеры.
	requestHandler := httpHandlers.NewRequestHandler(requestService, offerService)
	offerHandler := httpHandlers.NewOfferHandler(offerService)
	paymentHandler := httpHandlers.NewPaymentHandler(paymentService)
	disputeHandler := httpHandlers.NewDisputeHandler(disputeService)
	reviewHandler := httpHandlers.NewReviewHandler(reviewService)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	messageHandler := httpHandlers.NewMessageHandler(messageService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg,
		requestHandler, offerHandler, paymentHandler, disputeHandler, reviewHandler,
		notificationHandler, messageHandler, wsHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
