package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/ecotrack-backend/internal/config"
	"github.com/ignatzorin/ecotrack-backend/internal/db"
	httpHandlers "github.com/ignatzorin/ecotrack-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/ecotrack-backend/internal/http/router"
	"github.com/ignatzorin/ecotrack-backend/internal/logger"
	"github.com/ignatzorin/ecotrack-backend/internal/repository"
	"github.com/ignatzorin/ecotrack-backend/internal/service"
	"github.com/ignatzorin/ecotrack-backend/internal/storage"
	"github.com/ignatzorin/ecotrack-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
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

	// Инициализируем вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	photoStorage, err := storage.NewPhotoStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	reportRepo := repository.NewReportRepository(dbConn)
	rewardRepo := repository.NewRewardRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager, cfg.CollectorKeyHash)
	reportService := service.NewReportService(reportRepo)
	rewardService := service.NewRewardService(rewardRepo)
	collectionService := service.NewCollectionService(reportRepo, rewardRepo)
	notificationService := service.NewNotificationService(notificationRepo)

	// Вебсокеты: уведомления о начислениях доставляются подключённым
	// пользователям сразу после завершения сбора.
	hub := ws.NewHub()
	go hub.Run()
	collectionService.SetNotifier(hub)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	reportHandler := httpHandlers.NewReportHandler(reportService, collectionService, photoStorage)
	rewardHandler := httpHandlers.NewRewardHandler(rewardService)
	notificationHandler := httpHandlers.NewNotificationHandler(notificationService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, authHandler, reportHandler, rewardHandler, notificationHandler, wsHandler, healthHandler, tokenManager)

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
