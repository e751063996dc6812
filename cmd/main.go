package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/hackmate/hackathon-system/clock"
	"github.com/hackmate/hackathon-system/config"
	"github.com/hackmate/hackathon-system/db"
	"github.com/hackmate/hackathon-system/handlers"
	"github.com/hackmate/hackathon-system/live"
	"github.com/hackmate/hackathon-system/repositories"
	api "github.com/hackmate/hackathon-system/routes"
	"github.com/hackmate/hackathon-system/services"
)

// schedulerInterval — периодичность перевода просроченных оплат в rejected.
const schedulerInterval = 1 * time.Minute

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Инициализация WebSocket Hub
	wsHub := live.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	txManager := repositories.NewTxManager(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	hackathonRepo := repositories.NewPostgresHackathonRepository(dbConn)
	applicationRepo := repositories.NewPostgresApplicationRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	systemClock := clock.NewSystem()
	authService := services.NewAuthService(userRepo)
	hackathonService := services.NewHackathonService(hackathonRepo, userRepo, systemClock)
	applicationService := services.NewApplicationService(
		txManager,
		applicationRepo,
		hackathonRepo,
		systemClock,
		logger,
		services.WithPaymentGrace(cfg.PaymentGrace),
		services.WithEventPublisher(wsHub),
	)
	logger.Info("Services initialized")

	// Планировщик: просроченные payment_pending заявки переводятся в rejected.
	go func() {
		ticker := time.NewTicker(schedulerInterval)
		defer ticker.Stop()
		logger.Info("payment deadline scheduler started", slog.Duration("interval", schedulerInterval))

		runSweep := func() {
			expired, err := applicationService.ExpireOverduePayments(context.Background())
			if err != nil {
				logger.Error("scheduler: payment deadline sweep failed", slog.Any("error", err))
				return
			}
			if expired > 0 {
				logger.Info("scheduler: expired overdue applications", slog.Int("count", expired))
			}
		}

		runSweep()
		for range ticker.C {
			runSweep()
		}
	}()

	// Инициализация обработчиков HTTP
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	hackathonHandler := handlers.NewHackathonHandler(hackathonService)
	applicationHandler := handlers.NewApplicationHandler(applicationService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, hackathonService)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		authHandler,
		hackathonHandler,
		applicationHandler,
		webSocketHandler,
		cfg.JWTSecretKey,
		cfg.CORSAllowedOrigins,
	)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
