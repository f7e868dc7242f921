package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/weseeyou/backend/internal/config"
	"github.com/weseeyou/backend/internal/database"
	"github.com/weseeyou/backend/internal/events"
	"github.com/weseeyou/backend/internal/handlers"
	"github.com/weseeyou/backend/internal/logging"
	"github.com/weseeyou/backend/internal/metrics"
	"github.com/weseeyou/backend/internal/middleware"
	"github.com/weseeyou/backend/internal/models"
	"github.com/weseeyou/backend/internal/notify"
	"github.com/weseeyou/backend/internal/routes"
	"github.com/weseeyou/backend/internal/services"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	logging.Setup(cfg.AppEnv)

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}
	if cfg.ReporterPepper == "" {
		slog.Error("REPORTER_PEPPER environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.NewStdoutHandler(logging.Level(cfg.AppEnv)),
		pgLogHandler,
	)))

	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cfg.LogRetention, cleanupDone)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Activity feed stream (optional)
	var (
		publisher notify.Publisher = notify.Nop{}
		stream    *notify.RedisStream
	)
	if cfg.RedisURL != "" {
		s, err := notify.NewRedisStream(cfg.RedisURL, cfg.FeedStream)
		if err != nil {
			slog.Error("feed stream setup failed", "error", err)
			os.Exit(1)
		}
		stream = s
		publisher = s
		slog.Info("activity feed stream enabled", "stream", cfg.FeedStream)
	}

	// Services
	m := metrics.Default()
	detector := events.NewDetector(models.PublicAlertThreshold)
	digester := services.NewReporterDigester(cfg.ReporterPepper)
	reportService := services.NewReportService(database.DB, detector, digester, publisher, m)
	moderationService := services.NewModerationService(database.DB, detector, publisher, m)
	accountService := services.NewAccountService(database.DB)
	trendingService := services.NewTrendingService(database.DB)
	feedService := services.NewFeedService(database.DB)
	notificationService := services.NewNotificationService(database.DB, digester)

	// Handlers
	healthHandler := handlers.NewHealthHandler(database.DB, nil)
	if stream != nil {
		healthHandler = handlers.NewHealthHandler(database.DB, stream)
	}
	accountHandler := handlers.NewAccountHandler(accountService)
	reportHandler := handlers.NewReportHandler(reportService)
	discoveryHandler := handlers.NewDiscoveryHandler(trendingService, feedService)
	exportHandler := handlers.NewExportHandler(accountService)
	adminHandler := handlers.NewAdminHandler(accountService, reportService, moderationService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	// Routes
	routes.Setup(app, cfg, healthHandler, accountHandler, reportHandler, discoveryHandler, exportHandler, adminHandler, notificationHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if stream != nil {
		if err := stream.Close(); err != nil {
			slog.Error("feed stream close error", "error", err)
		}
	}

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}
