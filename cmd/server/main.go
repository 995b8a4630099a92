package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loanbook/internal/adapters/http/middleware"
	"loanbook/internal/adapters/http/routes"
	"loanbook/internal/adapters/persistence/models"
	"loanbook/internal/adapters/persistence/repositories"
	"loanbook/internal/config"
	"loanbook/internal/core/services"
	"loanbook/internal/pkg/idempotency"
	"loanbook/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// @title Loanbook API
// @version 1.0
// @description Installment loans: origination, amortization schedules and repayments.

// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// idempotencyLockTTL bounds how long an unfinished request holds its key
const idempotencyLockTTL = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	if !cfg.DotEnvFound {
		log.Info("no .env file found, using environment variables")
	}

	db, err := config.ConnectDatabase(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer func() {
		if err := config.CloseDatabase(db); err != nil {
			log.WithError(err).Warn("failed to close database")
		}
	}()

	if err := models.AutoMigrate(db); err != nil {
		log.WithError(err).Fatal("failed to auto migrate")
	}
	log.Info("database migration completed")

	if cfg.IsDev() {
		config.NewSeeder(db, log).Run(context.Background(), cfg.AdminPassword)
	}

	// Repayment deduplication is optional
	var idem *idempotency.Store
	if cfg.Redis.URL != "" {
		idem, err = idempotency.Connect(context.Background(), cfg.Redis.URL, cfg.Redis.IdempotencyTTL, idempotencyLockTTL)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to redis")
		}
		defer idem.Close()
		log.Info("idempotency store connected")
	} else {
		log.Warn("REDIS_URL not set, repayment idempotency disabled")
	}

	// Installment reminders (08:30 UTC daily by default)
	var notifier services.Notifier = services.NewLogNotifier(log)
	if cfg.SMTP.Enabled() {
		notifier = services.NewEmailNotifier(cfg.SMTP, log)
	}
	reminders := services.NewReminderService(
		repositories.NewLoanRepository(db),
		repositories.NewUserRepository(db),
		notifier,
		log,
	)
	if err := reminders.Start(cfg.Reminder.Cron); err != nil {
		log.WithError(err).Fatal("failed to start reminder service")
	}
	defer reminders.Stop()

	app := fiber.New(fiber.Config{
		AppName:      "Loanbook API v1.0",
		ErrorHandler: middleware.NewErrorHandler(log),
	})

	middleware.Setup(app, cfg, log)

	routes.Setup(app, routes.Dependencies{
		DB:          db,
		Config:      cfg,
		Log:         log,
		Idempotency: idem,
	})

	go gracefulShutdown(app, log)

	log.WithFields(logrus.Fields{"port": cfg.Port, "mode": cfg.AppMode}).Info("server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.WithError(err).Error("server stopped with error")
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App, log *logrus.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
	log.Info("server stopped gracefully")
}
