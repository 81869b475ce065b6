package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/example/lexbot/internal/bot"
	"github.com/example/lexbot/internal/config"
	"github.com/example/lexbot/internal/database"
	"github.com/example/lexbot/internal/logger"
	"github.com/example/lexbot/internal/scheduler"
	"github.com/example/lexbot/internal/study"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zapLogger := logger.New(cfg.LogLevel, cfg.LogPath, cfg.DataDir)
	defer zapLogger.Sync()

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.DataDir)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("Database ready", zap.String("driver", cfg.DatabaseDriver))

	users := database.NewUserRepository(db)
	service := study.NewService(
		database.NewTopicRepository(db),
		database.NewPlanRepository(db),
		database.NewStatisticsRepository(db),
		zapLogger.Named("study"),
		study.WithLocation(cfg.Location),
	)

	b, err := bot.New(cfg, service, users, zapLogger.Named("bot"))
	if err != nil {
		zapLogger.Fatal("Failed to create bot", zap.Error(err))
	}

	var sched *scheduler.Scheduler
	if cfg.SchedulerEnabled {
		sched = scheduler.New(users, service, b,
			scheduler.Window{StartHour: cfg.NotificationStartHour, EndHour: cfg.NotificationEndHour},
			cfg.Location, zapLogger.Named("scheduler"))
		if err := sched.Start(); err != nil {
			zapLogger.Fatal("Failed to start scheduler", zap.Error(err))
		}
		b.SetReminder(sched)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- b.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		zapLogger.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Error("Bot stopped unexpectedly", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if sched != nil {
		sched.Stop()
	}
	if err := b.Stop(shutdownCtx); err != nil {
		zapLogger.Error("Error during shutdown", zap.Error(err))
	}
	zapLogger.Info("Bot stopped successfully")
}
