package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/eyeonits/finapp-personal-finance-tracker/internal/config"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/core"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/log"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/services"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentRecurring)
	log.SetDefault(logger)

	logger.Info("Starting recurring-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	recurring := services.NewRecurringService(repo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runCycle := func() {
		today := core.DateOf(time.Now())

		created, err := recurring.GenerateRecords(ctx, today, cfg.RecurringMonthsAhead)
		if err != nil {
			logger.Error("Record generation failed", log.FieldError, err)
		} else if created > 0 {
			logger.Info("Generated payment records", "created", created)
		}

		flipped, err := recurring.MarkOverdue(ctx, today)
		if err != nil {
			logger.Error("Overdue sweep failed", log.FieldError, err)
		} else if flipped > 0 {
			logger.Info("Marked records overdue", "count", flipped)
		}
	}

	// Run once at startup, then on the configured interval.
	runCycle()

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runCycle()
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	logger.Info("Worker shutdown complete")
}
