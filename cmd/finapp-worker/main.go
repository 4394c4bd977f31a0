package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/eyeonits/finapp-personal-finance-tracker/internal/amqp"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/config"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/export"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/export/google"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/export/memory"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/log"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig()).WithComponent(log.ComponentWorker)
	log.SetDefault(logger)

	logger.Info("Starting finapp-worker")

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Choose the ledger mirror: Google Sheets when configured, otherwise an
	// in-memory store so the pending queue still drains in development.
	var mirror export.LedgerMirror
	if cfg.ExportSpreadsheetID != "" {
		sheets, err := google.New(ctx, cfg.ExportSpreadsheetID, cfg.ExportSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		mirror = sheets
		logger.Info("Google Sheets mirror initialized",
			"spreadsheet_id", cfg.ExportSpreadsheetID, "sheet", cfg.ExportSheetName)
	} else {
		mirror = memory.New()
		logger.Info("Using in-memory mirror - no EXPORT_SPREADSHEET_ID provided")
	}

	worker := export.NewMirrorWorker(repo, mirror, cfg.ExportBatchSize)

	// On startup, drain anything queued while the worker was down.
	if err := worker.ProcessPending(ctx); err != nil {
		logger.Error("Startup export sweep failed", log.FieldError, err)
		// Don't exit - the periodic sweep retries
	}

	// Consume broker notifications when a broker is configured.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		go func() {
			if err := amqpClient.ConsumeTransactionExports(ctx, worker.HandleExportMessage); err != nil {
				if err != context.Canceled {
					logger.Error("Message consumption failed", log.FieldError, err)
				}
				cancel()
			}
		}()
		logger.Info("Consuming export notifications", "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - relying on periodic sweep only")
	}

	// Periodic sweep catches anything the broker path missed.
	ticker := time.NewTicker(cfg.ExportInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := worker.ProcessPending(ctx); err != nil && err != context.Canceled {
					logger.Error("Periodic export sweep failed", log.FieldError, err)
				}
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
