package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/eyeonits/finapp-personal-finance-tracker/internal/amqp"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/config"
	apphttp "github.com/eyeonits/finapp-personal-finance-tracker/internal/http"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/ledger"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/log"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/services"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

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

	// AMQP is optional: without a broker the export worker falls back to its
	// periodic pending sweep.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	rules := ledger.DefaultSignRules()
	if cfg.SignRulesPath != "" {
		rules, err = ledger.LoadSignRules(cfg.SignRulesPath)
		if err != nil {
			logger.Error("Failed to load sign rules", log.FieldError, err, "path", cfg.SignRulesPath)
			os.Exit(1)
		}
	}

	roles := ledger.AccountRoles{
		PrimaryOutflow: config.AccountSet(cfg.PrimaryAccounts),
		Income:         config.AccountSet(cfg.IncomeAccounts),
	}

	srv := apphttp.NewServer(":"+cfg.Port,
		services.NewTransactionService(repo, amqpClient),
		services.NewImportService(repo, config.AccountSet(cfg.FlipSignAccounts)),
		services.NewAnalyticsService(repo, roles, rules, cfg.CorrelationToleranceDays),
		services.NewRecurringService(repo),
	)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting finapp server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
