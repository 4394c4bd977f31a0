package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// AMQP (transaction export queue)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Account roles for analytics. The engine never hardcodes account ids;
	// which accounts count as primary or income is deployment configuration.
	PrimaryAccounts  []string // checking-like accounts whose outflow is reported separately
	IncomeAccounts   []string // accounts whose positive amounts are true income
	FlipSignAccounts []string // feeds that deliver inverted signs (normalized on import)

	// Sign-anomaly keyword rules (YAML file, optional)
	SignRulesPath string

	// Google Sheets ledger mirror (worker)
	ExportSpreadsheetID string
	ExportSheetName     string

	// Workers
	ExportBatchSize      int
	ExportInterval       time.Duration
	RecurringInterval    time.Duration
	RecurringMonthsAhead int

	// Correlator defaults
	CorrelationToleranceDays int
}

func Load() *Config {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/finapp.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finapp"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "export_transactions"),

		PrimaryAccounts:  getEnvList("PRIMARY_ACCOUNTS"),
		IncomeAccounts:   getEnvList("INCOME_ACCOUNTS"),
		FlipSignAccounts: getEnvList("FLIP_SIGN_ACCOUNTS"),

		SignRulesPath: getEnv("SIGN_RULES_PATH", ""),

		ExportSpreadsheetID: getEnv("EXPORT_SPREADSHEET_ID", ""),
		ExportSheetName:     getEnv("EXPORT_SHEET_NAME", "Ledger"),

		ExportBatchSize:      getEnvInt("EXPORT_BATCH_SIZE", 25),
		ExportInterval:       getEnvDuration("EXPORT_INTERVAL", 5*time.Minute),
		RecurringInterval:    getEnvDuration("RECURRING_INTERVAL", time.Hour),
		RecurringMonthsAhead: getEnvInt("RECURRING_MONTHS_AHEAD", 3),

		CorrelationToleranceDays: getEnvInt("CORRELATION_TOLERANCE_DAYS", 3),
	}
	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errs = append(errs, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SignRulesPath != "" {
		if _, err := os.Stat(c.SignRulesPath); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("sign rules file does not exist: %s", c.SignRulesPath))
		}
	}

	if c.ExportBatchSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid export batch size %d: must be at least 1", c.ExportBatchSize))
	} else if c.ExportBatchSize > 1000 {
		errs = append(errs, fmt.Sprintf("invalid export batch size %d: must be at most 1000", c.ExportBatchSize))
	}

	if c.ExportInterval < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid export interval %v: must be at least 1 minute", c.ExportInterval))
	}
	if c.RecurringInterval < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid recurring interval %v: must be at least 1 minute", c.RecurringInterval))
	}
	if c.RecurringMonthsAhead < 1 || c.RecurringMonthsAhead > 24 {
		errs = append(errs, fmt.Sprintf("invalid recurring months ahead %d: must be 1-24", c.RecurringMonthsAhead))
	}

	if c.CorrelationToleranceDays < 0 {
		errs = append(errs, fmt.Sprintf("invalid correlation tolerance %d: cannot be negative", c.CorrelationToleranceDays))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// AccountSet turns a configured account list into a membership predicate.
func AccountSet(ids []string) func(string) bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = true
		}
	}
	return func(id string) bool { return set[id] }
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
