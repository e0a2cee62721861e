// Package config loads process configuration from the environment and the
// taxonomy defaults from a YAML settings file.
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

// Backends accepted by DATA_BACKEND.
var validBackends = []string{"memory", "sqlite", "bolt", "sheets"}

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend string
	DataDir     string

	// Database files
	SQLiteDBPath string
	BoltDBPath   string

	// AMQP; an empty URL disables messaging
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleUtilitiesSheetName string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	SettingsFile string

	// Logging
	LogLevel  string
	LogFormat string

	// Per-client request limiting
	RateLimitRPS   float64
	RateLimitBurst int

	// Worker
	SyncInterval    time.Duration
	RatesWindowDays int
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend: strings.ToLower(getEnv("DATA_BACKEND", "memory")),
		DataDir:     getEnv("DATA_DIR", "./data"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/financialchecker.db"),
		BoltDBPath:   getEnv("BOLT_DB_PATH", "./data/financialchecker.bolt"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "financialchecker"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "transactions_created"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Transactions"),
		GoogleUtilitiesSheetName: getEnv("GOOGLE_UTILITIES_SHEET_NAME", "Utilities"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		SettingsFile: getEnv("SETTINGS_FILE", "./settings.yaml"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 20),

		SyncInterval:    getEnvDuration("SYNC_INTERVAL", 5*time.Minute),
		RatesWindowDays: getEnvInt("RATES_WINDOW_DAYS", 30),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "sqlite":
		errors = append(errors, checkDBPath("SQLite", c.SQLiteDBPath)...)
	case "bolt":
		errors = append(errors, checkDBPath("bolt", c.BoltDBPath)...)
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets backend")
		}
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasFile && c.GoogleServiceAccountJSON == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheets backend")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if c.RateLimitRPS <= 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %v: must be positive", c.RateLimitRPS))
	}
	if c.RateLimitBurst < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit burst %d: must be at least 1", c.RateLimitBurst))
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}
	if c.RatesWindowDays < 1 {
		errors = append(errors, fmt.Sprintf("invalid rates window %d: must be at least 1 day", c.RatesWindowDays))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// AMQPEnabled reports whether a broker is configured.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

func checkDBPath(name, path string) []string {
	if path == "" {
		return []string{fmt.Sprintf("%s database path cannot be empty when using %s backend", name, strings.ToLower(name))}
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return []string{fmt.Sprintf("cannot create %s database directory '%s': %v", name, dir, err)}
		}
	}
	return nil
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
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
