package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"spesebot/internal/core"
)

type Config struct {
	// Chat platforms
	DiscordToken  string
	TelegramToken string

	// Bot behaviour
	CommandPrefix string
	Categories    []string
	ReplyTimeout  time.Duration
	AcceptBare    bool

	// Backend selection
	DataBackend string

	// Google Sheets
	GoogleCredentialsPath string
	GoogleCredentialsJSON string
	GoogleSpreadsheetID   string
	GoogleSpreadsheetName string

	// Database
	SQLiteDBPath string
	PostgresDSN  string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Health endpoint
	HealthPort string

	// Logging
	LogLevel  string
	LogFormat string
}

var validBackends = []string{"sheets", "sqlite", "postgres", "memory"}

func Load() *Config {
	cfg := &Config{
		DiscordToken:  getEnv("DISCORD_TOKEN", ""),
		TelegramToken: getEnv("TELEGRAM_TOKEN", ""),

		CommandPrefix: getEnv("BOT_COMMAND_PREFIX", "!"),
		Categories:    getEnvList("BOT_CATEGORIES", core.DefaultCategories),
		ReplyTimeout:  getEnvDuration("BOT_REPLY_TIMEOUT", 2*time.Minute),
		AcceptBare:    getEnvBool("BOT_ACCEPT_BARE", true),

		DataBackend: getEnv("DATA_BACKEND", "sheets"),

		GoogleCredentialsPath: getEnv("GOOGLE_CREDENTIALS_PATH", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS_JSON", ""),
		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSpreadsheetName: getEnv("GOOGLE_SPREADSHEET_NAME", "expenses"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/spesebot.db"),
		PostgresDSN:  getEnv("POSTGRES_DSN", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "spesebot"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "expense_events"),

		HealthPort: getEnv("HEALTH_PORT", "8081"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	// Validate data backend
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "sheets":
		hasPath := c.GoogleCredentialsPath != ""
		hasJSON := c.GoogleCredentialsJSON != ""
		if !hasPath && !hasJSON {
			errs = append(errs, "either GOOGLE_CREDENTIALS_PATH or GOOGLE_CREDENTIALS_JSON must be provided for sheets backend")
		}
		if hasPath {
			if _, err := os.Stat(c.GoogleCredentialsPath); os.IsNotExist(err) {
				errs = append(errs, fmt.Sprintf("Google credentials file does not exist: %s", c.GoogleCredentialsPath))
			}
		}
		if c.GoogleSpreadsheetID == "" && strings.TrimSpace(c.GoogleSpreadsheetName) == "" {
			errs = append(errs, "either GOOGLE_SPREADSHEET_ID or GOOGLE_SPREADSHEET_NAME must be provided for sheets backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case "postgres":
		if c.PostgresDSN == "" {
			errs = append(errs, "POSTGRES_DSN is required when using postgres backend")
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		errs = append(errs, c.amqpErrors()...)
	}

	// Validate bot behaviour
	if strings.TrimSpace(c.CommandPrefix) == "" {
		errs = append(errs, "command prefix cannot be empty")
	}
	if _, err := core.NewCatalog(c.Categories); err != nil {
		errs = append(errs, fmt.Sprintf("invalid categories: %v", err))
	}
	if c.ReplyTimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid reply timeout %v: must be at least 1 second", c.ReplyTimeout))
	} else if c.ReplyTimeout > time.Hour {
		errs = append(errs, fmt.Sprintf("invalid reply timeout %v: must be at most 1 hour", c.ReplyTimeout))
	}

	// Validate health port
	if c.HealthPort != "" {
		if port, err := strconv.Atoi(c.HealthPort); err != nil {
			errs = append(errs, fmt.Sprintf("invalid health port '%s': must be a number", c.HealthPort))
		} else if port < 1 || port > 65535 {
			errs = append(errs, fmt.Sprintf("invalid health port %d: must be between 1 and 65535", port))
		}
	}

	// Return combined errors
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

// ValidateServe validates the configuration for running the chat transports.
func (c *Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DiscordToken == "" && c.TelegramToken == "" {
		return errors.New("configuration validation failed:\n- at least one of DISCORD_TOKEN or TELEGRAM_TOKEN must be provided")
	}
	return nil
}

// ValidateAMQP validates the broker settings alone, for consumers that do
// not open a record store.
func (c *Config) ValidateAMQP() error {
	if c.AMQPURL == "" {
		return errors.New("configuration validation failed:\n- AMQP_URL is required")
	}
	if errs := c.amqpErrors(); len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func (c *Config) amqpErrors() []string {
	var errs []string
	if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
		errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
	} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
		errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
	}
	if c.AMQPExchange == "" {
		errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
	}
	if c.AMQPQueue == "" {
		errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
	}
	return errs
}

// Catalog returns the validated category catalog.
func (c *Config) Catalog() (core.Catalog, error) {
	return core.NewCatalog(c.Categories)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
