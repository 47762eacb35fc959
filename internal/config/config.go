package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Workbook source
	WorkbookSource string
	WorkbookPath   string
	DataDirectory  string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// AMQP (optional)
	AMQPURL         string
	AMQPExchange    string
	AMQPQueue       string
	AMQPReloadQueue string

	// Aggregation cache
	CacheSize int
	CacheTTL  time.Duration

	// Periodic re-ingest, 0 disables it
	RefreshInterval time.Duration

	// Upload limit for POST /api/v1/ingest
	MaxUploadBytes int64

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		WorkbookSource: strings.ToLower(getEnv("WORKBOOK_SOURCE", "xlsx")),
		WorkbookPath:   getEnv("WORKBOOK_PATH", "./data/mastercoin.xlsx"),
		DataDirectory:  getEnv("DATA_DIRECTORY", "./data"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		AMQPURL:         getEnv("AMQP_URL", ""),
		AMQPExchange:    getEnv("AMQP_EXCHANGE", "mastercoin"),
		AMQPQueue:       getEnv("AMQP_QUEUE", "ingest_completed"),
		AMQPReloadQueue: getEnv("AMQP_RELOAD_QUEUE", "reload_requests"),

		CacheSize: getEnvInt("CACHE_SIZE", 64),
		CacheTTL:  getEnvDuration("CACHE_TTL", 10*time.Minute),

		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 0),
		MaxUploadBytes:  int64(getEnvInt("MAX_UPLOAD_BYTES", 20<<20)),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate workbook source
	validSources := []string{"xlsx", "sheets", "memory"}
	isValidSource := false
	for _, source := range validSources {
		if c.WorkbookSource == source {
			isValidSource = true
			break
		}
	}
	if !isValidSource {
		errors = append(errors, fmt.Sprintf("invalid workbook source '%s': must be one of %v", c.WorkbookSource, validSources))
	}

	switch c.WorkbookSource {
	case "xlsx":
		if c.WorkbookPath == "" {
			errors = append(errors, "WORKBOOK_PATH cannot be empty when using the xlsx source")
		}
	case "memory":
		if c.DataDirectory == "" {
			errors = append(errors, "DATA_DIRECTORY cannot be empty when using the memory source")
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using the sheets source")
		}
		hasFile := c.GoogleServiceAccountFile != ""
		hasJSON := c.GoogleServiceAccountJSON != ""
		if !hasFile && !hasJSON {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for the sheets source")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	// Validate AMQP URL if provided
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
		if c.AMQPReloadQueue == "" {
			errors = append(errors, "AMQP reload queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate cache configuration
	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	} else if c.CacheSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at most 10000", c.CacheSize))
	}
	if c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}

	if c.RefreshInterval != 0 && c.RefreshInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must be 0 or at least 1 minute", c.RefreshInterval))
	}

	if c.MaxUploadBytes < 1 {
		errors = append(errors, fmt.Sprintf("invalid max upload size %d: must be positive", c.MaxUploadBytes))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// AMQPEnabled reports whether a broker is configured.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
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
