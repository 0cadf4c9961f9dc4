package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tithe/internal/app"
	"tithe/internal/core"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int
	// Comma-separated CIDRs whose X-Forwarded-For is honoured, on top of private networks.
	TrustedProxies string

	// Backend selection
	DataBackend string
	// Optional directory holding members.json and payments.json for the memory backend.
	MemorySeedDir string

	// Database
	SQLiteDBPath string

	// AMQP; an empty URL disables change messages.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Worker
	ExportUnit   string
	SyncInterval time.Duration
	// Port for the worker's /metrics endpoint; empty disables it.
	WorkerMetricsPort string

	// Reports
	ReportCacheTTL  time.Duration
	ReportCacheSize int

	DefaultTheme string
	LogLevel     string
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		TrustedProxies:     getEnv("TRUSTED_PROXIES", ""),

		DataBackend:   getEnv("DATA_BACKEND", "sqlite"),
		MemorySeedDir: getEnv("MEMORY_SEED_DIR", ""),
		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/tithe.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "tithe"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "tithe_export"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Tithes"),

		ExportUnit:   getEnv("EXPORT_UNIT", "quarter"),
		SyncInterval: getEnvDuration("SYNC_INTERVAL", 30*time.Second),

		WorkerMetricsPort: getEnv("WORKER_METRICS_PORT", ""),

		ReportCacheTTL:  getEnvDuration("REPORT_CACHE_TTL", 5*time.Minute),
		ReportCacheSize: getEnvInt("REPORT_CACHE_SIZE", 128),

		DefaultTheme: getEnv("DEFAULT_THEME", "light"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Unit returns the parsed EXPORT_UNIT. Call Validate first.
func (c *Config) Unit() core.Unit {
	u, err := core.ParseUnit(c.ExportUnit)
	if err != nil {
		return core.UnitQuarter
	}
	return u
}

// Theme returns the parsed DEFAULT_THEME, falling back to light.
func (c *Config) Theme() app.Theme {
	t, err := app.ParseTheme(c.DefaultTheme)
	if err != nil {
		return app.ThemeLight
	}
	return t
}

// AMQPEnabled reports whether change messages should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// ProxyCIDRs splits TRUSTED_PROXIES.
func (c *Config) ProxyCIDRs() []string {
	var out []string
	for _, cidr := range strings.Split(c.TrustedProxies, ",") {
		if cidr = strings.TrimSpace(cidr); cidr != "" {
			out = append(out, cidr)
		}
	}
	return out
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

	for _, cidr := range c.ProxyCIDRs() {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR", cidr))
		}
	}

	if c.WorkerMetricsPort != "" {
		if port, err := strconv.Atoi(c.WorkerMetricsPort); err != nil || port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("invalid worker metrics port '%s': must be between 1 and 65535", c.WorkerMetricsPort))
		}
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	// Validate data backend
	validBackends := []string{"memory", "sqlite"}
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

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == "memory" && c.MemorySeedDir != "" {
		if info, err := os.Stat(c.MemorySeedDir); err != nil || !info.IsDir() {
			errors = append(errors, fmt.Sprintf("memory seed directory does not exist: %s", c.MemorySeedDir))
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
	}

	if c.GoogleSpreadsheetID != "" && strings.TrimSpace(c.GoogleSheetName) == "" {
		errors = append(errors, "Google Sheet name is required when GOOGLE_SPREADSHEET_ID is set")
	}

	if _, err := core.ParseUnit(c.ExportUnit); err != nil {
		errors = append(errors, fmt.Sprintf("invalid export unit '%s': must be quarter, half or year", c.ExportUnit))
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if c.ReportCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid report cache size %d: must be at least 1", c.ReportCacheSize))
	}
	if c.ReportCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid report cache TTL %v: must be at least 1 second", c.ReportCacheTTL))
	}

	if _, err := app.ParseTheme(c.DefaultTheme); err != nil {
		errors = append(errors, fmt.Sprintf("invalid default theme '%s': must be light or dark", c.DefaultTheme))
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
