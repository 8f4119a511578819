// Package config loads process configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Scraper     ScraperConfig
	Retention   RetentionConfig
	Logging     LoggingConfig
	Tracing     TracingConfig
	RateLimit   RateLimitConfig
	Environment string
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL            string
	MaxConnections int
}

type ScraperConfig struct {
	// SourcesDir holds per-source YAML overrides. The built-in source set is
	// used when the directory is absent or empty.
	SourcesDir string

	// FetchTimeout bounds one plain HTTP fetch.
	FetchTimeout time.Duration

	// NavigationTimeout bounds one rendered-browser navigation.
	NavigationTimeout time.Duration

	// Interval between scheduled pipeline runs.
	Interval time.Duration
}

type RetentionConfig struct {
	// MaxAgeDays is the pruning horizon: events dated further in the past are
	// deleted by the daily prune job.
	MaxAgeDays int
}

type LoggingConfig struct {
	Level  string
	Format string
}

type TracingConfig struct {
	Enabled bool

	// Exporter selects where spans go: "stdout", "otlp", or "none".
	Exporter     string
	ServiceName  string
	OTLPEndpoint string

	// SampleRate is the fraction of traces kept, 0.0 to 1.0.
	SampleRate float64
}

type RateLimitConfig struct {
	// PublicPerMinute caps requests per client on the public API endpoints.
	// Zero disables the limiter.
	PublicPerMinute int
}

// Load reads configuration from the environment. DATABASE_URL is required;
// everything else has a default.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", 10),
		},
		Scraper: ScraperConfig{
			SourcesDir:        getEnv("SCRAPER_SOURCES_DIR", "configs/sources"),
			FetchTimeout:      getEnvDuration("SCRAPER_FETCH_TIMEOUT", 10*time.Second),
			NavigationTimeout: getEnvDuration("SCRAPER_NAVIGATION_TIMEOUT", 30*time.Second),
			Interval:          getEnvDuration("SCRAPER_INTERVAL", time.Hour),
		},
		Retention: RetentionConfig{
			MaxAgeDays: getEnvInt("RETENTION_MAX_AGE_DAYS", 30),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Tracing: TracingConfig{
			Enabled:      getEnvBool("TRACING_ENABLED", false),
			Exporter:     getEnv("TRACING_EXPORTER", "stdout"),
			ServiceName:  getEnv("TRACING_SERVICE_NAME", "brooklyn-events-aggregator"),
			OTLPEndpoint: getEnv("TRACING_OTLP_ENDPOINT", "localhost:4317"),
			SampleRate:   getEnvFloat("TRACING_SAMPLE_RATE", 1.0),
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute: getEnvInt("RATE_LIMIT_PUBLIC", 60),
		},
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
