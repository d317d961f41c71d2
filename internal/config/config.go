package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	defaultPort              = "8080"
	defaultLogLevel          = "info"
	defaultLockTimeout       = 5 * time.Second
	defaultBlockDuration     = 2 * time.Hour
	defaultMaxDuration       = 12 * time.Hour
	defaultPastGrace         = 5 * time.Minute
	defaultCatalogCacheTTL   = 10 * time.Minute
	defaultAllowedOriginList = "http://localhost:3000"
)

type Config struct {
	DatabaseURL string
	Port        string
	LogLevel    string

	RedisAddr       string
	CatalogCacheTTL time.Duration

	LockTimeout time.Duration

	Scheduling SchedulingConfig

	AllowedOrigins []string
}

// SchedulingConfig bounds appointment windows.
type SchedulingConfig struct {
	DefaultBlockDuration time.Duration
	MaxDuration          time.Duration
	PastGrace            time.Duration
}

// Load reads configuration from the environment. Call godotenv.Load first to pick up .env.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Port:        getEnv("PORT", defaultPort),
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		RedisAddr:   getEnv("REDIS_ADDR", ""),
	}

	var errs []error
	cfg.CatalogCacheTTL = getDuration("CATALOG_CACHE_TTL", defaultCatalogCacheTTL, &errs)
	cfg.LockTimeout = getDuration("LOCK_TIMEOUT", defaultLockTimeout, &errs)
	cfg.Scheduling = SchedulingConfig{
		DefaultBlockDuration: getDuration("DEFAULT_BLOCK_DURATION", defaultBlockDuration, &errs),
		MaxDuration:          getDuration("MAX_APPOINTMENT_DURATION", defaultMaxDuration, &errs),
		PastGrace:            getDuration("APPOINTMENT_PAST_GRACE", defaultPastGrace, &errs),
	}
	cfg.AllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", defaultAllowedOriginList))

	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %w", errors.Join(errs...))
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Scheduling.DefaultBlockDuration <= 0 {
		return fmt.Errorf("DEFAULT_BLOCK_DURATION must be positive")
	}
	if c.Scheduling.MaxDuration < c.Scheduling.DefaultBlockDuration {
		return fmt.Errorf("MAX_APPOINTMENT_DURATION must be at least DEFAULT_BLOCK_DURATION")
	}
	if c.Scheduling.PastGrace < 0 {
		return fmt.Errorf("APPOINTMENT_PAST_GRACE must not be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
