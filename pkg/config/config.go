package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	LogLevel       string
	MigrationsPath string

	// Hosted Postgres convenience:
	// - DATABASE_URL: runtime connection (often a pooler)
	// - DIRECT_URL: direct connection for migrations
	DatabaseURL string
	DirectURL   string

	DB DBConfig

	Backend BackendConfig

	Session SessionConfig

	Stripe StripeConfig

	Redis RedisConfig

	// ActionLockTTL bounds how long a single approve/decline/cancel/pay attempt holds its
	// per-record in-flight slot if the holder never releases it.
	ActionLockTTL time.Duration

	// ActionRatePerMinute caps approve/decline/cancel/pay calls per user; 0 disables it.
	ActionRatePerMinute int
	ActionRateBurst     int

	// DefaultTaxJurisdiction is used when an event location cannot be parsed. Example: CA-ON
	DefaultTaxJurisdiction string

	// AllowedOrigins is a comma-separated allowlist of dashboard origins. Example:
	//   https://app.example.com,http://localhost:5173
	AllowedOrigins []string

	// ConfirmationPath is the dashboard route the client lands on after a payment.
	ConfirmationPath string
}

type DBConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

type SessionConfig struct {
	Secret   string
	Audience string
}

type StripeConfig struct {
	SecretKey      string
	PublishableKey string
	WebhookSecret  string

	// Connect onboarding status is polled every ConnectPollInterval and gives up after
	// ConnectPollCeiling.
	ConnectPollInterval time.Duration
	ConnectPollCeiling  time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func Load() Config {
	// Convenience for local dev: load variables from .env if present.
	// In production, rely on real environment variables.
	_ = godotenv.Load()

	// Cloud Run sets PORT. Prefer it when HTTP_ADDR isn't explicitly set.
	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":8081"
		}
	}

	return Config{
		AppEnv:         env("APP_ENV", "dev"),
		HTTPAddr:       httpAddr,
		LogLevel:       env("LOG_LEVEL", "info"),
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DirectURL:      os.Getenv("DIRECT_URL"),
		DB: DBConfig{
			Host:     env("DB_HOST", "localhost"),
			Port:     env("DB_PORT", "5432"),
			Name:     env("DB_NAME", "bookingdesk"),
			User:     env("DB_USER", "bookingdesk"),
			Password: env("DB_PASSWORD", "bookingdesk"),
			SSLMode:  env("DB_SSLMODE", "disable"),
		},
		Backend: BackendConfig{
			BaseURL: strings.TrimRight(env("BACKEND_BASE_URL", "http://localhost:5000/api"), "/"),
			Timeout: envDuration("BACKEND_TIMEOUT", 20*time.Second),
		},
		Session: SessionConfig{
			Secret:   os.Getenv("SESSION_SECRET"),
			Audience: os.Getenv("SESSION_AUDIENCE"),
		},
		Stripe: StripeConfig{
			SecretKey:           os.Getenv("STRIPE_SECRET_KEY"),
			PublishableKey:      os.Getenv("STRIPE_PUBLISHABLE_KEY"),
			WebhookSecret:       os.Getenv("STRIPE_WEBHOOK_SECRET"),
			ConnectPollInterval: envDuration("CONNECT_POLL_INTERVAL", 5*time.Second),
			ConnectPollCeiling:  envDuration("CONNECT_POLL_CEILING", 5*time.Minute),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
		},
		ActionLockTTL:          envDuration("ACTION_LOCK_TTL", 30*time.Second),
		ActionRatePerMinute:    envInt("ACTION_RATE_PER_MINUTE", 30),
		ActionRateBurst:        envInt("ACTION_RATE_BURST", 5),
		DefaultTaxJurisdiction: env("DEFAULT_TAX_JURISDICTION", "CA-ON"),
		AllowedOrigins:         envList("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:4173"),
		ConfirmationPath:       env("CONFIRMATION_PATH", "/payment-success"),
	}
}

func (c Config) IsProd() bool {
	return c.AppEnv == "prod"
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// envDuration accepts Go durations ("15s") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func envList(key, fallbackCSV string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallbackCSV
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
