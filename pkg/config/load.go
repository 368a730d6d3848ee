package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func Load(envFilePath ...string) (*App, error) {
	logger := slog.Default()
	logger.Info("Loading environment variables")

	if len(envFilePath) == 0 {
		logger.Debug("No environment file specified, trying default .env")
		if err := godotenv.Load(); err != nil {
			logger.Warn("No .env file found in current directory")
		}
		return loadFromEnv()
	}

	// Try each provided path until we find a valid one
	for _, path := range envFilePath {
		foundPath, err := FindEnvFile(path)
		if err != nil {
			logger.Debug("Environment file not found", "path", path, "error", err)
			continue
		}
		logger.Info("Loading environment from file", "path", foundPath)
		if err := godotenv.Load(foundPath); err != nil {
			logger.Error("Failed to load environment file", "path", foundPath, "error", err)
			continue
		}
		return loadFromEnv()
	}

	logger.Info("No valid environment files found, using process environment")
	return loadFromEnv()
}

func loadFromEnv() (*App, error) {
	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Default().Info("App config loaded",
		"env", cfg.Env,
		"db_driver", cfg.DB.Driver,
		"db", maskValue(cfg.DB.Url),
		"lock_backend", cfg.Lock.Backend,
		"event_bus", cfg.EventBus.Driver,
		"notify", cfg.Notify.Driver,
		"payment_provider", cfg.PaymentProviders.Driver,
		"stripe_api_key", maskValue(cfg.PaymentProviders.Stripe.ApiKey),
		"currency", cfg.Escrow.Currency,
		"provider_timeout", cfg.Escrow.ProviderTimeout,
		"rate_limit_max_requests", cfg.RateLimit.MaxRequests,
		"rate_limit_window", cfg.RateLimit.Window,
	)
	return &cfg, nil
}

var ErrInvalidConfig = errors.New("invalid configuration")

// LockStorageMargin is the time a locked section may spend in storage on top
// of one provider call. A redis lock must outlive both or it can expire while
// its holder is still writing.
const LockStorageMargin = 5 * time.Second

// Validate checks the enumerated settings envconfig cannot express.
func (c *App) Validate() error {
	checks := []struct {
		name    string
		value   string
		allowed []string
	}{
		{"DATABASE_DRIVER", c.DB.Driver, []string{"postgres", "mysql", "memory"}},
		{"LOCK_BACKEND", c.Lock.Backend, []string{"memory", "redis"}},
		{"EVENT_BUS_DRIVER", c.EventBus.Driver, []string{"memory", "kafka"}},
		{"NOTIFY_DRIVER", c.Notify.Driver, []string{"memory", "kafka"}},
		{"PAYMENT_PROVIDER_DRIVER", c.PaymentProviders.Driver, []string{"stripe", "mock"}},
		{"LOG_FORMAT", c.Log.Format, []string{"json", "text"}},
	}
	for _, chk := range checks {
		if !slices.Contains(chk.allowed, chk.value) {
			return fmt.Errorf("%w: %s=%q, want one of %v", ErrInvalidConfig, chk.name, chk.value, chk.allowed)
		}
	}
	if c.Escrow.SecretLength < 6 {
		return fmt.Errorf("%w: ESCROW_SECRET_LENGTH must be at least 6", ErrInvalidConfig)
	}
	if c.Escrow.ProviderTimeout <= 0 {
		return fmt.Errorf("%w: ESCROW_PROVIDER_TIMEOUT must be positive", ErrInvalidConfig)
	}
	if c.Lock.Backend == "redis" && c.Lock.TTL <= c.Escrow.ProviderTimeout+LockStorageMargin {
		return fmt.Errorf("%w: LOCK_TTL=%s must exceed ESCROW_PROVIDER_TIMEOUT=%s plus %s for the redis lock",
			ErrInvalidConfig, c.Lock.TTL, c.Escrow.ProviderTimeout, LockStorageMargin)
	}
	if c.DB.Driver != "memory" && c.DB.Url == "" {
		return fmt.Errorf("%w: DATABASE_URL is not set", ErrInvalidConfig)
	}
	return nil
}

func maskValue(key string) string {
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}
