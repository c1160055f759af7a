package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// Config is read from the environment.
type Config struct {
	BotToken           string `env:"TELEGRAM_BOT_TOKEN,required,notEmpty"`
	SubmissionEndpoint string `env:"SUBMISSION_ENDPOINT" envDefault:"https://backendjournee-v9qj.vercel.app/api/inscriptions"`
	EventFile          string `env:"EVENT_FILE"`

	FirebaseServiceAccountKeyPath string `env:"FIREBASE_SERVICE_ACCOUNT_KEY_PATH"`
	FirebaseDatabaseURL           string `env:"FIREBASE_DATABASE_URL"`

	SentryDSN         string `env:"SENTRY_DSN"`
	SentryEnvironment string `env:"SENTRY_ENVIRONMENT" envDefault:"production"`
	AppVersion        string `env:"APP_VERSION" envDefault:"dev"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY"`

	// Per-chat flood guard on incoming updates.
	RateLimitPerSecond float64 `env:"RATE_LIMIT_PER_SECOND" envDefault:"2"`
	RateLimitBurst     int     `env:"RATE_LIMIT_BURST" envDefault:"5"`
}

// Load parses the environment and validates combinations env tags cannot express.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if (c.FirebaseServiceAccountKeyPath == "") != (c.FirebaseDatabaseURL == "") {
		return errors.New("FIREBASE_SERVICE_ACCOUNT_KEY_PATH and FIREBASE_DATABASE_URL must be set together")
	}
	if c.RateLimitPerSecond <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_SECOND must be positive, got %v", c.RateLimitPerSecond)
	}
	if c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1, got %d", c.RateLimitBurst)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// FirebaseEnabled reports whether sessions should be stored in Firebase.
func (c *Config) FirebaseEnabled() bool {
	return c.FirebaseServiceAccountKeyPath != "" && c.FirebaseDatabaseURL != ""
}

// Level returns the parsed log level, defaulting to info.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
