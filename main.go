package main

import (
	"CulturalDayBot/config"
	"CulturalDayBot/handler"
	"CulturalDayBot/model"
	"CulturalDayBot/repo"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error loading config:", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			Release:          cfg.AppVersion,
			AttachStacktrace: true,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("sentry initialization failed")
		} else {
			logger.Info().Str("environment", cfg.SentryEnvironment).Msg("sentry initialized")
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = logger.WithContext(ctx)

	event, err := loadEvent(cfg.EventFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("error loading event catalog")
	}

	store, err := InitializeSessionStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("error initializing session store")
	}

	var registration *handler.RegistrationBotHandler
	opts := []bot.Option{
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			registration.Handler(ctx, b, update)
		}),
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("error creating bot")
	}

	registration = handler.NewRegistrationBotHandler(
		b,
		repo.NewInscriptionService(cfg.SubmissionEndpoint),
		store,
		event,
		handler.WithLogger(logger),
		handler.WithRateLimit(rate.Limit(cfg.RateLimitPerSecond), cfg.RateLimitBurst),
	)

	logger.Info().Str("endpoint", cfg.SubmissionEndpoint).Str("event", event.Name).Msg("bot started")
	b.Start(ctx)
	logger.Info().Msg("bot stopped")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	var logger zerolog.Logger
	if cfg.LogPretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(cfg.Level()).With().Timestamp().Str("version", cfg.AppVersion).Logger()
}

func loadEvent(path string) (model.EventInfo, error) {
	if path == "" {
		return model.DefaultEventInfo()
	}
	f, err := os.Open(path)
	if err != nil {
		return model.EventInfo{}, fmt.Errorf("error opening event file: %w", err)
	}
	defer f.Close()
	return model.LoadEventInfo(f)
}

// InitializeSessionStore returns the Firebase store when configured, else an in-memory one.
func InitializeSessionStore(ctx context.Context, cfg *config.Config) (repo.SessionStore, error) {
	if !cfg.FirebaseEnabled() {
		return repo.NewMemorySessionStore(), nil
	}

	firebaseConnector, err := repo.NewFirebaseConnector(ctx, cfg.FirebaseServiceAccountKeyPath, cfg.FirebaseDatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("error creating Firebase connector: %w", err)
	}

	return firebaseConnector, nil
}
