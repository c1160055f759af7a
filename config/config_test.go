package config

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, "https://backendjournee-v9qj.vercel.app/api/inscriptions", cfg.SubmissionEndpoint)
	assert.Equal(t, "production", cfg.SentryEnvironment)
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
	assert.InDelta(t, 2.0, cfg.RateLimitPerSecond, 0.0001)
	assert.Equal(t, 5, cfg.RateLimitBurst)
	assert.False(t, cfg.FirebaseEnabled())
}

func TestLoad_RequiresToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_FirebaseMustBePaired(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("FIREBASE_SERVICE_ACCOUNT_KEY_PATH", "/etc/firebase.json")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("FIREBASE_DATABASE_URL", "https://example.firebaseio.com")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.FirebaseEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("SUBMISSION_ENDPOINT", "http://localhost:8080/api/inscriptions")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("RATE_LIMIT_BURST", "1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api/inscriptions", cfg.SubmissionEndpoint)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, 1, cfg.RateLimitBurst)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	base := Config{BotToken: "x", LogLevel: "info", RateLimitPerSecond: 1, RateLimitBurst: 1}
	require.NoError(t, base.Validate())

	bad := base
	bad.LogLevel = "loud"
	require.Error(t, bad.Validate())

	bad = base
	bad.RateLimitPerSecond = 0
	require.Error(t, bad.Validate())

	bad = base
	bad.RateLimitBurst = 0
	require.Error(t, bad.Validate())
}
