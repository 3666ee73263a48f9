package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.DevMode())
	assert.Equal(t, 10*time.Second, cfg.UpstreamTimeout())
	assert.Equal(t, 30*24*time.Hour, cfg.ReminderWindow())
	assert.Equal(t, "ganado360", cfg.AppName)
	assert.Equal(t, 40, cfg.RateLimitBurst)
	assert.Equal(t, 12*time.Hour, cfg.DevTokenTTL())
	assert.NotEmpty(t, cfg.DevJWTSecret)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GANADO_API_URL", "https://api.ganado360.test/ ")
	t.Setenv("UPSTREAM_TIMEOUT_SECONDS", "3")
	t.Setenv("PORT", "9090")
	t.Setenv("REMINDER_WINDOW_DAYS", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.DevMode())
	assert.Equal(t, "https://api.ganado360.test", cfg.UpstreamURL)
	assert.Equal(t, 3*time.Second, cfg.UpstreamTimeout())
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.ReminderWindow())
}

func TestHTTPWriteTimeoutCoversBirthSaga(t *testing.T) {
	cfg := &Config{UpstreamTimeoutSeconds: 5}

	assert.Equal(t, 40*time.Second, cfg.SagaTimeout())
	assert.Greater(t, cfg.HTTPWriteTimeout(), cfg.SagaTimeout())
	// cada paso del nacimiento puede agotar su timeout por separado
	assert.GreaterOrEqual(t, cfg.SagaTimeout(), 7*cfg.UpstreamTimeout())
}
