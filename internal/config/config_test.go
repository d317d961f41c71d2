package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/garage")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.LockTimeout)
	assert.Equal(t, 2*time.Hour, cfg.Scheduling.DefaultBlockDuration)
	assert.Equal(t, 12*time.Hour, cfg.Scheduling.MaxDuration)
	assert.Equal(t, 5*time.Minute, cfg.Scheduling.PastGrace)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db/garage")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOCK_TIMEOUT", "750ms")
	t.Setenv("DEFAULT_BLOCK_DURATION", "90m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 750*time.Millisecond, cfg.LockTimeout)
	assert.Equal(t, 90*time.Minute, cfg.Scheduling.DefaultBlockDuration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("missing database url", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		_, err := Load()
		require.ErrorContains(t, err, "DATABASE_URL")
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://db/garage")
		t.Setenv("LOCK_TIMEOUT", "soon")
		_, err := Load()
		require.ErrorContains(t, err, "LOCK_TIMEOUT")
	})

	t.Run("max shorter than block", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://db/garage")
		t.Setenv("MAX_APPOINTMENT_DURATION", "1h")
		_, err := Load()
		require.ErrorContains(t, err, "MAX_APPOINTMENT_DURATION")
	})
}
