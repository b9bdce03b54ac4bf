package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "WS_HOST", "WS_PORT", "REDIS_ADDR", "REDIS_CHANNEL", "JWT_SECRET"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "0.0.0.0:9501", cfg.ListenAddr())
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "task-events", cfg.RedisChannel)
	assert.True(t, cfg.UsingDefaultSecret())
	assert.GreaterOrEqual(t, len(cfg.JWTSecret), 32, "default secret must satisfy the token manager")
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("WS_HOST", "127.0.0.1")
	t.Setenv("WS_PORT", "9600")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_CHANNEL", "task-events-staging")
	t.Setenv("JWT_SECRET", "an-entirely-different-shared-secret!")

	cfg := Load()

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "127.0.0.1:9600", cfg.ListenAddr())
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, "task-events-staging", cfg.RedisChannel)
	assert.False(t, cfg.UsingDefaultSecret())
}
