package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Defaults mirror the development setup; every value can be overridden from
// the environment or a .env file.
const (
	defaultEnv          = "development"
	defaultWSHost       = "0.0.0.0"
	defaultWSPort       = "9501"
	defaultRedisAddr    = "localhost:6379"
	defaultRedisChannel = "task-events"
	defaultJWTSecret    = "change-this-secret-in-production!!"
)

type Config struct {
	Env          string
	WSHost       string
	WSPort       string
	RedisAddr    string
	RedisChannel string
	JWTSecret    string
}

// Load reads configuration from the environment, after loading a .env file
// when one exists. The JWT secret falls back to a development default; the
// token manager rejects secrets that are too short at construction.
func Load() Config {
	godotenv.Load()

	return Config{
		Env:          getEnv("APP_ENV", defaultEnv),
		WSHost:       getEnv("WS_HOST", defaultWSHost),
		WSPort:       getEnv("WS_PORT", defaultWSPort),
		RedisAddr:    getEnv("REDIS_ADDR", defaultRedisAddr),
		RedisChannel: getEnv("REDIS_CHANNEL", defaultRedisChannel),
		JWTSecret:    getEnv("JWT_SECRET", defaultJWTSecret),
	}
}

// ListenAddr is the host:port the realtime server binds to.
func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%s", c.WSHost, c.WSPort)
}

// UsingDefaultSecret reports whether the development JWT secret is in use,
// so the server can warn loudly at startup.
func (c Config) UsingDefaultSecret() bool {
	return c.JWTSecret == defaultJWTSecret
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
