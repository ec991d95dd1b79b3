// Package config loads application settings from the environment, with an
// optional .env file for local development. Database settings live in the
// database package; this covers the server and token surface.
package config

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds server and token configuration.
type Config struct {
	Port string

	JWTSecret        string
	JWTExpirationDur time.Duration
}

var (
	appConfig *Config
	loadOnce  sync.Once
)

// Load reads configuration from the environment. Missing values fall back
// to development defaults; the JWT secret default is unusable in production
// and must be overridden there.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),
	}

	expStr := getEnv("JWT_EXPIRES_IN", "15m")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 15m\n", expStr)
		expDur = 15 * time.Minute
	}
	cfg.JWTExpirationDur = expDur

	appConfig = cfg
	return cfg, nil
}

// Get returns the application configuration, loading it on first use.
func Get() *Config {
	loadOnce.Do(func() {
		if appConfig == nil {
			appConfig, _ = Load()
		}
	})
	return appConfig
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
