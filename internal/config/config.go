package config

import (
	"log/slog"
	"os"
	"time"
)

const devSecret = "dev-secret-change-in-production"

type Config struct {
	Port                string
	Env                 string
	DatabaseDSN         string
	JWTSecret           string
	JWTExpiry           time.Duration
	CORSOrigin          string
	BuildStatusUpstream string
}

func Load() Config {
	cfg := Config{
		Port:                getEnv("PORT", "8080"),
		Env:                 getEnv("ENV", "development"),
		DatabaseDSN:         getEnv("DATABASE_DSN", "root:password@tcp(127.0.0.1:3306)/appforge?parseTime=true"),
		JWTSecret:           getEnv("JWT_SECRET", devSecret),
		JWTExpiry:           getDuration("JWT_EXPIRY", 7*24*time.Hour),
		CORSOrigin:          getEnv("CORS_ORIGIN", "http://localhost:5173"),
		BuildStatusUpstream: getEnv("BUILD_STATUS_UPSTREAM", ""),
	}

	if cfg.Env == "production" && cfg.JWTSecret == devSecret {
		slog.Error("JWT_SECRET must be set in production environment")
		os.Exit(1)
	}

	return cfg
}

// Dev reports whether diagnostic error bodies are enabled.
func (c Config) Dev() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}
