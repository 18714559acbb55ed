package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds runtime configuration parsed from environment variables.
type Config struct {
	HTTPAddr        string
	DBConnString    string
	BackendBaseURL  string
	BackendToken    string
	ShutdownTimeout time.Duration
	OrdersCacheTTL  time.Duration
	PreloadCacheTTL time.Duration
}

// FromEnv builds Config with defaults, overridden by environment variables.
func FromEnv() Config {
	return Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		DBConnString:    envOrDefault("DB_DSN", ""),
		BackendBaseURL:  envOrDefault("BACKEND_BASE_URL", "http://localhost:9090"),
		BackendToken:    envOrDefault("BACKEND_TOKEN", ""),
		ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT_SECONDS", 10*time.Second),
		OrdersCacheTTL:  envDuration("ORDERS_CACHE_TTL_SECONDS", 60*time.Second),
		PreloadCacheTTL: envDuration("PRELOAD_CACHE_TTL_SECONDS", 120*time.Second),
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		seconds, err := strconv.Atoi(v)
		if err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return def
}
