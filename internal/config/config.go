package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env               string        // dev, prod
	HTTPPort          string        // default 8080
	ClinicsAPIBaseURL string        // required, e.g. http://localhost:8002
	FallbackChatURL   string        // optional; empty disables the fallback backend
	HTTPClientTimeout time.Duration // per-call deadline for outbound requests
	ShutdownTimeout   time.Duration // graceful shutdown timeout
	ChatRateLimit     int           // /chat requests per minute per IP; 0 disables
	LogLevel          string        // debug, info, warn, error
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:               getEnv("APP_ENV", "dev"),
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		ClinicsAPIBaseURL: os.Getenv("CLINICS_API_BASE_URL"),
		FallbackChatURL:   os.Getenv("FALLBACK_CHAT_URL"),
		HTTPClientTimeout: getDuration("HTTP_CLIENT_TIMEOUT", 10*time.Second),
		ShutdownTimeout:   getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		ChatRateLimit:     getInt("CHAT_RATE_LIMIT", 60),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}

	if cfg.ClinicsAPIBaseURL == "" {
		return Config{}, errors.New("CLINICS_API_BASE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		fmt.Fprintf(os.Stderr, "invalid duration for %s=%q, using default %s\n", key, v, def)
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		fmt.Fprintf(os.Stderr, "invalid integer for %s=%q, using default %d\n", key, v, def)
	}
	return def
}
