package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURI   string
	TelegramToken string

	// DefaultTimezone applies to new users and to reminders whose owner has
	// no zone either.
	DefaultTimezone string

	CheckInterval   time.Duration
	SendConcurrency int

	// Active operating window. Empty start+end disables the gate; AlwaysOn
	// overrides it for debugging.
	WindowStart    string
	WindowEnd      string
	WindowTimezone string
	AlwaysOn       bool

	MetricsAddr string

	AIAPIKey  string
	AIBaseURL string
	AIModel   string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional in production
	}

	cfg := &Config{
		DatabaseURI:     os.Getenv("DATABASE_URI"),
		TelegramToken:   os.Getenv("TELEGRAM_TOKEN"),
		DefaultTimezone: getEnvOrDefault("DEFAULT_TIMEZONE", "Asia/Ho_Chi_Minh"),
		WindowStart:     os.Getenv("ACTIVE_WINDOW_START"),
		WindowEnd:       os.Getenv("ACTIVE_WINDOW_END"),
		WindowTimezone:  getEnvOrDefault("ACTIVE_WINDOW_TZ", "Asia/Ho_Chi_Minh"),
		AlwaysOn:        getEnvBool("ALWAYS_ON"),
		MetricsAddr:     getEnvOrDefault("METRICS_ADDR", ":9090"),
		AIAPIKey:        os.Getenv("AI_API_KEY"),
		AIBaseURL:       getEnvOrDefault("AI_BASE_URL", "https://openrouter.ai/api/v1"),
		AIModel:         getEnvOrDefault("AI_MODEL", "openai/gpt-4o-mini"),
	}

	interval, err := time.ParseDuration(getEnvOrDefault("CHECK_INTERVAL", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHECK_INTERVAL: %w", err)
	}
	cfg.CheckInterval = interval

	concurrency, err := strconv.Atoi(getEnvOrDefault("SEND_CONCURRENCY", "4"))
	if err != nil || concurrency < 1 {
		return nil, fmt.Errorf("invalid SEND_CONCURRENCY: %q", getEnvOrDefault("SEND_CONCURRENCY", "4"))
	}
	cfg.SendConcurrency = concurrency

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string) bool {
	switch os.Getenv(key) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
