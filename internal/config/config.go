// Package config centralises configuration parsing for the exercise tracker.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures runtime configuration values for the exercise tracker.
type Config struct {
	Port            int
	DatabaseURL     string
	DatabaseName    string
	KafkaBrokers    []string
	EventsTopic     string
	LogLevel        string
	LogFormat       string // "text" or "json".
	CORSOrigin      string
	MetricsEnabled  bool
	ShutdownTimeout time.Duration
}

// Load reads a .env file when present and then environment variables into
// Config, applying defaults for local dev.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:            getIntEnv("PORT", 3000),
		DatabaseURL:     getEnv("DB_URL", "mongodb://localhost:27017"),
		DatabaseName:    getEnv("DB_NAME", "exercisetracker"),
		KafkaBrokers:    splitAndTrim(getEnv("KAFKA_BROKERS", "")),
		EventsTopic:     getEnv("EVENTS_TOPIC", "exercise_tracker_events"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		CORSOrigin:      getEnv("CORS_ORIGIN", "*"),
		MetricsEnabled:  getBoolEnv("METRICS_ENABLED", true),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

// Address is the HTTP listen address.
func (c Config) Address() string {
	return ":" + strconv.Itoa(c.Port)
}

// EventsEnabled reports whether any Kafka broker is configured.
func (c Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
