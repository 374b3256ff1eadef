package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Email backend names selectable via EMAIL_BACKEND.
const (
	EmailBackendConsole = "console"
	EmailBackendSMTP    = "smtp"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int
	DatabasePath string

	// Email delivery settings for the welcome mail.
	EmailBackend string
	EmailFrom    string
	SMTPAddr     string // host:port
	SMTPUsername string
	SMTPPassword string

	// Optional redis cache for the recent-events feed. Empty disables it.
	RedisAddr string

	// Audit event retention.
	EventRetention    time.Duration
	EventPruneSpec    string // cron expression
	CPUAlertThreshold float64
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT %q: %w", portStr, err)
	}

	retentionStr := getEnv("EVENT_RETENTION", "720h")
	retention, err := time.ParseDuration(retentionStr)
	if err != nil {
		return nil, fmt.Errorf("invalid EVENT_RETENTION %q: %w", retentionStr, err)
	}

	thresholdStr := getEnv("CPU_ALERT_THRESHOLD", "90")
	threshold, err := strconv.ParseFloat(thresholdStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid CPU_ALERT_THRESHOLD %q: %w", thresholdStr, err)
	}

	backend := getEnv("EMAIL_BACKEND", EmailBackendConsole)
	if backend != EmailBackendConsole && backend != EmailBackendSMTP {
		return nil, fmt.Errorf("unknown EMAIL_BACKEND %q", backend)
	}

	return &Config{
		ServerPort:        port,
		DatabasePath:      getEnv("DATABASE_PATH", "./signalex.db"),
		EmailBackend:      backend,
		EmailFrom:         getEnv("EMAIL_FROM", "from@example.com"),
		SMTPAddr:          getEnv("SMTP_ADDR", "localhost:25"),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		EventRetention:    retention,
		EventPruneSpec:    getEnv("EVENT_PRUNE_SPEC", "@daily"),
		CPUAlertThreshold: threshold,
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
