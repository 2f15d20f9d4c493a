// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port            string
	FrontendURL     string
	DBPath          string
	RedisAddr       string // optional: when set, preferences live in Redis instead of SQLite
	SessionTTL      time.Duration
	PendingTTL      time.Duration
	DeviceTTL       time.Duration
	ReaperInterval  time.Duration
	NavHistoryDepth int
	GateRefresh     time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		FrontendURL:     getEnv("FRONTEND_URL", ""),
		DBPath:          getEnv("DB_PATH", "./data/dashstate.db"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		SessionTTL:      getEnvDuration("SESSION_TTL", 24*time.Hour),
		PendingTTL:      getEnvDuration("PENDING_ACTION_TTL", 5*time.Minute),
		DeviceTTL:       getEnvDuration("DEVICE_TTL", 30*24*time.Hour),
		ReaperInterval:  getEnvDuration("REAPER_INTERVAL", 5*time.Minute),
		NavHistoryDepth: getEnvInt("NAV_HISTORY_DEPTH", 20),
		GateRefresh:     getEnvDuration("GATE_REFRESH", time.Minute),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if c.PendingTTL <= 0 {
		return fmt.Errorf("PENDING_ACTION_TTL must be > 0")
	}
	if c.DeviceTTL <= 0 {
		return fmt.Errorf("DEVICE_TTL must be > 0")
	}
	if c.ReaperInterval <= 0 {
		return fmt.Errorf("REAPER_INTERVAL must be > 0")
	}
	if c.NavHistoryDepth <= 0 {
		return fmt.Errorf("NAV_HISTORY_DEPTH must be > 0")
	}
	if c.GateRefresh <= 0 {
		return fmt.Errorf("GATE_REFRESH must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
