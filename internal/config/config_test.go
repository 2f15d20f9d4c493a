package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("Expected session TTL 24h, got %s", cfg.SessionTTL)
	}
	if cfg.PendingTTL != 5*time.Minute {
		t.Errorf("Expected pending action TTL 5m, got %s", cfg.PendingTTL)
	}
	if cfg.NavHistoryDepth != 20 {
		t.Errorf("Expected nav history depth 20, got %d", cfg.NavHistoryDepth)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("NAV_HISTORY_DEPTH", "5")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Port)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("Expected session TTL 1h, got %s", cfg.SessionTTL)
	}
	if cfg.NavHistoryDepth != 5 {
		t.Errorf("Expected nav history depth 5, got %d", cfg.NavHistoryDepth)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("Expected redis addr localhost:6379, got %s", cfg.RedisAddr)
	}
}

func TestLoadInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("SESSION_TTL", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("Expected fallback session TTL 24h, got %s", cfg.SessionTTL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"empty port", func(c *Config) { c.Port = "" }, true},
		{"empty db path", func(c *Config) { c.DBPath = "" }, true},
		{"zero session ttl", func(c *Config) { c.SessionTTL = 0 }, true},
		{"negative depth", func(c *Config) { c.NavHistoryDepth = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			tt.mutate(cfg)
			err = cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
