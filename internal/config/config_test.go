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
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Database.SSLMode != "disable" {
		t.Errorf("Expected default sslmode disable, got %q", cfg.Database.SSLMode)
	}
	if cfg.JWT.AccessTokenExpire != 3*time.Hour {
		t.Errorf("Expected default access expiry 3h, got %v", cfg.JWT.AccessTokenExpire)
	}
}

func TestLoadBindsDatabaseEnv(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_SSLMODE", "require")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("Expected host db.internal, got %q", cfg.Database.Host)
	}
	if cfg.Database.SSLMode != "require" {
		t.Errorf("Expected sslmode require, got %q", cfg.Database.SSLMode)
	}
	if got := cfg.Database.DSN(); got == "" {
		t.Fatal("Expected a non-empty DSN")
	}
}

func TestDSNPrefersURL(t *testing.T) {
	d := DatabaseConfig{
		URL:  "postgres://u:p@h:5432/db",
		Host: "ignored",
	}
	if got := d.DSN(); got != "postgres://u:p@h:5432/db" {
		t.Errorf("Expected URL to win, got %q", got)
	}
}
