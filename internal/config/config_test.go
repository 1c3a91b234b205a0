package config

import (
	"os"
	"testing"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	os.Unsetenv("DATABASE_URL")
	if _, err := Load(); err == nil {
		t.Error("expected error when DATABASE_URL is unset")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/clinicdesk_test")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.DBMaxConns != 20 {
		t.Errorf("expected default max conns 20, got %d", cfg.DBMaxConns)
	}
	if cfg.CacheSize != 512 {
		t.Errorf("expected default cache size 512, got %d", cfg.CacheSize)
	}
	if !cfg.IsDev() {
		t.Error("expected default env to be development")
	}
}

func TestValidate_JWTSecretRequiredOutsideDev(t *testing.T) {
	cfg := &Config{Env: "production", CacheSize: 64, DBMaxConns: 10, DBMinConns: 2}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing JWT_SECRET in production")
	}
	cfg.JWTSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_ConnBounds(t *testing.T) {
	cfg := &Config{Env: "development", CacheSize: 64, DBMaxConns: 2, DBMinConns: 5}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when min conns exceed max conns")
	}
}
