package config

import (
	"testing"
	"time"
)

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("COREBANK_AUTH_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without COREBANK_AUTH_SECRET")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("COREBANK_AUTH_SECRET", "test-secret-0123456789")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected addr: %s", cfg.Addr)
	}
	if cfg.LockWait != 2*time.Second {
		t.Fatalf("unexpected lock wait: %s", cfg.LockWait)
	}
	if cfg.RateLimitRPS != 50 || cfg.RateLimitBurst != 100 {
		t.Fatalf("unexpected rate limits: %v/%v", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("COREBANK_AUTH_SECRET", "test-secret-0123456789")
	t.Setenv("COREBANK_ADDR", ":9191")
	t.Setenv("COREBANK_LOCK_WAIT", "500ms")
	t.Setenv("COREBANK_PG_DSN", "postgres://corebank@localhost/corebank")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != ":9191" || cfg.LockWait != 500*time.Millisecond {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.PostgresDSN == "" {
		t.Fatal("expected postgres dsn")
	}
}
