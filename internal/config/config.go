// Package config loads service configuration from the environment. A local
// .env file is honored when present; real environment variables win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr     string
	LogLevel string

	// Auth
	AuthSecret string

	// Ledger
	LockWait time.Duration

	// Rate limit (per client IP)
	RateLimitRPS   float64
	RateLimitBurst int

	// Optional Postgres transaction archive
	PostgresDSN string

	// Seed credentials, created at startup when absent
	AdminEmail    string
	AdminPassword string
	StaffEmail    string
	StaffPassword string
}

// Load reads COREBANK_* variables and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:           getEnv("COREBANK_ADDR", ":8080"),
		LogLevel:       getEnv("COREBANK_LOG_LEVEL", "info"),
		AuthSecret:     getEnv("COREBANK_AUTH_SECRET", ""),
		LockWait:       getDuration("COREBANK_LOCK_WAIT", 2*time.Second),
		RateLimitRPS:   getFloat("COREBANK_RATE_LIMIT_RPS", 50),
		RateLimitBurst: getInt("COREBANK_RATE_LIMIT_BURST", 100),
		PostgresDSN:    getEnv("COREBANK_PG_DSN", ""),
		AdminEmail:     getEnv("COREBANK_ADMIN_EMAIL", "admin@corebank.local"),
		AdminPassword:  getEnv("COREBANK_ADMIN_PASSWORD", ""),
		StaffEmail:     getEnv("COREBANK_STAFF_EMAIL", "staff@corebank.local"),
		StaffPassword:  getEnv("COREBANK_STAFF_PASSWORD", ""),
	}

	if cfg.AuthSecret == "" {
		return nil, fmt.Errorf("missing COREBANK_AUTH_SECRET")
	}
	if cfg.LockWait <= 0 {
		return nil, fmt.Errorf("COREBANK_LOCK_WAIT must be positive")
	}
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return nil, fmt.Errorf("rate limit settings must be positive")
	}
	return cfg, nil
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getFloat(k string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
