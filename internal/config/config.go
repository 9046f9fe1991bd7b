// Package config reads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds server configuration.
type Config struct {
	DBPath      string // SQLite path; ignored when PostgresDSN is set
	PostgresDSN string
	Port        int
	DevMode     bool
	JWTSecret   string
	TokenTTL    time.Duration
	CORSOrigins []string
	Location    *time.Location

	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	DigestTo       []string
	DigestSchedule string // cron spec, e.g. "0 7 * * *"
}

// FromEnv creates a Config from GB_* environment variables.
func FromEnv() (Config, error) {
	cfg := Config{
		DBPath:         os.Getenv("GB_DB"),
		PostgresDSN:    os.Getenv("GB_POSTGRES_DSN"),
		DevMode:        os.Getenv("GB_DEV_MODE") == "true",
		JWTSecret:      os.Getenv("GB_JWT_SECRET"),
		CORSOrigins:    splitList(os.Getenv("GB_CORS_ORIGINS")),
		SMTPHost:       os.Getenv("GB_SMTP_HOST"),
		SMTPPort:       envOrDefault("GB_SMTP_PORT", "587"),
		SMTPUser:       os.Getenv("GB_SMTP_USER"),
		SMTPPass:       os.Getenv("GB_SMTP_PASS"),
		SMTPFrom:       os.Getenv("GB_SMTP_FROM"),
		DigestTo:       splitList(os.Getenv("GB_DIGEST_TO")),
		DigestSchedule: envOrDefault("GB_DIGEST_SCHEDULE", "0 7 * * *"),
	}

	port, err := strconv.Atoi(envOrDefault("GB_PORT", "8080"))
	if err != nil || port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid GB_PORT %q", os.Getenv("GB_PORT"))
	}
	cfg.Port = port

	ttl, err := time.ParseDuration(envOrDefault("GB_TOKEN_TTL", "720h"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid GB_TOKEN_TTL: %w", err)
	}
	cfg.TokenTTL = ttl

	cfg.Location = time.Local
	if tz := os.Getenv("GB_TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return Config{}, fmt.Errorf("invalid GB_TIMEZONE: %w", err)
		}
		cfg.Location = loc
	}

	return cfg, nil
}

// DigestEnabled reports whether the daily digest has somewhere to go.
func (c Config) DigestEnabled() bool {
	return c.SMTPHost != "" && len(c.DigestTo) > 0
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
