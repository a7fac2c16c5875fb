// Package config loads runtime settings from the environment and an
// optional YAML policy file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/msomdec/askhub/internal/policy"
)

// Config holds every setting the server needs at startup.
type Config struct {
	Port         string
	DatabasePath string
	JWTSecret    string
	CookieSecure bool
	BcryptCost   int
	SessionTTL   time.Duration
	AppBaseURL   string
	CORSOrigins  []string

	SendGridAPIKey string
	MailFrom       string

	StripeSecretKey string
	StripeAPIBase   string

	OpenWeatherAPIKey  string
	OpenWeatherAPIBase string

	PolicyFile string
	Policy     policy.Config
}

// Load reads the environment, validates it and applies POLICY_FILE when set.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               envOrDefault("PORT", "8080"),
		DatabasePath:       envOrDefault("DATABASE_PATH", "askhub.db"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		CookieSecure:       os.Getenv("COOKIE_SECURE") != "false",
		BcryptCost:         12,
		SessionTTL:         24 * time.Hour,
		AppBaseURL:         strings.TrimRight(envOrDefault("APP_BASE_URL", "http://localhost:8080"), "/"),
		SendGridAPIKey:     strings.TrimSpace(os.Getenv("SENDGRID_API_KEY")),
		MailFrom:           envOrDefault("MAIL_FROM", "no-reply@askhub.local"),
		StripeSecretKey:    strings.TrimSpace(os.Getenv("STRIPE_SECRET_KEY")),
		StripeAPIBase:      strings.TrimRight(envOrDefault("STRIPE_API_BASE", "https://api.stripe.com"), "/"),
		OpenWeatherAPIKey:  strings.TrimSpace(os.Getenv("OPENWEATHER_API_KEY")),
		OpenWeatherAPIBase: strings.TrimRight(envOrDefault("OPENWEATHER_API_BASE", "https://api.openweathermap.org"), "/"),
		PolicyFile:         os.Getenv("POLICY_FILE"),
		Policy:             policy.DefaultConfig(),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET must be at least 32 characters for HMAC-SHA256 security")
	}

	// Browsers refuse a wildcard origin on credentialed requests, and the
	// session cookie needs credentials.
	cfg.CORSOrigins = splitList(envOrDefault("CORS_ALLOWED_ORIGINS", cfg.AppBaseURL))
	for _, origin := range cfg.CORSOrigins {
		if origin == "*" {
			return nil, errors.New("CORS_ALLOWED_ORIGINS cannot be \"*\" because session cookies need credentialed requests; list the front-end origins")
		}
	}

	if v := os.Getenv("BCRYPT_COST"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
		}
		if parsed < 4 || parsed > 14 {
			return nil, fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", parsed)
		}
		cfg.BcryptCost = parsed
	}

	if v := os.Getenv("SESSION_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
		}
		if ttl <= 0 {
			return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", ttl)
		}
		cfg.SessionTTL = ttl
	}

	if cfg.PolicyFile != "" {
		pc, err := LoadPolicy(cfg.PolicyFile)
		if err != nil {
			return nil, err
		}
		cfg.Policy = pc
	}

	return cfg, nil
}

func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
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
