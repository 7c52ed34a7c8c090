package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	defaultPort           = "4000"
	defaultDatabaseURL    = "data/gamegate.db"
	defaultUpstreamOrigin = "https://91appw.com"
	defaultSweepInterval  = "1h"
	defaultJWTSecret      = "change-me-jwt-secret"
	defaultAdminUsername  = "admin"
)

type Config struct {
	AppEnv         string
	Port           string
	DatabaseURL    string
	UpstreamOrigin string

	AdminUsername string
	AdminPassword string
	AdminToken    string

	JWTSecret     string
	SweepInterval time.Duration

	CORSAllowedOrigins []string
}

func Load() (*Config, error) {
	cfg := &Config{}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("NODE_ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.Port = getEnv("PORT", defaultPort)
	cfg.DatabaseURL = getEnv("DATABASE_URL", defaultDatabaseURL)
	cfg.UpstreamOrigin = strings.TrimRight(getEnv("UPSTREAM_ORIGIN", defaultUpstreamOrigin), "/")

	cfg.AdminUsername = getEnv("ADMIN_USERNAME", defaultAdminUsername)
	cfg.AdminPassword = strings.TrimSpace(os.Getenv("ADMIN_PASSWORD"))
	cfg.AdminToken = strings.TrimSpace(os.Getenv("ADMIN_TOKEN"))
	if cfg.IsProduction() && cfg.AdminPassword == "" && cfg.AdminToken == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD or ADMIN_TOKEN is required in production")
	}

	cfg.JWTSecret = getEnv("JWT_SECRET", defaultJWTSecret)
	if cfg.IsProduction() && cfg.JWTSecret == defaultJWTSecret {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}

	var err error
	cfg.SweepInterval, err = parseDurationEnv("SWEEP_INTERVAL", defaultSweepInterval)
	if err != nil {
		return nil, err
	}

	if extra := os.Getenv("CORS_ALLOWED_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production" || c.AppEnv == "prod"
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseDurationEnv(key, fallback string) (time.Duration, error) {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %q", key, raw)
	}
	return d, nil
}
