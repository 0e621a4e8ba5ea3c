// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/olegiv/carta/internal/auth"
	"github.com/olegiv/carta/internal/model"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"CARTA_DB_PATH" envDefault:"./data/carta.db"`
	ServerHost string `env:"CARTA_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"CARTA_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"CARTA_ENV" envDefault:"development"`
	LogLevel   string `env:"CARTA_LOG_LEVEL" envDefault:"info"`

	// Cache configuration. Without a Redis URL an in-process cache is used.
	RedisURL     string        `env:"CARTA_REDIS_URL"`
	CachePrefix  string        `env:"CARTA_CACHE_PREFIX" envDefault:"carta:"`
	CacheTTL     time.Duration `env:"CARTA_CACHE_TTL" envDefault:"5m"`
	CacheMaxSize int           `env:"CARTA_CACHE_MAX_SIZE" envDefault:"10000"`

	SessionLifetime time.Duration `env:"CARTA_SESSION_LIFETIME" envDefault:"24h"`
	DefaultLang     string        `env:"CARTA_DEFAULT_LANG" envDefault:"es"`
	AssetBaseURL    string        `env:"CARTA_ASSET_BASE_URL"` // Prefix for relative image URLs

	// GeoIP configuration
	GeoIPDBPath string `env:"CARTA_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file

	// Admin API
	AdminTokenHash string `env:"CARTA_ADMIN_TOKEN_HASH"` // bcrypt hash of the bearer token; empty disables /admin

	// Tracking endpoints
	TrackRateLimit float64 `env:"CARTA_TRACK_RATE" envDefault:"5"`     // Requests per second per client
	TrackBurst     int     `env:"CARTA_TRACK_BURST" envDefault:"20"`   // Burst per client
	TrackBots      bool    `env:"CARTA_TRACK_BOTS" envDefault:"false"` // Record menu views from crawlers

	// Analytics retention and schedule watching
	RawRetentionDays int           `env:"CARTA_RAW_RETENTION_DAYS" envDefault:"30"`
	WatcherCeiling   time.Duration `env:"CARTA_WATCHER_CEILING" envDefault:"20s"`
	RequestTimeout   time.Duration `env:"CARTA_REQUEST_TIMEOUT" envDefault:"15s"`

	// Seeding configuration
	DoSeed bool `env:"CARTA_DO_SEED" envDefault:"false"` // Create the demo menu on startup
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// AdminEnabled returns true if the admin API token is configured.
func (c Config) AdminEnabled() bool {
	return c.AdminTokenHash != ""
}

// Lang returns the validated default content language.
func (c Config) Lang() model.Lang {
	l, ok := model.ParseLang(c.DefaultLang)
	if !ok {
		return model.DefaultLang
	}
	return l
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if _, ok := model.ParseLang(cfg.DefaultLang); !ok {
		return nil, fmt.Errorf("CARTA_DEFAULT_LANG must be one of %v, got %q", model.SupportedLangs, cfg.DefaultLang)
	}

	if cfg.AdminTokenHash != "" {
		if !auth.IsHash(cfg.AdminTokenHash) {
			return nil, fmt.Errorf("CARTA_ADMIN_TOKEN_HASH must be a bcrypt hash (see -gen-token)")
		}
	}

	if cfg.TrackRateLimit <= 0 || cfg.TrackBurst <= 0 {
		return nil, fmt.Errorf("CARTA_TRACK_RATE and CARTA_TRACK_BURST must be positive")
	}

	if cfg.RawRetentionDays < 1 {
		return nil, fmt.Errorf("CARTA_RAW_RETENTION_DAYS must be at least 1, got %d", cfg.RawRetentionDays)
	}

	return cfg, nil
}
