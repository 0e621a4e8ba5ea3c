// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/carta/internal/admin"
	"github.com/olegiv/carta/internal/analytics"
	"github.com/olegiv/carta/internal/auth"
	"github.com/olegiv/carta/internal/cache"
	"github.com/olegiv/carta/internal/config"
	"github.com/olegiv/carta/internal/geoip"
	"github.com/olegiv/carta/internal/handler"
	"github.com/olegiv/carta/internal/i18n"
	"github.com/olegiv/carta/internal/logging"
	"github.com/olegiv/carta/internal/menu"
	"github.com/olegiv/carta/internal/model"
	"github.com/olegiv/carta/internal/schedule"
	"github.com/olegiv/carta/internal/scheduler"
	"github.com/olegiv/carta/internal/session"
	"github.com/olegiv/carta/internal/store"
	"github.com/olegiv/carta/internal/version"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")
	genToken := flag.Bool("gen-token", false, "Generate an admin token and its CARTA_ADMIN_TOKEN_HASH value")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "carta - digital restaurant menus with scheduled promotions\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CARTA_DB_PATH            SQLite database path (default: ./data/carta.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CARTA_SERVER_PORT        Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CARTA_ENV                Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CARTA_REDIS_URL          Redis URL for the shared menu cache (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CARTA_DEFAULT_LANG       Default menu language: es|en|pt (default: es)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CARTA_ADMIN_TOKEN_HASH   bcrypt hash of the admin bearer token (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CARTA_TRACK_BOTS         Record menu views from crawlers (default: false)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CARTA_GEOIP_DB_PATH      GeoLite2-Country database (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  CARTA_DO_SEED            Create the demo menu on startup (default: false)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Println(version.Get().String())
		os.Exit(0)
	}

	if *genToken {
		if err := printAdminToken(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

// printAdminToken prints a fresh bearer token and the hash to configure.
func printAdminToken() error {
	token, err := auth.GenerateToken()
	if err != nil {
		return err
	}
	hash, err := auth.HashToken(token)
	if err != nil {
		return err
	}
	_, _ = fmt.Printf("Admin token (keep it secret): %s\n", token)
	_, _ = fmt.Printf("CARTA_ADMIN_TOKEN_HASH='%s'\n", hash)
	return nil
}

func run() error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := logging.ParseLevel(cfg.LogLevel)
	logger := logging.New(os.Stdout, logLevel, cfg.IsDevelopment(), nil)
	slog.SetDefault(logger)

	if err := i18n.Init(logger); err != nil {
		return fmt.Errorf("initializing i18n: %w", err)
	}

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	queries := store.New(db)

	// Upgrade logger to also write WARN and ERROR logs to the event log
	logger = logging.New(os.Stdout, logLevel, cfg.IsDevelopment(), queries)
	slog.SetDefault(logger)
	slog.Info("database ready", "event_log_min_level", "warn")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DoSeed {
		if err := store.Seed(ctx, db, time.Now()); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	cacher, cacheInfo := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: cfg.CacheTTL,
		MaxSize:    cfg.CacheMaxSize,
	}, logger)
	defer func() { _ = cacher.Close() }()
	slog.Info("cache initialized", "backend", cacheInfo.Backend, "fallback", cacheInfo.IsFallback)

	geo, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		slog.Warn("geoip database unavailable, country lookup disabled", "path", cfg.GeoIPDBPath, "error", err)
	}
	defer func() { _ = geo.Close() }()

	sessionManager := session.New(db, cfg.IsDevelopment(), cfg.SessionLifetime)

	menus := menu.NewService(queries, cacher, cfg.CacheTTL, logger)

	watcher := schedule.NewWatcher(
		queries.ListActivePromotionsForPublishedMenus,
		func(ctx context.Context, changed []model.Promotion) {
			seen := make(map[string]bool, len(changed))
			for _, p := range changed {
				if !seen[p.MenuID] {
					seen[p.MenuID] = true
					menus.InvalidateMenu(ctx, p.MenuID)
				}
			}
		},
		logger,
		schedule.WithCeiling(cfg.WatcherCeiling),
	)
	go watcher.Run(ctx)

	trackerOpts := []analytics.Option{analytics.WithBots(cfg.TrackBots)}
	if geo.Enabled() {
		trackerOpts = append(trackerOpts, analytics.WithGeoIP(geo))
	}
	tracker := analytics.NewTracker(queries, logger, trackerOpts...)

	jobs := scheduler.New(logger)
	retention := time.Duration(cfg.RawRetentionDays) * 24 * time.Hour
	for _, job := range scheduler.AnalyticsJobs(queries, retention, nil, logger) {
		if err := jobs.Register(job); err != nil {
			return fmt.Errorf("registering job: %w", err)
		}
	}
	if cfg.GeoIPEnabled() {
		if err := jobs.Register(scheduler.GeoIPJob(geo)); err != nil {
			return fmt.Errorf("registering job: %w", err)
		}
	}
	jobs.Start()
	defer jobs.Stop()

	handlers := handler.Handlers{
		Health:   handler.NewHealthHandler(queries, cacheInfo.Backend),
		Public:   handler.NewPublicHandler(menus, cfg.AssetBaseURL, logger),
		Tracking: handler.NewTrackingHandler(tracker, session.NewMarkers(sessionManager)),
	}
	if cfg.AdminEnabled() {
		adminService := admin.NewService(queries, menus, watcher, logger)
		handlers.Admin = handler.NewAdminHandler(adminService, analytics.NewStats(queries), queries, jobs, logger)
	} else {
		slog.Info("admin API disabled, set CARTA_ADMIN_TOKEN_HASH to enable it")
	}

	router := handler.NewRouter(handler.RouterConfig{
		IsDevelopment:  cfg.IsDevelopment(),
		DefaultLang:    cfg.Lang(),
		RequestTimeout: cfg.RequestTimeout,
		TrackRateLimit: cfg.TrackRateLimit,
		TrackBurst:     cfg.TrackBurst,
		AdminTokenHash: cfg.AdminTokenHash,
	}, handlers, sessionManager, logger)

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", version.Get().Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
