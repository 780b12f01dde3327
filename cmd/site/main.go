// Copyright (c) 2026 Alexey Volkov
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/avolkov/personal-site/internal/auth"
	"github.com/avolkov/personal-site/internal/config"
	"github.com/avolkov/personal-site/internal/geoip"
	"github.com/avolkov/personal-site/internal/handler"
	"github.com/avolkov/personal-site/internal/logging"
	"github.com/avolkov/personal-site/internal/middleware"
	"github.com/avolkov/personal-site/internal/render"
	"github.com/avolkov/personal-site/internal/scheduler"
	"github.com/avolkov/personal-site/internal/service"
	"github.com/avolkov/personal-site/internal/session"
	"github.com/avolkov/personal-site/internal/store"
	"github.com/avolkov/personal-site/internal/version"
	"github.com/avolkov/personal-site/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "personal-site - Alexey Volkov's personal website\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SITE_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SITE_DB_PATH           SQLite database path (default: ./data/site.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SITE_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SITE_BASE_URL          Public base URL for OAuth callbacks (default: http://localhost:8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SITE_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  YANDEX_CLIENT_ID       Yandex OAuth application ID (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  GOOGLE_CLIENT_ID       Google OAuth application ID (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SITE_GEOIP_DB_PATH     GeoLite2-Country database path (optional)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("personal-site %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := &version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// Initialize database
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

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()
	if err := store.Seed(ctx, db, cfg.DoSeed); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	// GeoIP lookup for audit event enrichment (optional)
	geo, err := geoip.New(cfg.GeoIPDBPath)
	if err != nil {
		slog.Warn("geoip disabled", "error", err)
	} else if geo.Enabled() {
		slog.Info("geoip lookup enabled", "path", cfg.GeoIPDBPath)
	}
	defer func() { _ = geo.Close() }()

	// Session manager backed by the sessions table
	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	// Template renderer over the embedded templates
	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}
	slog.Info("template renderer initialized")

	// OAuth providers: only the ones with credentials are enabled
	providers := auth.Providers{}
	if cfg.YandexEnabled() {
		providers[auth.ProviderYandex] = auth.NewYandex(cfg.YandexClientID, cfg.YandexClientSecret, cfg.BaseURL)
		slog.Info("oauth provider enabled", "provider", auth.ProviderYandex)
	}
	if cfg.GoogleEnabled() {
		providers[auth.ProviderGoogle] = auth.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.BaseURL)
		slog.Info("oauth provider enabled", "provider", auth.ProviderGoogle)
	}
	if len(providers) == 0 {
		slog.Warn("no oauth providers configured, sign-in is unavailable")
	}

	// Background maintenance: event log pruning and geoip reload
	sched := scheduler.New(db, logger, geo, cfg.EventRetentionDays)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	events := service.NewEventService(db, geo)

	// Handlers
	frontendHandler := handler.NewFrontendHandler(renderer)
	commentsHandler := handler.NewCommentsHandler(db, renderer, events)
	authHandler := handler.NewAuthHandler(db, renderer, sessionManager, providers, events)
	themeHandler := handler.NewThemeHandler(sessionManager, events)
	healthHandler := handler.NewHealthHandler(db)
	slog.Info("handlers initialized", "version", versionInfo.Version)

	// Router
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.StripTrailingSlash)

	securityConfig := middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())
	r.Use(middleware.SecurityHeaders(securityConfig))
	r.Use(middleware.RequestPath)
	r.Use(sessionManager.LoadAndSave)

	csrfConfig := middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment())
	csrfMiddleware := middleware.CSRF(csrfConfig)
	slog.Info("CSRF protection initialized", "secure", !cfg.IsDevelopment())

	// Rate limiter for the auth routes
	authRateLimiter := middleware.NewGlobalRateLimiter(10.0, 20)

	// Health check routes
	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	// Public pages
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalLoadUser(sessionManager, db))
		r.Get(handler.RouteRoot, frontendHandler.Home)
		r.Get(handler.RouteAbout, frontendHandler.About)
		r.Get(handler.RouteContacts, frontendHandler.Contacts)
		r.Get(handler.RouteComments, commentsHandler.List)
	})

	// Auth routes (rate limited)
	r.Group(func(r chi.Router) {
		r.Use(authRateLimiter.Middleware())
		r.Use(csrfMiddleware)
		r.Get(handler.RouteLogin, authHandler.Login)
		r.Get(handler.RouteLoginCallback, authHandler.Callback)
		r.Post(handler.RouteLogout, authHandler.Logout)
	})

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(csrfMiddleware)
		r.Use(middleware.Auth(sessionManager))
		r.Use(middleware.LoadUser(sessionManager, db))
		r.Get(handler.RouteProfile, frontendHandler.Profile)
		r.Post(handler.RouteComments, commentsHandler.Create)
		r.Post(handler.RouteCommentDelete, commentsHandler.Delete)
	})

	// Theme preference (anonymous visitors can select a theme too)
	r.With(csrfMiddleware).Post(handler.RouteTheme, themeHandler.Select)

	// Static files from the embedded filesystem, cached for 1 week
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}
	staticHandler := middleware.StaticCache(604800)(http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	r.Handle("/static/*", staticHandler)

	// 404 with the site layout
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		frontendHandler.NotFound(w, req)
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
