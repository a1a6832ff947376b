// Package main is the entry point for the Wisdomia API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wisdomia/internal/cache"
	"wisdomia/internal/config"
	"wisdomia/internal/database"
	"wisdomia/internal/handlers"
	"wisdomia/internal/middleware"
	"wisdomia/internal/models"
	"wisdomia/internal/router"
	"wisdomia/internal/session"
	"wisdomia/internal/store"
	"wisdomia/internal/taxonomy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Text logs for humans in development, JSON everywhere else.
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Data stores.
	userStore := store.NewUserStore(db)
	postStore := store.NewPostStore(db)
	settingStore := store.NewSettingStore(db)
	cacheLogStore := store.NewCacheLogStore(db)

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db, userStore, taxonomy.BaseList()); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Valkey backs sessions, the page cache and the login limiter.
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, cfg.SessionTTL, secureCookies)
	loginLimiter := middleware.NewRateLimiter(valkeyClient, "login", cfg.LoginRateLimit, time.Minute)

	pageCache := cache.NewPageCache(valkeyClient, cache.DefaultPageTTL)
	// Migrations and seeds may have changed what cached pages show.
	pageCache.InvalidateAll(context.Background())
	invalidator := cache.NewInvalidator(pageCache, cacheLogStore)

	// Taxonomy: the managed list lives in the settings table and every
	// mutation runs in one transaction with its post cascade.
	transactor := taxonomy.NewSQLTransactor(db)
	managed := taxonomy.NewManagedStore(settingStore, transactor, models.SettingManagedCategories)
	categoryService := taxonomy.NewService(managed, transactor, taxonomy.AuthorizerFunc(middleware.IsAdmin), invalidator)
	projection := taxonomy.NewProjection(managed, postStore, pageCache)

	r := router.New(router.Options{
		Sessions:      sessionStore,
		LoginLimiter:  loginLimiter,
		SecureCookies: secureCookies,
	}, router.Handlers{
		Auth:       handlers.NewAuth(sessionStore, userStore, cfg.SiteName),
		Categories: handlers.NewCategories(categoryService),
		Posts:      handlers.NewPosts(postStore, categoryService, invalidator),
		Public:     handlers.NewPublic(projection, postStore, settingStore, pageCache, cfg.SiteName),
		CacheLog:   handlers.NewCacheLog(cacheLogStore),
		Settings:   handlers.NewSettings(settingStore, invalidator),
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
