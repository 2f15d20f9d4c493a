// Dashstate - Dashboard State Synchronization Server
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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/mdabydeen/dashstate/internal/api"
	"github.com/mdabydeen/dashstate/internal/config"
	"github.com/mdabydeen/dashstate/internal/gating"
	"github.com/mdabydeen/dashstate/internal/identity"
	"github.com/mdabydeen/dashstate/internal/kv"
	"github.com/mdabydeen/dashstate/internal/middleware"
	"github.com/mdabydeen/dashstate/internal/navhistory"
	"github.com/mdabydeen/dashstate/internal/reaper"
	"github.com/mdabydeen/dashstate/internal/session"
	"github.com/mdabydeen/dashstate/internal/store"
	"github.com/mdabydeen/dashstate/internal/tabsync"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	// Preference values live in Redis when configured, otherwise in the
	// same SQLite database as devices and entitlements.
	var kvDriver kv.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			slog.Error("Redis health check failed", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		kvDriver = kv.NewRedis(client)
		slog.Info("Preference storage: redis", "addr", cfg.RedisAddr)
	} else {
		kvDriver = kv.NewRepository(repo)
		slog.Info("Preference storage: sqlite")
	}
	defer func() {
		if closeErr := kvDriver.Close(); closeErr != nil {
			slog.Error("Failed to close preference store", "error", closeErr)
		}
	}()

	adapter := kv.NewAdapter(kvDriver)

	// Initialize services.
	sessions := session.NewHolder(adapter, session.WithTTL(cfg.SessionTTL))
	chat := session.NewChatStateHolder(adapter)
	pending := session.NewPendingActionHolder(adapter, session.WithPendingTTL(cfg.PendingTTL))
	nav := navhistory.New(adapter, navhistory.WithMaxDepth(cfg.NavHistoryDepth))
	intervals := gating.NewIntervalService(gating.NewProvider(repo, cfg.GateRefresh))

	registry := tabsync.NewRegistry()
	wsHandler := tabsync.NewHandler(registry, cfg.FrontendURL, cfg.IsDevelopment())

	// Initialize handlers.
	baseHandler := api.NewHandler(repo, cfg.FrontendURL)
	stateHandler := api.NewStateHandler(baseHandler, sessions, chat, pending, nav, intervals, registry)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(identity.Middleware(repo, cfg.IsDevelopment()))

	// All routes use identity middleware (no auth needed).
	stateHandler.RegisterRoutes(r)

	// WebSocket endpoint for cross-tab sync.
	r.Get("/ws/state", wsHandler.ServeHTTP)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // WebSocket connections stay open indefinitely
		IdleTimeout:  120 * time.Second,
	}

	// Start background sweep.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reaper.Start(ctx, repo, cfg.ReaperInterval, cfg.DeviceTTL)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
