package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zoa-eus/osoak/internal/auth"
	"github.com/zoa-eus/osoak/internal/curriculum"
	"github.com/zoa-eus/osoak/internal/game"
	"github.com/zoa-eus/osoak/internal/httpapi"
	"github.com/zoa-eus/osoak/internal/platform/cache"
	"github.com/zoa-eus/osoak/internal/platform/config"
	"github.com/zoa-eus/osoak/internal/platform/database"
	"github.com/zoa-eus/osoak/internal/progress"
)

func main() {
	// A missing .env just means config comes from the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	// Redis is optional: without it sessions live in process memory and the
	// leaderboard is uncached.
	var redis *cache.Cache
	if cfg.Cache.Enabled {
		redis, err = cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			slog.Warn("cache unavailable, continuing without it", "error", err)
			redis = nil
		} else {
			defer redis.Close()
		}
	}

	loader, err := curriculum.NewLoader(cfg.CurriculumPath)
	if err != nil {
		slog.Error("failed to load curriculum", "error", err)
		os.Exit(1)
	}

	store, err := progress.NewPostgresStore(db.Pool)
	if err != nil {
		slog.Error("failed to create store", "error", err)
		os.Exit(1)
	}

	hub := httpapi.NewEventHub()
	events := progress.MultiLogger{progress.NewPostgresEventLogger(db.Pool), hub}
	ledger := progress.NewService(store, events)

	sessionTTL := time.Duration(cfg.Auth.SessionTTL) * time.Hour
	var sessions auth.SessionStore
	if redis != nil {
		sessions = auth.NewRedisSessionStore(redis, sessionTTL)
	} else {
		sessions = auth.NewMemorySessionStore()
	}
	authSvc := auth.NewService(store, ledger, sessions, cfg.Auth.BcryptCost, sessionTTL, cfg.Auth.AdminEmail)

	handler := httpapi.New(httpapi.Deps{
		Auth:       authSvc,
		Ledger:     ledger,
		Curriculum: loader,
		Games:      game.NewManager(game.NewGenerator()),
		Cache:      redis,
		Hub:        hub,
		DB:         db,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func setupLogging(cfg config.LogConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
