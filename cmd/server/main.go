package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/leonardobora/GeraAI/internal/config"
	"github.com/leonardobora/GeraAI/internal/crypto"
	"github.com/leonardobora/GeraAI/internal/database"
	"github.com/leonardobora/GeraAI/internal/logging"
	"github.com/leonardobora/GeraAI/internal/router"
	"github.com/leonardobora/GeraAI/internal/sentry"
	"github.com/leonardobora/GeraAI/internal/store"
)

func main() {
	// Initialize structured logging (reads LOGGING_LEVEL env var)
	logging.Initialize()

	// Load configuration
	cfg := config.Load()

	// Error reporting (no-op without a DSN)
	if err := sentry.Init(cfg.SentryDSN, cfg.SentryEnvironment); err != nil {
		slog.Error("failed to initialize sentry", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Secret sealing for stored tokens and API keys
	sealer, err := crypto.NewSealer(cfg.AppSecret)
	if err != nil {
		slog.Error("failed to initialize sealer", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database
	sqlDB, err := database.New(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer sqlDB.Close()

	// Run migrations
	if err := database.RunMigrations(sqlDB); err != nil {
		slog.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Create router
	r := router.New(cfg, store.New(sqlDB), sealer)

	// Start server
	addr := ":" + cfg.Port
	slog.Info("starting server", slog.String("addr", addr))

	if err := http.ListenAndServe(addr, r); err != nil {
		slog.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
