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

	"github.com/JonMunkholm/prospect-crm/internal/config"
	"github.com/JonMunkholm/prospect-crm/internal/core"
	"github.com/JonMunkholm/prospect-crm/internal/logging"
	"github.com/JonMunkholm/prospect-crm/internal/metrics"
	"github.com/JonMunkholm/prospect-crm/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()
	m := metrics.New()

	stores, err := openStores(ctx, cfg, m)
	if err != nil {
		logger.Error("failed to open stores", "error", err)
		os.Exit(1)
	}
	defer stores.Close()

	service, err := core.NewService(ctx, stores.prospects, stores.mappings, core.Options{
		MaxFileBytes: cfg.Import.MaxFileSize,
		CommitWait:   cfg.Import.CommitWait,
		SessionTTL:   cfg.Import.SessionTTL,
		Logger:       logger,
		Metrics:      m,
	})
	if err != nil {
		logger.Error("failed to create service", "error", err)
		os.Exit(1)
	}
	logger.Info("prospects loaded", "count", len(service.Prospects()))

	server := web.NewServer(service, cfg, m, stores.Ping)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Stop accepting requests, then let an in-flight commit finish
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}

		gate := service.Gate()
		if active := gate.ActiveCount(); active > 0 {
			logger.Info("waiting for commit to complete", "active", active)
			start := time.Now()
			if err := gate.WaitForDrain(shutdownCtx); err != nil {
				logger.Warn("commit did not complete in time", "error", err)
			} else {
				logger.Info("commit completed", "waited", time.Since(start))
			}
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
	logger.Info("server stopped")
}
