package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/dftlab/internal/config"
	"github.com/JonMunkholm/dftlab/internal/core"
	"github.com/JonMunkholm/dftlab/internal/logging"
	"github.com/JonMunkholm/dftlab/internal/transform"
	"github.com/JonMunkholm/dftlab/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	service := core.NewService(core.Options{
		MaxFileSize:   cfg.Ingest.MaxFileSize,
		MaxConcurrent: cfg.Ingest.MaxConcurrent,
		MaxWait:       cfg.Ingest.MaxWait,
		Strict:        cfg.Ingest.Strict,
	})

	runner, err := transform.NewRunner(service.Workspace(), cfg.Transform.Flat, cfg.Transform.Grid)
	if err != nil {
		slog.Error("failed to configure transforms", "error", err)
		os.Exit(1)
	}
	slog.Info("transforms registered", "count", len(transform.All()),
		"flat", cfg.Transform.Flat, "grid", cfg.Transform.Grid)

	server := web.NewServer(service, cfg)

	// Background transform stage
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go func() {
		if err := runner.Run(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("transform runner stopped", "error", err)
		}
	}()

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for ingests to complete", "active", status.Active)
			if err := service.WaitForIngests(shutdownCtx); err != nil {
				slog.Warn("ingests did not complete in time", "error", err)
			} else {
				slog.Info("all ingests completed")
			}
		}

		cancelJobs()
		// Closing the workspace ends open event streams.
		service.Close()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-stopped
	slog.Info("server stopped")
}
