// Command circadian-stored serves the Circadian record store over a local HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/celerix-dev/circadian-store/internal/api"
	"github.com/celerix-dev/circadian-store/internal/config"
	"github.com/celerix-dev/circadian-store/internal/engine"
	"github.com/celerix-dev/circadian-store/internal/metrics"
	"github.com/celerix-dev/circadian-store/internal/stats"
	"github.com/celerix-dev/circadian-store/pkg/sdk"
	"github.com/gin-gonic/gin"
)

func main() {
	bootLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg, err := config.NewLoader(bootLogger).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Daemon failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	clock, err := cfg.Clock()
	if err != nil {
		return err
	}
	loc, _ := cfg.Location()

	// 1. Open the configured backend
	store, err := sdk.Open(sdk.Backend(cfg.Store.Backend), cfg.StoreLocation(), engine.WithClock(clock))
	if err != nil {
		return fmt.Errorf("open %s store at %s: %w", cfg.Store.Backend, cfg.StoreLocation(), err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close store", slog.String("error", err.Error()))
		}
	}()
	logger.Info("Store opened",
		slog.String("backend", cfg.Store.Backend),
		slog.String("location", cfg.StoreLocation()))

	// 2. Instrument it and build the aggregation engine on top
	m := metrics.New()
	instrumented := metrics.InstrumentStore(store, m)
	h := &api.Handler{
		Store:  instrumented,
		Stats:  stats.New(instrumented, stats.WithClock(clock), stats.WithLocation(loc)),
		Logger: logger,
		Window: cfg.Stats.Window,
	}

	// 3. Serve the HTTP API
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: api.NewRouter(h, m)}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening", slog.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// 4. Handle graceful shutdown
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("Shutdown signal received, draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Shutdown complete")
	return nil
}
