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
	"time"

	"golang.org/x/sync/errgroup"

	"drip/internal/platform/config"
	"drip/internal/platform/httpserver"
	"drip/internal/platform/logger"
)

// main loads configuration, wires the faucet and serves until SIGINT/SIGTERM.
// Business logic lives in the internal service packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log, closer, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("drip server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	app, err := wire(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.close(log)

	if err := app.bootstrap(ctx, cfg, log); err != nil {
		return err
	}

	srv := httpserver.New(cfg.Server, app.router)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting drip", "addr", cfg.Server.Addr, "storage", cfg.Storage.Driver, "attestation", cfg.Attestation.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	for _, job := range app.background {
		g.Go(func() error { return job(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down drip")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// sweepEvery runs fn on a ticker until ctx ends.
func sweepEvery(interval time.Duration, fn func()) func(context.Context) error {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				fn()
			}
		}
	}
}
