package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bcnelson/apikey-console/internal/api"
	"github.com/bcnelson/apikey-console/internal/config"
	"github.com/bcnelson/apikey-console/internal/logging"
	"github.com/bcnelson/apikey-console/internal/service"
	"github.com/bcnelson/apikey-console/internal/storage/factory"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Setup(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logger := logging.NewLogger("server")

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	loc, _ := cfg.Reconcile.Location()

	// Initialize storage
	store, err := factory.Open(cfg.Store)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to initialize storage")
	}
	defer store.Close()

	console := service.NewConsole(store, service.ConsoleOptions{
		Interval: cfg.Reconcile.Interval,
		Location: loc,
	})
	playground := service.NewPlayground(store, nil)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(console, playground, cfg.HTTP),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := console.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start reconciler")
	}
	defer console.Stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().
			Str("addr", cfg.Server.Addr()).
			Str("store", cfg.Store.Driver).
			Dur("reconcile_interval", cfg.Reconcile.Interval).
			Msg("starting API key console")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		console.Stop()
		store.Close()
		os.Exit(1)
	}

	logger.Info().Msg("server stopped")
}
