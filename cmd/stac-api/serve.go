package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lossyrob/arturo-stac-api/internal/config"
	"github.com/lossyrob/arturo-stac-api/internal/handler"
	"github.com/lossyrob/arturo-stac-api/internal/logger"
	"github.com/lossyrob/arturo-stac-api/internal/middleware"
	"github.com/lossyrob/arturo-stac-api/internal/repository"
	"github.com/lossyrob/arturo-stac-api/internal/router"
	"github.com/lossyrob/arturo-stac-api/internal/server"
	"github.com/lossyrob/arturo-stac-api/internal/service"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 20 * time.Second

// tokenPurgeSchedule runs the expired-token sweep hourly; tokens only
// need to disappear eventually, precision buys nothing here.
const tokenPurgeSchedule = "17 * * * *"

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the catalog API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.LogLevel, cfg.DevMode())

	s, err := server.New(ctx, cfg, &log)
	if err != nil {
		return err
	}

	repos := repository.NewRepositories(s)
	services := service.NewServices(s, repos)
	middlewares := middleware.NewMiddlewares(s)
	handlers := handler.NewHandlers(s, services)

	e := router.New(middlewares, handlers)
	s.SetupHTTPServer(e)

	if _, err := s.Cron.AddFunc(tokenPurgeSchedule, func() {
		purgeCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		purged, err := repos.Tokens.PurgeExpired(purgeCtx)
		if err != nil {
			log.Error().Err(err).Msg("purging expired pagination tokens")
			return
		}
		if purged > 0 {
			log.Info().Int64("purged", purged).Msg("purged expired pagination tokens")
		}
	}); err != nil {
		return fmt.Errorf("scheduling token purge: %w", err)
	}

	if err := s.StartWorkers(); err != nil {
		return err
	}

	// Run the HTTP server in the background and wait for either a
	// fatal server error or a termination signal.
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info().Msg("shutdown complete")
	return nil
}
