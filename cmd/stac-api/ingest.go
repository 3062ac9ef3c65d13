package main

import (
	"context"
	"fmt"
	"time"

	"github.com/lossyrob/arturo-stac-api/internal/config"
	"github.com/lossyrob/arturo-stac-api/internal/logger"
	"github.com/lossyrob/arturo-stac-api/internal/repository"
	"github.com/lossyrob/arturo-stac-api/internal/server"
	"github.com/lossyrob/arturo-stac-api/internal/service"
	"github.com/spf13/cobra"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load datasets into the catalog",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "joplin",
		Short: "Load the bundled Joplin, MO demonstration dataset",
		Long: `Loads the Joplin collection and its items, embedded in the binary,
into the catalog in one transaction. Re-running converges on the same
state.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngestJoplin(cmd.Context())
		},
	})

	return cmd
}

func runIngestJoplin(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.LogLevel, cfg.DevMode())

	s, err := server.New(ctx, cfg, &log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Shutdown(closeCtx); err != nil {
			log.Warn().Err(err).Msg("closing connections")
		}
	}()

	repos := repository.NewRepositories(s)
	services := service.NewServices(s, repos)

	return services.Ingest.LoadJoplin(ctx)
}
