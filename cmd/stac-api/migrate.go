package main

import (
	"fmt"

	"github.com/lossyrob/arturo-stac-api/internal/config"
	"github.com/lossyrob/arturo-stac-api/internal/database"
	"github.com/lossyrob/arturo-stac-api/internal/logger"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Waits for the database to accept connections, then applies every
pending schema migration on the writer endpoint. Safe to run on every
deploy; an up-to-date schema is a no-op.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			log := logger.New(cfg.LogLevel, cfg.DevMode())

			return database.Migrate(cmd.Context(), &log, cfg)
		},
	}
}
