package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/lossyrob/arturo-stac-api/internal/config"
	tern "github.com/jackc/tern/v2/migrate"
	"github.com/rs/zerolog"
)

// Embed all SQL files under migrations/ at compile time, so the binary
// carries its schema and containers need no filesystem mount.
//
//go:embed migrations/*.sql
var migrations embed.FS

// Migrate brings the database schema to the latest version.
//
// It connects to the writer endpoint, waiting for it with the readiness
// probe: the migration container typically races the database container,
// and retrying here is what makes that race harmless. Re-running against
// an up-to-date schema is a no-op.
func Migrate(ctx context.Context, logger *zerolog.Logger, cfg *config.Config) error {
	conn, err := WaitConnect(ctx, logger, cfg.Postgres.WriterDSN(), cfg.Postgres.WaitTimeout)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	// Migration state lives in the schema_version table.
	m, err := tern.NewMigrator(ctx, conn, "schema_version")
	if err != nil {
		return fmt.Errorf("constructing database migrator: %w", err)
	}

	subtree, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("retrieving database migrations subtree: %w", err)
	}

	if err := m.LoadMigrations(subtree); err != nil {
		return fmt.Errorf("loading database migrations: %w", err)
	}

	from, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("retrieving current database migration version: %w", err)
	}

	if err := m.Migrate(ctx); err != nil {
		return err
	}

	if from == int32(len(m.Migrations)) {
		logger.Info().Msgf("database schema up to date, version %d", len(m.Migrations))
	} else {
		logger.Info().Msgf("migrated database schema, from %d to %d", from, len(m.Migrations))
	}
	return nil
}
