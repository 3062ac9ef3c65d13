// Package main is the entry point for the stac-api binary. It wires
// the root command with the serve, migrate, and ingest sub-commands
// and executes the CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "stac-api",
		Short: "STAC catalog API backed by PostGIS",
		Long: `stac-api serves a SpatioTemporal Asset Catalog over PostGIS.

Sub-commands cover the full deployment lifecycle: "migrate" applies the
database schema, "ingest joplin" loads the bundled demonstration
dataset, and "serve" runs the HTTP API with its background workers.

All configuration comes from the environment (see .env.example).`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newIngestCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
