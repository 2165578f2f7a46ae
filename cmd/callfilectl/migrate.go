package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"callfile/internal/platform/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded database schema",
	Long: `Apply every embedded migration in order. Migrations are idempotent,
so running this against an up-to-date database is a no-op.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := postgres.Migrate(cmd.Context(), db)
	if err != nil {
		return err
	}
	for _, name := range applied {
		fmt.Fprintln(cmd.OutOrStdout(), "applied", name)
	}
	return nil
}
