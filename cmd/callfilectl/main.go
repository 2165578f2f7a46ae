// Command callfilectl runs operator tasks against the callfile stores.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"callfile/internal/platform/config"
	"callfile/internal/platform/postgres"
)

var (
	configPath string
	version    = "dev"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "callfilectl",
	Short: "Operator commands for the callfile service",
	Long: `callfilectl inspects and maintains the stores behind the callfile service.
It reads the same configuration file and CALLFILE_* environment variables as the server.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CALLFILE_CONFIG"), "path to YAML config file")
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(callerCmd)
	rootCmd.AddCommand(consentCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func loadConfig() (config.Config, error) {
	return config.LoadFile(configPath)
}

var errNoDatabase = errors.New("database.url is not configured")

func openDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, errNoDatabase
	}
	return db, nil
}

func openPool(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	pool, err := postgres.OpenPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, errNoDatabase
	}
	return pool, nil
}

// storeErr points the operator at migrate when the schema is missing.
func storeErr(err error) error {
	if postgres.IsUndefinedTable(err) {
		return fmt.Errorf("%w (run `callfilectl migrate` first)", err)
	}
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
