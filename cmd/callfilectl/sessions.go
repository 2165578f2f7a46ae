package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"callfile/internal/platform/redis"
	"callfile/internal/session/service"
	"callfile/internal/session/store"
)

var pruneMaxAge time.Duration

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Maintain call session state",
}

var sessionsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete sessions abandoned for longer than --max-age",
	Long: `Delete call sessions whose last update is older than --max-age.
The redis backend expires sessions on its own, so prune reports zero there.`,
	Args: cobra.NoArgs,
	RunE: runSessionsPrune,
}

func init() {
	sessionsPruneCmd.Flags().DurationVar(&pruneMaxAge, "max-age", 0, "abandonment age (defaults to session.abandon_after)")
	sessionsCmd.AddCommand(sessionsPruneCmd)
}

func runSessionsPrune(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	maxAge := pruneMaxAge
	if maxAge <= 0 {
		maxAge = cfg.Session.AbandonAfter
	}
	ctx := cmd.Context()

	var primary service.Store
	switch cfg.Session.Backend {
	case "postgres":
		db, err := openDB(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		primary = store.NewPostgres(db)
	case "redis":
		rdb, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		primary = store.NewRedis(rdb.Client, cfg.Session.AbandonAfter)
	default:
		return fmt.Errorf("session backend %q lives in the server process; nothing to prune", cfg.Session.Backend)
	}

	n, err := service.New(primary).Prune(ctx, maxAge)
	if err != nil {
		return storeErr(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "pruned %d sessions older than %s\n", n, maxAge)
	return nil
}
