package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"callfile/internal/caller/models"
	"callfile/internal/caller/store"
	"callfile/pkg/platform/sentinel"
)

var callerCmd = &cobra.Command{
	Use:   "caller",
	Short: "Inspect caller records",
}

var callerShowCmd = &cobra.Command{
	Use:   "show <phone>",
	Short: "Print the stored record for a phone number",
	Example: `  callfilectl caller show +15551234567
  callfilectl caller show "(555) 123-4567"`,
	Args: cobra.ExactArgs(1),
	RunE: runCallerShow,
}

func init() {
	callerCmd.AddCommand(callerShowCmd)
}

func runCallerShow(cmd *cobra.Command, args []string) error {
	phone, err := models.ParsePhone(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	rec, err := store.NewPostgres(db).Get(cmd.Context(), phone)
	if errors.Is(err, sentinel.ErrNotFound) {
		return fmt.Errorf("no caller record for %s", phone)
	}
	if err != nil {
		return storeErr(err)
	}
	return printJSON(cmd.OutOrStdout(), rec)
}
