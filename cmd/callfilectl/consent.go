package main

import (
	"github.com/spf13/cobra"

	callermodels "callfile/internal/caller/models"
	"callfile/internal/consent/store"
)

var consentCmd = &cobra.Command{
	Use:   "consent",
	Short: "Inspect the consent log",
}

var consentHistoryCmd = &cobra.Command{
	Use:   "history <phone>",
	Short: "Print every consent decision recorded for a phone number, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runConsentHistory,
}

func init() {
	consentCmd.AddCommand(consentHistoryCmd)
}

func runConsentHistory(cmd *cobra.Command, args []string) error {
	phone, err := callermodels.ParsePhone(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pool, err := openPool(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	records, err := store.NewPostgres(pool).ListByPhone(cmd.Context(), phone)
	if err != nil {
		return storeErr(err)
	}
	return printJSON(cmd.OutOrStdout(), records)
}
