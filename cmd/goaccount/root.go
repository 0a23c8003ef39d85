package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the goaccount command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goaccount",
		Short: "goaccount - email-verified accounts and session issuance",
		Long: `goaccount registers accounts behind an emailed one-time code, issues
signed session tokens, and handles password recovery and change.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "YAML config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
