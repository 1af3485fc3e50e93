package cmd

import "github.com/spf13/cobra"

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Prints warden status",
	Args:  cobra.NoArgs,
	RunE:  appStatusCmd.RunE,
}
