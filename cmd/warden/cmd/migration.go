package cmd

import "github.com/spf13/cobra"

var migrationCmd = &cobra.Command{
	Use:   "migration",
	Short: "Control your migrations",
}

func init() {
	migrationCmd.AddCommand(migrationCreateCmd)
	migrationCmd.AddCommand(migrationBuildCmd)
	migrationCmd.AddCommand(migrationListCmd)
	migrationCmd.AddCommand(migrationSealCmd)
}
