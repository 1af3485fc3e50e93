package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dnsl48/warden/dbms"
)

var halpCmd = &cobra.Command{
	Use:   "halp",
	Short: "Get information about warden",
}

var halpDriversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "Show the list of registered DBMS drivers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.Println("Supported drivers:")
		for _, name := range dbms.Names() {
			cmd.Printf(" - %s\n", name)
		}
		return nil
	},
}

func init() {
	halpCmd.AddCommand(halpDriversCmd)
}
