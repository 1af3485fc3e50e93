package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dnsl48/warden/cmd/warden/internal/grid"
	"github.com/dnsl48/warden/cmd/warden/internal/migrationstatus"
)

var migrationListCmd = &cobra.Command{
	Use:   "list",
	Short: "List app migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		statuses, err := migrationstatus.ReadAll(cfg.Migrations)
		if err != nil {
			return err
		}

		g := &grid.Grid{}
		for _, st := range statuses {
			mark := ""
			if !st.Sealed {
				mark = "*"
			}
			g.Row(mark, st.Identity.String(), "[ ]")
		}

		cmd.Println()
		cmd.Print(g.Display())
		return nil
	},
}
