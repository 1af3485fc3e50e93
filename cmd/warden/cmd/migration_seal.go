package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dnsl48/warden/migrate"
)

var migrationSealSkipRebuild bool

var migrationSealCmd = &cobra.Command{
	Use:   "seal [pattern]",
	Short: "Seal up a migration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		pattern := ""
		if len(args) > 0 {
			pattern = args[0]
		}

		meta, err := migrate.Lookup(cfg.Migrations, pattern)
		if err != nil {
			return err
		}
		Log.Info("found migration", zap.String("identity", meta.Identity.String()))

		if err := migrate.Seal(meta, migrationSealSkipRebuild); err != nil {
			return err
		}

		cmd.Printf("Sealed migration: %s\n", meta.Identity)
		return nil
	},
}

func init() {
	migrationSealCmd.Flags().BoolVarP(&migrationSealSkipRebuild, "skip-rebuild", "s", false, "do not rebuild the migration if it already exists")
}
