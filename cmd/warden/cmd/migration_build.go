package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dnsl48/warden/migrate"
)

var migrationBuildForce bool

var migrationBuildCmd = &cobra.Command{
	Use:   "build [pattern]",
	Short: "Build migration",
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
		cmd.Printf("Found migration: %s\n", meta.Identity)

		if err := migrate.Build(meta, migrationBuildForce); err != nil {
			return err
		}

		cmd.Printf("Built migration: %s\n", meta.Identity)
		return nil
	},
}

func init() {
	migrationBuildCmd.Flags().BoolVarP(&migrationBuildForce, "force", "f", false, "rewrite the built migration if it exists")
}
