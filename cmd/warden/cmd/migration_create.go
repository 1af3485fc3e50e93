package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dnsl48/warden/migrate"
)

var migrationCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new migration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		identity := migrate.NewIdentity(args[0])
		Log.Debug("migration identity", zap.String("identity", identity.String()))

		root := filepath.Join(cfg.Migrations, identity.String())
		if err := os.MkdirAll(root, 0755); err != nil {
			return &migrate.Error{Kind: migrate.KindIO, Where: root, Err: err}
		}

		sqlDir := filepath.Join(root, "sql")
		if err := os.MkdirAll(sqlDir, 0755); err != nil {
			return &migrate.Error{Kind: migrate.KindIO, Where: sqlDir, Err: err}
		}
		source, err := migrate.NewSource(sqlDir)
		if err != nil {
			return err
		}

		metaPath := filepath.Join(root, "meta.yml")
		target := filepath.Join(root, "migration.sql")
		sealMeta := migrate.SealMeta{File: filepath.Join(root, "seal.yml"), Algo: migrate.DefaultAlgo}

		if _, err := migrate.CreateMeta(metaPath, identity, sealMeta, source, target); err != nil {
			return err
		}

		cmd.Printf("Created migration %s\n", identity)
		return nil
	},
}
