package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dnsl48/warden/config"
	"github.com/dnsl48/warden/migrate"
)

var appCreateCmd = &cobra.Command{
	Use:   "create <driver> <path>",
	Short: "Create a new application",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		driver, path := args[0], args[1]

		root, err := migrate.Normalise(path)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(root, 0755); err != nil {
			return &migrate.Error{Kind: migrate.KindIO, Where: root, Err: err}
		}

		Log.Debug("creating app", zap.String("root", root), zap.String("driver", driver))

		cfg, err := createApp(driver, root)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(cfg.Migrations, 0755); err != nil {
			return &migrate.Error{Kind: migrate.KindIO, Where: cfg.Migrations, Err: err}
		}

		Log.Debug("creating initial migration", zap.String("driver", driver))
		if err := cfg.Driver.CreateInitialMigration(cfg.Migrations); err != nil {
			return err
		}

		cmd.Printf("Created application at %s\n", root)
		return nil
	},
}

func createApp(driver, root string) (config.Config, error) {
	wardenDir := filepath.Join(root, ".warden")
	if err := os.MkdirAll(wardenDir, 0755); err != nil {
		return config.Config{}, &migrate.Error{Kind: migrate.KindIO, Where: wardenDir, Err: err}
	}

	configPath := filepath.Join(wardenDir, "config.yml")
	if _, err := os.Stat(configPath); err == nil {
		Log.Warn("config already exists", zap.String("path", configPath))
		return config.Open(configPath)
	}

	content, err := config.GenerateInitial(driver)
	if err != nil {
		return config.Config{}, err
	}
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return config.Config{}, &migrate.Error{Kind: migrate.KindIO, Where: configPath, Err: err}
	}

	return config.Open(configPath)
}
