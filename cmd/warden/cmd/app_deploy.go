package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dnsl48/warden/cmd/warden/internal/grid"
	"github.com/dnsl48/warden/migrate"
)

func sealed(meta migrate.Meta) bool {
	_, err := os.Stat(meta.SealMeta.File)
	return err == nil
}

var appDeployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy the application",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		conn, err := cfg.GetDBMSConnection()
		if err != nil {
			return err
		}
		defer conn.Close()

		lastDeployed, err := conn.LastDeployedMigration()
		if err != nil {
			return err
		}

		var pending []migrate.Meta
		err = migrate.ForeachMigrationSorted(cfg.Migrations, func(name string) error {
			identity, perr := migrate.ParseIdentity(name)
			if perr != nil {
				return nil
			}
			if lastDeployed != nil {
				if id, ok := identity.ID(); ok && lastDeployed.Cmp(id) >= 0 {
					return nil
				}
			}
			meta, merr := migrate.OpenMeta(filepath.Join(cfg.Migrations, name, "meta.yml"))
			if merr != nil {
				return nil
			}
			if !sealed(meta) {
				return nil
			}
			pending = append(pending, meta)
			return nil
		})
		if err != nil {
			return err
		}

		g := &grid.Grid{}
		for _, meta := range pending {
			uid := meta.Identity.String()
			derr := conn.Deploy(meta)
			status := "[x]"
			if derr != nil {
				status = "[error!]"
			}
			g.Row(" -", uid, status)
			Log.Info("deployed", zap.String("migration", uid), zap.Error(derr))
			if derr != nil {
				cmd.Print(g.Display())
				return derr
			}
		}

		cmd.Print(g.Display())
		return nil
	},
}
