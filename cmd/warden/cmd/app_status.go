package cmd

import (
	"math/big"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dnsl48/warden/cmd/warden/internal/grid"
	"github.com/dnsl48/warden/cmd/warden/internal/migrationstatus"
	"github.com/dnsl48/warden/config"
	"github.com/dnsl48/warden/dbms"
)

var (
	keyColour = color.New(color.FgGreen).SprintFunc()
	valColour = color.New(color.FgBlue).SprintFunc()
	errColour = color.New(color.FgRed).SprintFunc()
)

var appStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Prints warden status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		g := &grid.Grid{}
		g.Row("", "")
		g.Row(keyColour("Repo"), valColour(cfg.Repository))
		g.Row(keyColour("Config"), valColour(cfg.ConfigFile))

		conn := reportConnection(g, cfg)
		if conn != nil {
			defer conn.Close()
		}
		if err := reportMigrations(g, cfg, conn); err != nil {
			return err
		}

		g.Row("", "")
		cmd.Print(g.Display())
		return nil
	},
}

func reportConnection(g *grid.Grid, cfg config.Config) dbms.Connection {
	conn, err := cfg.GetDBMSConnection()
	if err != nil {
		g.Row(errColour("Connection error"), errColour(err.Error()))
		return nil
	}
	g.Row(keyColour("Connection"), valColour("working"))
	g.Row(keyColour("Catalog"), valColour(conn.Catalog()))
	return conn
}

func reportMigrations(g *grid.Grid, cfg config.Config, conn dbms.Connection) error {
	statuses, err := migrationstatus.ReadAll(cfg.Migrations)
	if err != nil {
		return err
	}

	var lastDeployed *big.Int
	if conn != nil {
		n, err := conn.LastDeployedMigration()
		if err != nil {
			return err
		}
		lastDeployed = n
	}

	g.Row("", "")
	g.Row("Migrations:", "=============")

	for _, st := range statuses {
		mark := "* "
		if st.Sealed {
			mark = "  "
		}
		name := mark + st.Identity.String()

		status := "[?]"
		if conn != nil {
			status = "[ ]"
			if id, ok := st.Identity.ID(); ok && lastDeployed != nil && lastDeployed.Cmp(id) >= 0 {
				status = "[+]"
			}
		}
		g.Row(name, status)
	}

	return nil
}
