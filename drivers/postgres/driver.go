// Package postgres implements the dbms driver abstraction against
// PostgreSQL, grounded on the warden schema bootstrap and registration
// procedures (warden.migration, warden.do_register_migration,
// warden.do_deploy_migration).
package postgres

import (
	"embed"
	"os"
	"path/filepath"

	"github.com/dnsl48/warden/dbms"
	"github.com/dnsl48/warden/migrate"

	_ "github.com/lib/pq"
)

// Name is the driver's registered name, used as the "driver" field in
// config.yml.
const Name = "postgresql"

//go:embed initial
var initialMigration embed.FS

// Driver is the PostgreSQL implementation of dbms.Driver.
type Driver struct{}

func (Driver) Name() string { return Name }

// CreateInitialMigration materializes the zero migration - schema
// bootstrap plus the tracking tables and stored procedures the
// Connection relies on - into folder/000000--warden-init.
func (Driver) CreateInitialMigration(folder string) error {
	id := migrate.Identity{UID: "000000", Name: "warden-init"}
	folder = filepath.Join(folder, id.String())
	sourceDir := filepath.Join(folder, "source")

	entries, err := initialMigration.ReadDir("initial")
	if err != nil {
		return &migrate.Error{Kind: migrate.KindIO, Where: "initial", Err: err}
	}
	if err := os.MkdirAll(sourceDir, 0755); err != nil {
		return &migrate.Error{Kind: migrate.KindIO, Where: sourceDir, Err: err}
	}
	for _, e := range entries {
		content, err := initialMigration.ReadFile(filepath.Join("initial", e.Name()))
		if err != nil {
			return &migrate.Error{Kind: migrate.KindIO, Where: e.Name(), Err: err}
		}
		dest := filepath.Join(sourceDir, e.Name())
		if err := os.WriteFile(dest, content, 0644); err != nil {
			return &migrate.Error{Kind: migrate.KindIO, Where: dest, Err: err}
		}
	}

	source, err := migrate.NewSource(sourceDir)
	if err != nil {
		return err
	}
	target := filepath.Join(folder, "migration.sql")
	sealFile := filepath.Join(folder, "seal.yml")
	metaPath := filepath.Join(folder, "meta.yml")

	_, err = migrate.CreateMeta(metaPath, id, migrate.SealMeta{File: sealFile, Algo: migrate.DefaultAlgo}, source, target)
	return err
}

// OpenConnection opens a new PostgreSQL connection at url.
func (Driver) OpenConnection(url string) (dbms.Connection, error) {
	return open(url)
}

// Factory constructs fresh Driver instances for the dbms registry.
type Factory struct{}

func (Factory) Name() string     { return Name }
func (Factory) New() dbms.Driver { return Driver{} }

func init() {
	dbms.Register(Factory{})
}
