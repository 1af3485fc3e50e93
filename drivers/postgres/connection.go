package postgres

import (
	"database/sql"
	"math/big"
	"os"

	"github.com/dnsl48/warden/migrate"
)

// Connection is the PostgreSQL implementation of dbms.Connection.
type Connection struct {
	db          *sql.DB
	catalog     string
	initialised bool
}

func open(url string) (*Connection, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, dbmsError("", err)
	}
	if err := db.Ping(); err != nil {
		return nil, dbmsError("", err)
	}

	if _, err := db.Exec(`select set_config('application_name', 'warden', false)`); err != nil {
		return nil, dbmsError("", err)
	}

	var catalog string
	if err := db.QueryRow(`select current_database()`).Scan(&catalog); err != nil {
		return nil, dbmsError("current_database", err)
	}

	initialised, err := isInitialised(db, catalog)
	if err != nil {
		return nil, err
	}

	return &Connection{db: db, catalog: catalog, initialised: initialised}, nil
}

func isInitialised(db dbExecer, catalog string) (bool, error) {
	const q = `select count(*) = 1
		from information_schema.tables
		where table_catalog = $1 and table_schema = 'warden' and table_name = 'migration'`
	var ok bool
	if err := db.QueryRow(q, catalog).Scan(&ok); err != nil {
		return false, dbmsError("information_schema", err)
	}
	return ok, nil
}

// dbExecer is the subset of *sql.DB / *sql.Tx this package needs, so
// isInitialised can run against either.
type dbExecer interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}

func (c *Connection) Catalog() string { return c.catalog }

func (c *Connection) LastDeployedMigration() (*big.Int, error) {
	if !c.initialised {
		return nil, nil
	}

	var decimal string
	err := c.db.QueryRow(`select coalesce(warden.get_latest_deployed_migration(), -1)::text`).Scan(&decimal)
	if err != nil {
		return nil, dbmsError("get_latest_deployed_migration", err)
	}
	if decimal == "-1" {
		return nil, nil
	}

	id, ok := new(big.Int).SetString(decimal, 10)
	if !ok {
		return nil, dbmsError("get_latest_deployed_migration", nil)
	}
	return id, nil
}

// Deploy transactionally registers and deploys meta, per spec.md §4.10.
func (c *Connection) Deploy(meta migrate.Meta) error {
	id, ok := meta.Identity.ID()
	if !ok {
		return dbmsError("could not decode migration id", nil)
	}

	if !c.initialised {
		if id.Sign() == 0 {
			return c.deployInitial(meta, id)
		}
		return &migrate.Error{Kind: migrate.KindNotInitialized, Where: meta.Identity.String()}
	}

	tx, err := c.db.Begin()
	if err != nil {
		return dbmsError("", err)
	}

	if err := c.registerMigration(tx, meta, id); err != nil {
		tx.Rollback()
		return err
	}
	if err := doDeployMigration(tx, id); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return dbmsError("", err)
	}
	c.initialised = true
	return nil
}

func (c *Connection) deployInitial(meta migrate.Meta, id *big.Int) error {
	sql, err := os.ReadFile(meta.Target)
	if err != nil {
		return &migrate.Error{Kind: migrate.KindIO, Where: meta.Target, Err: err}
	}

	tx, err := c.db.Begin()
	if err != nil {
		return dbmsError("", err)
	}
	if _, err := tx.Exec(string(sql)); err != nil {
		tx.Rollback()
		return dbmsError("initial migration", err)
	}
	if err := c.registerMigration(tx, meta, id); err != nil {
		tx.Rollback()
		return err
	}
	if err := doDeployMigration(tx, id); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return dbmsError("", err)
	}
	c.initialised = true
	return nil
}

func (c *Connection) registerMigration(tx *sql.Tx, meta migrate.Meta, id *big.Int) error {
	snapshot, err := migrate.Take(meta)
	if err != nil {
		return err
	}
	seal, err := meta.SealMeta.ReadTheSeal()
	if err != nil {
		return err
	}
	source, err := os.ReadFile(meta.Target)
	if err != nil {
		return &migrate.Error{Kind: migrate.KindIO, Where: meta.Target, Err: err}
	}

	return doRegisterMigration(tx, id, meta.Identity.Name, string(source), snapshot, seal)
}

func (c *Connection) Close() error {
	return c.db.Close()
}

func dbmsError(where string, err error) error {
	return &migrate.Error{Kind: migrate.KindDbms, Where: where, Err: err}
}
