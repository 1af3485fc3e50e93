package postgres

import (
	"database/sql"
	"math/big"

	"github.com/dnsl48/warden/migrate"
)

func doRegisterMigration(tx *sql.Tx, id *big.Int, name, source string, snapshot migrate.Snapshot, seal migrate.Seal) error {
	_, err := tx.Exec(
		`select warden.do_register_migration($1::int8, $2, $3, $4, $5, $6, $7, $8)`,
		id.String(),
		name,
		source,
		snapshot.Format,
		snapshot.Data,
		seal.Timestamp,
		seal.Algo.String(),
		seal.Digest,
	)
	if err != nil {
		return dbmsError("do_register_migration", err)
	}
	return nil
}

func doDeployMigration(tx *sql.Tx, id *big.Int) error {
	_, err := tx.Exec(`select warden.do_deploy_migration($1::int8)`, id.String())
	if err != nil {
		return dbmsError("do_deploy_migration", err)
	}
	return nil
}
