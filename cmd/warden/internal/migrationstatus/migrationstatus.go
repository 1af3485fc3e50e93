// Package migrationstatus reads every migration under a configuration's
// migrations folder and reports whether each has been sealed, for the
// "app status" / "migration list" presentation layer.
package migrationstatus

import (
	"os"
	"path/filepath"

	"github.com/dnsl48/warden/migrate"
)

// Status is one migration folder's identity plus its sealed state.
type Status struct {
	Identity migrate.Identity
	Sealed   bool
}

// ReadAll walks every immediate subdirectory of migrationsDir in name
// order and reports the Status of each one that parses as a valid,
// readable migration. Unreadable or malformed directories are skipped.
func ReadAll(migrationsDir string) ([]Status, error) {
	var result []Status

	err := migrate.ForeachMigrationSorted(migrationsDir, func(name string) error {
		status, ok := fromDir(filepath.Join(migrationsDir, name))
		if ok {
			result = append(result, status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func fromDir(dir string) (Status, bool) {
	meta, err := migrate.OpenMeta(filepath.Join(dir, "meta.yml"))
	if err != nil {
		return Status{}, false
	}

	if _, ok := meta.Identity.ID(); !ok {
		return Status{}, false
	}

	_, sealErr := os.Stat(meta.SealMeta.File)
	return Status{Identity: meta.Identity, Sealed: sealErr == nil}, true
}
