package migrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// errStopWalk is an internal sentinel used to short-circuit
// ForeachMigrationSorted once a caller has found what it needs.
var errStopWalk = errors.New("stop")

// ForeachMigrationSorted visits every immediate subdirectory of folder in
// name order, calling fn for each. fn's error aborts the walk.
func ForeachMigrationSorted(folder string, fn func(dirName string) error) error {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return newError(KindIO, folder, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if err := fn(name); err != nil {
			return err
		}
	}
	return nil
}

// LookupPattern resolves a user-supplied pattern against the migration
// directories under folder to a single Identity. A pattern matches either
// a uid prefix or an exact name suffix; an ambiguous name match (more than
// one directory) fails to resolve, same as no match at all.
func LookupPattern(folder, pattern string) (Identity, bool) {
	var result Identity
	found := false

	ForeachMigrationSorted(folder, func(name string) error {
		id, err := ParseIdentity(name)
		if err != nil {
			return nil
		}

		if strings.HasPrefix(name, pattern) && strings.HasPrefix(name[len(pattern):], "--") {
			result, found = id, true
			return errStopWalk
		}

		if ix := strings.Index(name, "--"); ix >= 0 && name[ix+2:] == pattern {
			if found {
				found = false
				return errStopWalk
			}
			result, found = id, true
		}
		return nil
	})

	return result, found
}

// Lookup resolves a migration to build or seal: if pattern is non-empty it
// is matched via LookupPattern, otherwise the single unsigned migration
// under folder is used. More than one unsigned migration, or no match at
// all, is an error.
func Lookup(folder, pattern string) (Meta, error) {
	if pattern != "" {
		id, ok := LookupPattern(folder, pattern)
		if !ok {
			return Meta{}, newError(KindMissingField, pattern, fmt.Errorf("could not determine the migration with pattern %q", pattern))
		}
		return OpenMeta(filepath.Join(folder, id.String(), "meta.yml"))
	}

	ids, err := LookupUnsigned(folder)
	if err != nil {
		return Meta{}, err
	}
	switch len(ids) {
	case 0:
		return Meta{}, newError(KindMissingField, folder, fmt.Errorf("could not find unsigned migrations"))
	case 1:
		return OpenMeta(filepath.Join(folder, ids[0].String(), "meta.yml"))
	default:
		msg := "you have several unsigned migrations:"
		for _, id := range ids {
			msg += "\n - " + id.String()
		}
		return Meta{}, newError(KindMissingField, folder, fmt.Errorf(msg))
	}
}

// LookupUnsigned returns the Identity of every migration directory under
// folder whose seal file does not yet exist on disk.
func LookupUnsigned(folder string) ([]Identity, error) {
	var result []Identity

	err := ForeachMigrationSorted(folder, func(name string) error {
		metaPath := filepath.Join(folder, name, "meta.yml")
		m, err := OpenMeta(metaPath)
		if err != nil {
			return nil
		}
		if _, err := os.Stat(m.SealMeta.File); err != nil {
			result = append(result, m.Identity)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
