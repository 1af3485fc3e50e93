package migrate

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// RawMap is the unresolved discovery result: every patch found under a
// migration's source, keyed by its deterministic id.
type RawMap struct {
	Patches map[uuid.UUID]RawMapEntry
}

// RawMapEntry pairs a discovered Patch with its RawMeta.
type RawMapEntry struct {
	Patch Patch
	Meta  RawMeta
}

// NewRawMap discovers all patches under meta's source: a single file, or
// every ".sql" file in a directory tree. Each patch's relative path (used
// to seed its weight) is computed relative to meta's own folder, per the
// migration meta file's documented "structure.source" convention.
func NewRawMap(meta Meta) (RawMap, error) {
	relBase := meta.Base()
	if !meta.Source.IsDir {
		return rawMapFromFile(relBase, meta.Source.Path)
	}
	return rawMapFromDir(relBase, meta.Source.Path)
}

func rawMapFromFile(base, file string) (RawMap, error) {
	m := RawMap{Patches: make(map[uuid.UUID]RawMapEntry, 1)}
	entry, err := buildPatch(base, file)
	if err != nil {
		return RawMap{}, err
	}
	m.Patches[entry.Patch.ID] = entry
	return m, nil
}

func rawMapFromDir(relBase, dir string) (RawMap, error) {
	m := RawMap{Patches: make(map[uuid.UUID]RawMapEntry)}

	err := forEachSQLFile(dir, func(path string) error {
		entry, err := buildPatch(relBase, path)
		if err != nil {
			return err
		}
		m.Patches[entry.Patch.ID] = entry
		return nil
	})
	if err != nil {
		return RawMap{}, err
	}
	return m, nil
}

func buildPatch(base, file string) (RawMapEntry, error) {
	raw, err := RawMetaFromFile(base, file)
	if err != nil {
		return RawMapEntry{}, err
	}
	return RawMapEntry{Patch: NewPatch(file), Meta: raw}, nil
}

// forEachSQLFile walks dir, invoking fn for every file with a ".sql"
// extension, in no particular order (ordering is imposed later by weight).
func forEachSQLFile(dir string, fn func(path string) error) error {
	return walkDir(dir, func(path string, isDir bool) error {
		if isDir {
			return nil
		}
		if !strings.HasSuffix(path, ".sql") {
			return nil
		}
		return fn(path)
	})
}

func walkDir(root string, fn func(path string, isDir bool) error) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return newError(KindIO, root, err)
	}
	for _, e := range entries {
		full := filepath.Join(root, e.Name())
		if e.IsDir() {
			if err := fn(full, true); err != nil {
				return err
			}
			if err := walkDir(full, fn); err != nil {
				return err
			}
			continue
		}
		if err := fn(full, false); err != nil {
			return err
		}
	}
	return nil
}
