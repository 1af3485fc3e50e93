package migrate

import (
	"os"
	"path/filepath"
)

// Source is the tagged "file-or-dir" variant of a migration's patch
// source tree (spec.md §9, "The file-or-dir source"). Base gives the
// directory patches resolve against, whichever variant it is.
type Source struct {
	// Path is the absolute path of the source (a single .sql file, or a directory).
	Path string
	// IsDir reports whether Path is a directory tree rather than a single file.
	IsDir bool
}

// NewSource resolves path (already absolute) into a Source, inspecting the
// filesystem to decide whether it is a file or a directory.
func NewSource(path string) (Source, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return Source{}, newError(KindIO, path, err)
	}
	return Source{Path: path, IsDir: fi.IsDir()}, nil
}

// Base returns the directory patches are resolved relative to: the source
// itself if it is a directory, or its parent if it is a single file.
func (s Source) Base() string {
	if s.IsDir {
		return s.Path
	}
	return filepath.Dir(s.Path)
}
