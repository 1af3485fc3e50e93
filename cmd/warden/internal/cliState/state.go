// Package cliState persists small pieces of CLI state (the last config
// file a user pointed warden at) across invocations, the same way
// DefaultDir-rooted JSON state files work elsewhere in the ecosystem.
package cliState

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"

	homedir "github.com/mitchellh/go-homedir"
)

// DefaultDir is the directory where warden's CLI state is stored.
const DefaultDir = "~/.warden"

// File is a state file holding a value of type T.
type File[T any] struct {
	// Dir where the file is stored. If empty, DefaultDir is used.
	Dir string
	// Name of the file. Suffixed with .json if it has no extension.
	Name string
}

// Read reads the value from the file system. A missing file yields the
// zero value and a nil error.
func (f File[T]) Read() (v T, err error) {
	path, err := f.Path()
	if err != nil {
		return v, err
	}
	switch buf, err := os.ReadFile(path); {
	case os.IsNotExist(err):
		return newT(v), nil
	case err != nil:
		return v, err
	default:
		err = json.Unmarshal(buf, &v)
		return v, err
	}
}

// Write writes the value to the file system, creating Dir as needed.
func (f File[T]) Write(t T) error {
	buf, err := json.Marshal(t)
	if err != nil {
		return err
	}
	path, err := f.Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0666)
}

// Path returns the path the value is (or would be) stored at.
func (f File[T]) Path() (string, error) {
	name := f.Name
	if filepath.Ext(name) == "" {
		name += ".json"
	}
	if f.Dir != "" {
		return filepath.Join(f.Dir, name), nil
	}
	path, err := homedir.Expand(filepath.Join(DefaultDir, name))
	if err != nil {
		return "", err
	}
	return path, nil
}

func newT[T any](t T) T {
	if rt := reflect.TypeOf(t); rt != nil && rt.Kind() == reflect.Ptr {
		return reflect.New(rt.Elem()).Interface().(T)
	}
	return t
}

// LastConfig is the remembered location of the most recently used
// config.yml, consulted by root.go when --config and WARDEN_CONFIG_FILE
// are both unset.
type LastConfig struct {
	Path string `json:"path"`
}

var lastConfigFile = File[LastConfig]{Name: "last-config"}

// RememberConfig records path as the most recently used config file.
// Failures are swallowed: this is a convenience cache, not load-bearing
// state.
func RememberConfig(path string) {
	_ = lastConfigFile.Write(LastConfig{Path: path})
}

// RecalledConfig returns the most recently used config file path, if
// any was recorded.
func RecalledConfig() string {
	v, err := lastConfigFile.Read()
	if err != nil {
		return ""
	}
	return v.Path
}
