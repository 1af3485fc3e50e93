// Package config loads and resolves warden's YAML configuration file:
// the DBMS connection, repository/migrations paths and driver name a
// deployment run is built against.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dnsl48/warden/dbms"
	"github.com/dnsl48/warden/migrate"
	"gopkg.in/yaml.v3"
)

// EnvOverrideVar names the environment variable that overrides config
// file discovery, per spec.md §6.
const EnvOverrideVar = "WARDEN_CONFIG_FILE"

// Config is a loaded, resolved configuration file.
type Config struct {
	ConfigFile string
	Connection ConnectionRef
	Repository string
	Migrations string
	DriverName string
	Driver     dbms.Driver
}

// ConnectionRef is either a literal connection URL or a reference to an
// environment variable that holds it, distinguished by the YAML node's
// tag ("!env" vs. the default scalar tag) - the Go analogue of the
// original format's tagged-scalar connection field.
type ConnectionRef struct {
	EnvVar string
	URL    string
}

func (c *ConnectionRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!env" {
		c.EnvVar = node.Value
		return nil
	}
	c.URL = node.Value
	return nil
}

// Resolve returns the actual connection URL, reading from the
// environment if the config referenced a variable.
func (c ConnectionRef) Resolve() (string, error) {
	if c.EnvVar != "" {
		v, ok := os.LookupEnv(c.EnvVar)
		if !ok || v == "" {
			return "", fmt.Errorf("environment variable %q is not set", c.EnvVar)
		}
		return v, nil
	}
	return c.URL, nil
}

type configDoc struct {
	Connection ConnectionRef `yaml:"connection"`
	Repository string        `yaml:"repository"`
	Migrations string        `yaml:"migrations"`
	Driver     string        `yaml:"driver"`
}

type versionDoc struct {
	Version migrate.FormatVersion `yaml:"version"`
}

// Load resolves the config file path (explicit path, else
// WARDEN_CONFIG_FILE, else walking up from the current directory for
// ".warden/config.yml") and opens it.
func Load(explicitPath string) (Config, error) {
	path, err := findConfigFile(explicitPath)
	if err != nil {
		return Config{}, err
	}
	return Open(path)
}

func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		return filepath.Abs(explicitPath)
	}
	if v := os.Getenv(EnvOverrideVar); v != "" {
		return filepath.Abs(v)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", newConfigError(migrate.KindIO, "", err)
	}
	if found, ok := lookupWardenConfig(cwd); ok {
		return found, nil
	}
	return "", newConfigError(migrate.KindConfigNotFound, "", nil)
}

func lookupWardenConfig(dir string) (string, bool) {
	for {
		candidate := filepath.Join(dir, ".warden", "config.yml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// Open reads and validates the config file at path.
func Open(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, newConfigError(migrate.KindIO, path, err)
	}

	var vd versionDoc
	if err := yaml.Unmarshal(raw, &vd); err != nil {
		return Config{}, newConfigError(migrate.KindMissingField, path, err)
	}
	if vd.Version != migrate.CurrentFormatVersion {
		return Config{}, newConfigError(migrate.KindUnsupportedVersion, path, nil)
	}

	var docs []configDoc
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	for {
		var d configDoc
		if err := dec.Decode(&d); err != nil {
			break
		}
		docs = append(docs, d)
	}
	if len(docs) == 0 {
		return Config{}, newConfigError(migrate.KindMissingField, path, nil)
	}
	doc := docs[len(docs)-1]

	if doc.Repository == "" {
		return Config{}, newConfigError(migrate.KindMissingField, path+": repository", nil)
	}
	if doc.Migrations == "" {
		return Config{}, newConfigError(migrate.KindMissingField, path+": migrations", nil)
	}
	if doc.Driver == "" {
		return Config{}, newConfigError(migrate.KindMissingField, path+": driver", nil)
	}

	driver, ok := dbms.Lookup(doc.Driver)
	if !ok {
		return Config{}, newConfigError(migrate.KindUnknownDriver, doc.Driver, nil)
	}

	folder := filepath.Dir(path)
	repository := filepath.Clean(filepath.Join(folder, doc.Repository))
	migrations := filepath.Clean(filepath.Join(folder, doc.Migrations))

	return Config{
		ConfigFile: path,
		Connection: doc.Connection,
		Repository: repository,
		Migrations: migrations,
		DriverName: doc.Driver,
		Driver:     driver,
	}, nil
}

// GetDBMSConnection resolves the connection URL and opens it via the
// configured driver.
func (c Config) GetDBMSConnection() (dbms.Connection, error) {
	url, err := c.Connection.Resolve()
	if err != nil {
		return nil, newConfigError(migrate.KindDbms, c.ConfigFile, err)
	}
	return c.Driver.OpenConnection(url)
}

func newConfigError(kind migrate.Kind, where string, err error) error {
	return &migrate.Error{Kind: kind, Where: where, Err: err}
}
