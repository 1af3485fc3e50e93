package config

import (
	"bytes"

	"github.com/dnsl48/warden/dbms"
	"github.com/dnsl48/warden/migrate"
	"gopkg.in/yaml.v3"
)

// MigrationsRelpath is the default "migrations" path written into a
// freshly generated config file.
const MigrationsRelpath = "../migrations"

type generatedConnection struct{}

func (generatedConnection) MarshalYAML() (interface{}, error) {
	return &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!env",
		Value: "DATABASE_URL",
	}, nil
}

type generatedDoc struct {
	Connection generatedConnection `yaml:"connection"`
	Repository string              `yaml:"repository"`
	Migrations string              `yaml:"migrations"`
	Driver     string              `yaml:"driver"`
}

// GenerateInitial renders the initial config.yml content for driverName,
// scaffolded by "app create" (spec.md §6, "app create"). It fails with
// KindUnknownDriver if driverName is not registered.
func GenerateInitial(driverName string) ([]byte, error) {
	if _, ok := dbms.Lookup(driverName); !ok {
		return nil, newConfigError(migrate.KindUnknownDriver, driverName, nil)
	}

	doc := generatedDoc{
		Connection: generatedConnection{},
		Repository: "..",
		Migrations: MigrationsRelpath,
		Driver:     driverName,
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	if err := enc.Encode(versionDoc{Version: migrate.CurrentFormatVersion}); err != nil {
		return nil, err
	}
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
