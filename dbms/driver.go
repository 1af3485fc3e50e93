// Package dbms defines the driver abstraction the deployment side of
// warden is built against: a process-wide registry of named driver
// factories, each producing a Driver capable of opening Connections.
package dbms

import (
	"math/big"
	"sync"

	"github.com/dnsl48/warden/migrate"
)

// Driver scaffolds new migration trees and opens connections for a
// particular RDBMS.
type Driver interface {
	Name() string

	// CreateInitialMigration materializes a first migration tree into folder.
	CreateInitialMigration(folder string) error

	// OpenConnection opens a new connection to the database at url.
	OpenConnection(url string) (Connection, error)
}

// Connection is a live database connection capable of inspecting and
// deploying migrations transactionally.
type Connection interface {
	// Catalog identifies the current database catalog.
	Catalog() string

	// LastDeployedMigration returns the highest deployed migration id, or
	// nil if the database has not been initialized for this tool.
	LastDeployedMigration() (*big.Int, error)

	// Deploy transactionally deploys meta: if the database is not yet
	// initialized and meta's id is the zero migration, it executes the
	// target SQL and registers it; if not initialized and meta's id is
	// non-zero, it fails with migrate.KindNotInitialized; otherwise it
	// opens a transaction, registers the migration (snapshot, seal,
	// source text) and executes the deploy call in the same transaction.
	Deploy(meta migrate.Meta) error

	// Close releases the connection's resources.
	Close() error
}

// Factory names and constructs Driver instances.
type Factory interface {
	Name() string
	New() Driver
}

var (
	registryMu sync.Mutex
	registry   []Factory
)

// Register adds factory to the process-wide driver registry.
func Register(factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = append(registry, factory)
}

// Lookup returns a fresh Driver instance for name, or false if no such
// driver was registered.
func Lookup(name string) (Driver, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	for _, f := range registry {
		if f.Name() == name {
			return f.New(), true
		}
	}
	return nil, false
}

// Names returns the names of every registered driver factory, in
// registration order.
func Names() []string {
	registryMu.Lock()
	defer registryMu.Unlock()
	names := make([]string, 0, len(registry))
	for _, f := range registry {
		names = append(names, f.Name())
	}
	return names
}
