package dbms_test

import (
	"math/big"
	"testing"

	"github.com/dnsl48/warden/dbms"
	"github.com/dnsl48/warden/migrate"
	"github.com/stretchr/testify/require"
)

type fakeConnection struct{ closed bool }

func (c *fakeConnection) Catalog() string                         { return "fake" }
func (c *fakeConnection) LastDeployedMigration() (*big.Int, error) { return nil, nil }
func (c *fakeConnection) Deploy(meta migrate.Meta) error           { return nil }
func (c *fakeConnection) Close() error                             { c.closed = true; return nil }

type fakeDriver struct{}

func (fakeDriver) Name() string                         { return "faketest" }
func (fakeDriver) CreateInitialMigration(string) error  { return nil }
func (fakeDriver) OpenConnection(string) (dbms.Connection, error) {
	return &fakeConnection{}, nil
}

type fakeFactory struct{}

func (fakeFactory) Name() string      { return "faketest" }
func (fakeFactory) New() dbms.Driver { return fakeDriver{} }

func TestRegisterAndLookup(t *testing.T) {
	dbms.Register(fakeFactory{})

	driver, ok := dbms.Lookup("faketest")
	require.True(t, ok)
	require.Equal(t, "faketest", driver.Name())

	require.Contains(t, dbms.Names(), "faketest")

	_, ok = dbms.Lookup("does-not-exist")
	require.False(t, ok)
}
