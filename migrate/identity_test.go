package migrate_test

import (
	"testing"

	"github.com/dnsl48/warden/migrate"
	"github.com/stretchr/testify/require"
)

func TestIdentityStringAndParse(t *testing.T) {
	id := migrate.Identity{UID: "abc123", Name: "add-users-table"}
	require.Equal(t, "abc123--add-users-table", id.String())

	parsed, err := migrate.ParseIdentity(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestParseIdentityNameContainingDoubleDash(t *testing.T) {
	parsed, err := migrate.ParseIdentity("abc123--step--one")
	require.NoError(t, err)
	require.Equal(t, "abc123", parsed.UID)
	require.Equal(t, "step--one", parsed.Name)
}

func TestParseIdentityMissingSeparator(t *testing.T) {
	_, err := migrate.ParseIdentity("not-a-valid-identity")
	require.Error(t, err)

	var merr *migrate.Error
	require.ErrorAs(t, err, &merr)
	require.Equal(t, migrate.KindInvalidIdentity, merr.Kind)
}

func TestIdentityID(t *testing.T) {
	id := migrate.NewIdentity("something")
	n, ok := id.ID()
	require.True(t, ok)
	require.NotNil(t, n)

	bad := migrate.Identity{UID: "!!!", Name: "x"}
	_, ok = bad.ID()
	require.False(t, ok)
}

func TestNewIdentityUIDLength(t *testing.T) {
	id := migrate.NewIdentity("x")
	require.GreaterOrEqual(t, len(id.UID), 6)
}
