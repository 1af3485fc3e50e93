package migrate_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dnsl48/warden/migrate"
	"github.com/stretchr/testify/require"
)

func TestNormaliseExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := migrate.Normalise("~/foo/bar")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "foo", "bar"), got)
}

func TestNormaliseCleansRelative(t *testing.T) {
	got, err := migrate.Normalise("./a/../b")
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(got))
	require.Equal(t, "b", filepath.Base(got))
}

func TestRelpathToBase(t *testing.T) {
	require.Equal(t, filepath.Join("..", "sibling", "file.sql"), migrate.RelpathToBase("/a/b/c", "/a/b/sibling/file.sql"))
	require.Equal(t, filepath.Join("c", "file.sql"), migrate.RelpathToBase("/a/b", "/a/b/c/file.sql"))
	require.Equal(t, ".", migrate.RelpathToBase("/a/b", "/a/b"))
}

func TestToUUIDDeterministic(t *testing.T) {
	a := migrate.ToUUID("/abs/path/to/patch.sql")
	b := migrate.ToUUID("/abs/path/to/patch.sql")
	require.Equal(t, a, b)

	c := migrate.ToUUID("/abs/path/to/other.sql")
	require.NotEqual(t, a, c)
}
