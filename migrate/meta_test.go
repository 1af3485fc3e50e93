package migrate_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dnsl48/warden/migrate"
	"github.com/stretchr/testify/require"
)

func newTestMeta(t *testing.T) migrate.Meta {
	t.Helper()
	root := t.TempDir()
	sqlDir := filepath.Join(root, "sql")
	require.NoError(t, os.MkdirAll(sqlDir, 0755))

	source, err := migrate.NewSource(sqlDir)
	require.NoError(t, err)

	meta, err := migrate.CreateMeta(
		filepath.Join(root, "meta.yml"),
		migrate.Identity{UID: "abc123", Name: "init"},
		migrate.SealMeta{File: filepath.Join(root, "seal.yml"), Algo: migrate.DefaultAlgo},
		source,
		filepath.Join(root, "migration.sql"),
	)
	require.NoError(t, err)
	return meta
}

func TestCreateAndOpenMeta(t *testing.T) {
	meta := newTestMeta(t)
	require.FileExists(t, meta.Path)

	reopened, err := migrate.OpenMeta(meta.Path)
	require.NoError(t, err)
	require.Equal(t, meta.Identity, reopened.Identity)
	require.Equal(t, meta.Target, reopened.Target)
	require.Equal(t, meta.Source.Path, reopened.Source.Path)
	require.Equal(t, meta.SealMeta.Algo, reopened.SealMeta.Algo)
}

func TestOpenMetaRejectsUnsupportedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.yml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"99/1\"\n"), 0644))

	_, err := migrate.OpenMeta(path)
	require.Error(t, err)

	var merr *migrate.Error
	require.ErrorAs(t, err, &merr)
	require.Equal(t, migrate.KindUnsupportedVersion, merr.Kind)
}

func TestMetaBaseAndSourceBase(t *testing.T) {
	meta := newTestMeta(t)
	require.Equal(t, filepath.Dir(meta.Path), meta.Base())
	require.Equal(t, meta.Source.Path, meta.SourceBase())
}
