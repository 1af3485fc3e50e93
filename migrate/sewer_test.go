package migrate_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dnsl48/warden/migrate"
	"github.com/stretchr/testify/require"
)

func buildSewerMeta(t *testing.T, sqlFiles map[string]string) migrate.Meta {
	t.Helper()
	root := t.TempDir()
	sqlDir := filepath.Join(root, "sql")
	require.NoError(t, os.MkdirAll(sqlDir, 0755))

	for name, content := range sqlFiles {
		path := filepath.Join(sqlDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	source, err := migrate.NewSource(sqlDir)
	require.NoError(t, err)

	meta, err := migrate.CreateMeta(
		filepath.Join(root, "meta.yml"),
		migrate.Identity{UID: "000001", Name: "test"},
		migrate.SealMeta{File: filepath.Join(root, "seal.yml"), Algo: migrate.DefaultAlgo},
		source,
		filepath.Join(root, "migration.sql"),
	)
	require.NoError(t, err)
	return meta
}

func withRequire(requirement string, body string) string {
	return fmt.Sprintf("-- ---\n-- version: \"1/10\"\n-- ---\n-- require: %q\n\n%s\n", requirement, body)
}

// withRequireNoVersion reproduces spec scenario 2's exact version-less
// header: the version document is optional and inherited from the
// migration meta, so the header carries only a single "---"-bounded
// content document.
func withRequireNoVersion(requirement string, body string) string {
	return fmt.Sprintf("-- ---\n-- require: %q\n-- ---\n\n%s\n", requirement, body)
}

func buildOrderOf(t *testing.T, meta migrate.Meta) []string {
	t.Helper()
	require.NoError(t, migrate.Build(meta, true))
	content, err := os.ReadFile(meta.Target)
	require.NoError(t, err)

	var order []string
	for _, line := range strings.Split(string(content), "\n") {
		if strings.HasPrefix(line, "-- BEGIN: ") {
			order = append(order, strings.TrimPrefix(line, "-- BEGIN: "))
		}
	}
	return order
}

func TestSewageManifestHeaderIsBordered(t *testing.T) {
	meta := buildSewerMeta(t, map[string]string{
		"a.sql": "select 1;",
		"b.sql": "select 2;",
	})

	require.NoError(t, migrate.Build(meta, true))
	content, err := os.ReadFile(meta.Target)
	require.NoError(t, err)

	lines := strings.Split(string(content), "\n")
	require.True(t, len(lines) >= 9)
	require.Equal(t, "-- ---", lines[0])
	require.Equal(t, "-- version: 1/10", lines[1])
	require.Equal(t, "-- --- # border", lines[2])
	require.True(t, strings.HasPrefix(lines[3], "-- timestamp: "))
	require.Equal(t, "-- manifest:", lines[4])

	beginIdx := -1
	for i, line := range lines {
		if strings.HasPrefix(line, "-- BEGIN: ") {
			beginIdx = i
			break
		}
	}
	require.True(t, beginIdx > 0)
	require.Equal(t, "", lines[beginIdx-1])
	require.Equal(t, "-- ---", lines[beginIdx-2])
}

func TestSewerAlphabeticalOrdering(t *testing.T) {
	meta := buildSewerMeta(t, map[string]string{
		"b.sql": "select 2;",
		"a.sql": "select 1;",
	})

	order := buildOrderOf(t, meta)
	require.Equal(t, []string{"a.sql", "b.sql"}, order)
}

func TestSewerExplicitRequirementReordersPatches(t *testing.T) {
	meta := buildSewerMeta(t, map[string]string{
		"a.sql": withRequire("b.sql", "select 1;"),
		"b.sql": "select 2;",
	})

	order := buildOrderOf(t, meta)
	require.Equal(t, []string{"sql/b.sql", "sql/a.sql"}, order)
}

func TestSewerVersionLessHeaderReordersPatches(t *testing.T) {
	meta := buildSewerMeta(t, map[string]string{
		"a.sql": withRequireNoVersion("b.sql", "select 1;"),
		"b.sql": "select 2;",
	})

	order := buildOrderOf(t, meta)
	require.Equal(t, []string{"sql/b.sql", "sql/a.sql"}, order)
}

func TestSewerParentPackageImplicitDependency(t *testing.T) {
	meta := buildSewerMeta(t, map[string]string{
		"group.sql":   "create schema group_schema;",
		"group/a.sql": "select 1;",
	})

	order := buildOrderOf(t, meta)
	require.Equal(t, []string{"sql/group.sql", "sql/group/a.sql"}, order)
}

func TestSewerCycleDetection(t *testing.T) {
	meta := buildSewerMeta(t, map[string]string{
		"a.sql": withRequire("b.sql", "select 1;"),
		"b.sql": withRequire("a.sql", "select 2;"),
	})

	err := migrate.Build(meta, true)
	require.Error(t, err)

	var merr *migrate.Error
	require.ErrorAs(t, err, &merr)
	require.Equal(t, migrate.KindCycleDetected, merr.Kind)
}

func TestSewerUnknownRequirement(t *testing.T) {
	root := t.TempDir()
	sqlDir := filepath.Join(root, "sql")
	require.NoError(t, os.MkdirAll(sqlDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sqlDir, "a.sql"), []byte(withRequire("notes.txt", "select 1;")), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(sqlDir, "notes.txt"), []byte("not a patch"), 0644))

	source, err := migrate.NewSource(sqlDir)
	require.NoError(t, err)
	meta, err := migrate.CreateMeta(
		filepath.Join(root, "meta.yml"),
		migrate.Identity{UID: "000002", Name: "test"},
		migrate.SealMeta{File: filepath.Join(root, "seal.yml"), Algo: migrate.DefaultAlgo},
		source,
		filepath.Join(root, "migration.sql"),
	)
	require.NoError(t, err)

	err = migrate.Build(meta, true)
	require.Error(t, err)

	var merr *migrate.Error
	require.ErrorAs(t, err, &merr)
	require.Equal(t, migrate.KindUnknownRequirement, merr.Kind)
}

func TestSewerMissingRequirement(t *testing.T) {
	meta := buildSewerMeta(t, map[string]string{
		"a.sql": withRequire("does-not-exist.sql", "select 1;"),
	})

	err := migrate.Build(meta, true)
	require.Error(t, err)

	var merr *migrate.Error
	require.ErrorAs(t, err, &merr)
	require.Equal(t, migrate.KindMissingRequirement, merr.Kind)
}

func TestBuildAlreadyBuiltWithoutForce(t *testing.T) {
	meta := buildSewerMeta(t, map[string]string{"a.sql": "select 1;"})
	require.NoError(t, migrate.Build(meta, false))

	err := migrate.Build(meta, false)
	require.Error(t, err)
	var merr *migrate.Error
	require.ErrorAs(t, err, &merr)
	require.Equal(t, migrate.KindAlreadyBuilt, merr.Kind)

	require.NoError(t, migrate.Build(meta, true))
}

func TestSealEndToEnd(t *testing.T) {
	meta := buildSewerMeta(t, map[string]string{"a.sql": "select 1;"})

	require.NoError(t, migrate.Seal(meta, false))
	require.FileExists(t, meta.SealMeta.File)

	seal, err := meta.SealMeta.ReadTheSeal()
	require.NoError(t, err)

	content, err := os.ReadFile(meta.Target)
	require.NoError(t, err)
	require.Equal(t, meta.SealMeta.Algo.Hash(content), seal.Digest)

	err = migrate.Seal(meta, false)
	require.Error(t, err)
	var merr *migrate.Error
	require.ErrorAs(t, err, &merr)
	require.Equal(t, migrate.KindAlreadySealed, merr.Kind)
}
