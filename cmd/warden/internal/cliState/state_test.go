package cliState_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dnsl48/warden/cmd/warden/internal/cliState"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/require"
)

func TestFile(t *testing.T) {
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })

	type T struct{ V string }
	f := cliState.File[T]{Name: "test", Dir: t.TempDir()}
	v, err := f.Read()
	require.NoError(t, err)
	require.Equal(t, T{}, v)
	require.NoError(t, f.Write(T{V: "v"}))
	v, err = f.Read()
	require.NoError(t, err)
	require.Equal(t, T{V: "v"}, v)

	home := t.TempDir()
	t.Setenv("HOME", home)
	f = cliState.File[T]{Name: "t"}
	_, err = f.Read()
	require.NoError(t, err)
	dirs, err := os.ReadDir(home)
	require.NoError(t, err)
	require.Empty(t, dirs)

	require.NoError(t, f.Write(T{V: "v"}))
	dirs, err = os.ReadDir(home)
	require.NoError(t, err)
	require.Len(t, dirs, 1)
	require.Equal(t, ".warden", dirs[0].Name())
	dirs, err = os.ReadDir(filepath.Join(home, ".warden"))
	require.NoError(t, err)
	require.Len(t, dirs, 1)
	require.Equal(t, "t.json", dirs[0].Name())
	v, err = f.Read()
	require.NoError(t, err)
	require.Equal(t, T{V: "v"}, v)
}

func TestRememberAndRecallConfig(t *testing.T) {
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })
	t.Setenv("HOME", t.TempDir())

	require.Equal(t, "", cliState.RecalledConfig())
	cliState.RememberConfig("/tmp/project/.warden/config.yml")
	require.Equal(t, "/tmp/project/.warden/config.yml", cliState.RecalledConfig())
}
