package config

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadRegistry_JSONC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  // projects published every pass
  "active": [
    {"name": "alice", "domain": "alice.example"},
    {"domain": "bob.example"}, /* trailing comma below */
  ],
}`), 0o600))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	require.Len(t, reg.Active, 2)
	require.Equal(t, "alice", reg.Active[0].Name)
	require.Equal(t, "bob.example", reg.Active[1].Domain)
}

func TestLoadProjectConfig(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadProjectConfig(filepath.Join(dir, "config.json"))
	require.Error(t, err)
	require.True(t, stderrors.Is(err, fs.ErrNotExist))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"domain": "alice.example"}`), 0o600))
	pc, err := LoadProjectConfig(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	require.Equal(t, "alice.example", pc.Domain)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{}`), 0o600))
	_, err = LoadProjectConfig(filepath.Join(dir, "config.json"))
	require.Error(t, err)
	require.False(t, stderrors.Is(err, fs.ErrNotExist))
}
