package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pinningd/internal/foundation/errors"
)

func TestInit_WritesParsableConfig(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			require.NoError(t, Init(path, false))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			cfg, err := Parse(path, data)
			require.NoError(t, err)
			require.Equal(t, Example().DataDirectory, cfg.DataDirectory)
			require.Equal(t, DefaultDNSProvider, cfg.DNS.Provider)
			require.Equal(t, "${DIGITALOCEAN_TOKEN}", cfg.DNS.Token)
			require.Equal(t, "127.0.0.1:8089", cfg.Admin.Listen)
		})
	}
}

func TestInit_RefusesOverwriteWithoutForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keep: me\n"), 0o600))

	err := Init(path, false)
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))
	data, _ := os.ReadFile(path)
	require.Equal(t, "keep: me\n", string(data))

	require.NoError(t, Init(path, true))
	data, _ = os.ReadFile(path)
	require.Contains(t, string(data), "data_directory")
}
