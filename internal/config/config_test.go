package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5001, cfg.Server.Port)
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.Metadata.TMDB.BaseURL)
	assert.Equal(t, "https://www.lddb.com", cfg.Metadata.LDDB.BaseURL)
	assert.Equal(t, 250, cfg.Backfill.ItemDelayMs)
	assert.False(t, cfg.Backfill.Enabled)

	require.Len(t, cfg.Metadata.Barcode.Registries, 1)
	assert.Equal(t, "upcitemdb", cfg.Metadata.Barcode.Registries[0].Name)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CATALOGD_SERVER_PORT", "8080")
	t.Setenv("CATALOGD_METADATA_TMDB_API_KEY", "env-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "env-key", cfg.Metadata.TMDB.APIKey)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  port: 9000
metadata:
  lddb:
    timeout: 30
backfill:
  enabled: true
  batch_size: 5
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Metadata.LDDB.Timeout)
	assert.True(t, cfg.Backfill.Enabled)
	assert.Equal(t, 5, cfg.Backfill.BatchSize)
	// Untouched values keep their defaults.
	assert.Equal(t, "https://www.omdbapi.com/", cfg.Metadata.OMDB.BaseURL)
}

func TestAddress(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "0.0.0.0:5001", cfg.Server.Address())
}
