package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Feed.FetchTimeout.Std())
	assert.Equal(t, 4*time.Hour, cfg.Sync.FreshnessWindow.Std())
	assert.Equal(t, 240, cfg.Sync.DefaultIntervalMin)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
feed:
  fetch_timeout: 30s
sync:
  freshness_window: 2h
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Feed.FetchTimeout.Std())
	assert.Equal(t, 2*time.Hour, cfg.Sync.FreshnessWindow.Std())
	// Untouched fields keep their defaults.
	assert.Equal(t, "./data", cfg.Storage.DataDir)
	assert.Equal(t, "https://api.allorigins.win/raw?url=", cfg.Feed.RelayURL)
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("STAYSYNC_DATA_DIR", "/var/lib/staysync")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  data_dir: ${STAYSYNC_DATA_DIR}
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/staysync", cfg.Storage.DataDir)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
feed:
  fetch_timeout: soon
`), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}
