package adapter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.Server.URL, cfg.Server.URL)
	assert.Equal(t, 10*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Connectivity.Interval)
	assert.Equal(t, 3, cfg.Connectivity.ProbeAttempts)
	assert.Equal(t, 4, cfg.Sync.DrainConcurrency)
	assert.Equal(t, "INFO", cfg.Logging.Level)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
server:
  url: https://books.example.com
remote:
  timeout: 3s
connectivity:
  interval: 1m
  probe_attempts: 5
sync:
  drain_concurrency: 8
storage:
  dir: ""
logging:
  level: debug
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://books.example.com", cfg.Server.URL)
	assert.Equal(t, 3*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, time.Minute, cfg.Connectivity.Interval)
	assert.Equal(t, 5, cfg.Connectivity.ProbeAttempts)
	assert.Equal(t, 8, cfg.Sync.DrainConcurrency)
	assert.Empty(t, cfg.Storage.Dir)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SHELF_SERVER_URL", "http://10.0.0.5:9000")
	t.Setenv("SHELF_SYNC_DRAIN_CONCURRENCY", "2")

	cfg, err := LoadConfig(writeConfig(t, "server:\n  url: http://ignored\n"))
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:9000", cfg.Server.URL)
	assert.Equal(t, 2, cfg.Sync.DrainConcurrency)
}

func TestLoadConfig_ExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg, err := LoadConfig(writeConfig(t, "storage:\n  dir: ~/shelf-data\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "shelf-data"), cfg.Storage.Dir)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "server:\n  url: ftp://books\n"))
	assert.ErrorContains(t, err, "server.url")

	_, err = LoadConfig(writeConfig(t, "sync:\n  drain_concurrency: 0\n"))
	assert.ErrorContains(t, err, "drain_concurrency")

	_, err = LoadConfig(writeConfig(t, "server: [unclosed\n"))
	assert.ErrorContains(t, err, "error reading config file")
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.URL = "https://books.example.com"
	cfg.Sync.DrainConcurrency = 6

	path, err := SaveConfig(cfg, t.TempDir())
	require.NoError(t, err)

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Server.URL, loaded.Server.URL)
	assert.Equal(t, 6, loaded.Sync.DrainConcurrency)
	assert.Equal(t, cfg.Remote.Timeout, loaded.Remote.Timeout)
}

func TestClearData(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "abc"), 0755))

	require.NoError(t, ClearData(dir))
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, ClearData(""))
}

func TestSetupLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "shelf.log")
	logger, closer, err := SetupLogger(&LoggingConfig{File: path, Level: "debug"})
	require.NoError(t, err)

	logger.Debug("hello", "id", "b1")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"id":"b1"`)
}

func TestSetupLogger_NoFile(t *testing.T) {
	logger, closer, err := SetupLogger(&LoggingConfig{})
	require.NoError(t, err)
	logger.Info("discarded")
	assert.NoError(t, closer.Close())
}
