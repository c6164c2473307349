package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "recur.db", cfg.Database.Path)
	assert.Equal(t, 8, cfg.Engine.BatchSize)
	assert.Equal(t, 50, cfg.Engine.DefaultCap)
	assert.Equal(t, 7, cfg.Engine.ComplexityThreshold)
	assert.Equal(t, 22, cfg.Engine.ReducedCap)
	assert.Equal(t, 30, cfg.Engine.LookAheadDays)
	assert.Equal(t, 15, cfg.Engine.SweepIntervalMinutes)
	assert.Equal(t, 5, cfg.Engine.HorizonYears)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("RECUR_SERVER_PORT", "9090")
	t.Setenv("RECUR_SERVER_LOG_LEVEL", "debug")
	t.Setenv("RECUR_DATABASE_PATH", "/tmp/recur-test.db")
	t.Setenv("RECUR_ENGINE_DEFAULT_CAP", "10")
	t.Setenv("RECUR_ENGINE_SWEEP_INTERVAL_MINUTES", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "/tmp/recur-test.db", cfg.Database.Path)
	assert.Equal(t, 10, cfg.Engine.DefaultCap)
	assert.Equal(t, 5, cfg.Engine.SweepIntervalMinutes)

	// Untouched keys keep their defaults.
	assert.Equal(t, 22, cfg.Engine.ReducedCap)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 7070
  log_level: warn
engine:
  default_cap: 40
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Server.LogLevel)
	assert.Equal(t, 40, cfg.Engine.DefaultCap)
	assert.Equal(t, 8, cfg.Engine.BatchSize)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7070\n"), 0o600))

	t.Setenv("RECUR_SERVER_PORT", "9191")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("RECUR_SERVER_LOG_LEVEL", "verbose")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
