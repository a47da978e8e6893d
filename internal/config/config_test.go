package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MandiZhao/lowvr/internal/errors"
)

// isolate points HOME at an empty directory and moves into a fresh working
// directory so no real config files are picked up.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, CurrentConfigVersion, cfg.Version)
	assert.Equal(t, "./wandb", cfg.WandbDir)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8765, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8765", cfg.Server.Addr())
	assert.Equal(t, 2, cfg.Dashboard.Columns)
	assert.Equal(t, 240, cfg.Dashboard.DefaultHeight)
	assert.Equal(t, 10*time.Second, cfg.Dashboard.Refresh)
	assert.Equal(t, "_step", cfg.Dashboard.XAxisKey)
	assert.Equal(t, 8, cfg.Fetch.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 3, cfg.Fetch.Retries)
	assert.Equal(t, "auto", cfg.Output.Color)

	assert.NoError(t, Validate(cfg))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, ConfigFileName)

	content := `
version: 1
wandb_dir: runs/wandb
server:
  port: 9000
  read_timeout: 5s
dashboard:
  columns: 3
  refresh: 2s
  x_axis_key: iter
  metrics:
    - train/*
    - "**/reward"
fetch:
  remote: http://gpu-box:8765
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "runs/wandb"), cfg.WandbDir, "relative to the config file")
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host, "unset keys keep defaults")
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 3, cfg.Dashboard.Columns)
	assert.Equal(t, 2*time.Second, cfg.Dashboard.Refresh)
	assert.Equal(t, "iter", cfg.Dashboard.XAxisKey)
	assert.Equal(t, []string{"train/*", "**/reward"}, cfg.Dashboard.Metrics)
	assert.Equal(t, "http://gpu-box:8765", cfg.Fetch.Remote)
	assert.Equal(t, 8, cfg.Fetch.Concurrency)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  port: 9000\n"), 0o644))

	t.Setenv("LOWVR_SERVER_PORT", "9100")
	t.Setenv("LOWVR_DASHBOARD_COLUMNS", "4")
	t.Setenv("LOWVR_WANDB_DIR", "/data/wandb")

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Dashboard.Columns)
	assert.Equal(t, "/data/wandb", cfg.WandbDir)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/.lowvr.yaml")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestLoad_InvalidValue(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(configPath, []byte("dashboard:\n  refresh: soon\n"), 0o644))

	_, err := Load(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid config format")
}

func TestFind(t *testing.T) {
	t.Run("explicit path exists", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.yaml")
		require.NoError(t, os.WriteFile(path, []byte("version: 1"), 0o644))

		got, err := Find(path)
		require.NoError(t, err)
		assert.Equal(t, path, got)
	})

	t.Run("explicit path not found", func(t *testing.T) {
		_, err := Find("/nonexistent/config.yaml")
		assert.True(t, errors.IsCode(err, errors.ErrConfig))
	})

	t.Run("current directory", func(t *testing.T) {
		dir := isolate(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("version: 1"), 0o644))

		got, err := Find("")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, ConfigFileName), got)
	})

	t.Run("parent directory", func(t *testing.T) {
		dir := isolate(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("version: 1"), 0o644))
		nested := filepath.Join(dir, "a", "b")
		require.NoError(t, os.MkdirAll(nested, 0o755))
		t.Chdir(nested)

		got, err := Find("")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, ConfigFileName), got)
	})

	t.Run("stops at git root", func(t *testing.T) {
		dir := isolate(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("version: 1"), 0o644))
		repo := filepath.Join(dir, "repo")
		require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0o755))
		t.Chdir(repo)

		got, err := Find("")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("global config", func(t *testing.T) {
		isolate(t)
		home := os.Getenv("HOME")
		global := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		require.NoError(t, os.MkdirAll(filepath.Dir(global), 0o755))
		require.NoError(t, os.WriteFile(global, []byte("version: 1"), 0o644))

		got, err := Find("")
		require.NoError(t, err)
		assert.Equal(t, global, got)
	})
}

func TestLoadOrDefault(t *testing.T) {
	isolate(t)
	t.Setenv("LOWVR_FETCH_CONCURRENCY", "2")

	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, CurrentConfigVersion, cfg.Version)
	assert.Equal(t, "./wandb", cfg.WandbDir)
	assert.Equal(t, 2, cfg.Fetch.Concurrency, "env applies without a file")
}
