package doctor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func TestConfigCheck(t *testing.T) {
	dir := isolate(t)

	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}

	tests := []struct {
		name   string
		path   string
		status CheckStatus
		msg    string
	}{
		{
			name:   "no config uses defaults",
			status: StatusPass,
			msg:    "using defaults",
		},
		{
			name:   "explicit path missing",
			path:   filepath.Join(dir, "nonexistent.yaml"),
			status: StatusFail,
			msg:    "Error finding config",
		},
		{
			name:   "valid",
			path:   write("valid.yaml", "version: 1\nwandb_dir: ./wandb\ndashboard:\n  columns: 3\n"),
			status: StatusPass,
			msg:    "Config file: valid.yaml",
		},
		{
			name:   "bad yaml",
			path:   write("broken.yaml", "dashboard: [columns\n"),
			status: StatusFail,
			msg:    "Failed to load config",
		},
		{
			name:   "invalid values",
			path:   write("invalid.yaml", "dashboard:\n  columns: 9\n"),
			status: StatusFail,
			msg:    "dashboard.columns",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := (&ConfigCheck{ConfigPath: tt.path}).Run()
			assert.Equal(t, tt.status, result.Status)
			assert.Contains(t, result.Message, tt.msg)
		})
	}

	t.Run("name and category", func(t *testing.T) {
		check := &ConfigCheck{}
		assert.Equal(t, "config", check.Name())
		assert.Equal(t, "CONFIG", check.Category())
	})
}
