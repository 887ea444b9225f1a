package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("reads values from file", func(t *testing.T) {
		dir := t.TempDir()
		content := `
[git]
default_branch = "trunk"
max_commits = 500

[watch]
enabled = false
debounce_ms = 100
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0600))

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "trunk", cfg.Git.DefaultBranch)
		assert.Equal(t, 500, cfg.Git.MaxCommits)
		assert.False(t, cfg.Watch.Enabled)
		assert.Equal(t, 100*time.Millisecond, cfg.DebounceWindow())
	})

	t.Run("partial file keeps defaults for the rest", func(t *testing.T) {
		dir := t.TempDir()
		content := `
[git]
max_commits = 50
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0600))

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, 50, cfg.Git.MaxCommits)
		assert.Equal(t, "main", cfg.Git.DefaultBranch)
		assert.True(t, cfg.Watch.Enabled)
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("not [valid toml"), 0600))

		_, err := Load(dir)
		require.Error(t, err)
	})

	t.Run("negative values are rejected", func(t *testing.T) {
		dir := t.TempDir()
		content := `
[git]
max_commits = -1
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0600))

		_, err := Load(dir)
		require.Error(t, err)
	})
}

func TestLoadOrDefault(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("not [valid toml"), 0600))

	cfg := LoadOrDefault(dir)
	assert.Equal(t, Default(), cfg)
}

func TestSave(t *testing.T) {
	dir := t.TempDir()

	cfg := Default()
	cfg.Git.MaxCommits = 42
	cfg.Watch.DebounceMillis = 500

	require.NoError(t, Save(dir, cfg))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
