package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.Equal(t, DefaultSQLitePath, cfg.SQLite.Path)
}

func TestLoad(t *testing.T) {
	t.Run("missing file returns defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lore-sharing.yaml")
		data := "server:\n  addr: \":8080\"\nsqlite:\n  path: /tmp/test.db\n"
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Server.Addr)
		assert.Equal(t, "/tmp/test.db", cfg.SQLite.Path)
	})

	t.Run("partial file keeps remaining defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lore-sharing.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.Server.Addr)
		assert.Equal(t, DefaultSQLitePath, cfg.SQLite.Path)
	})

	t.Run("invalid yaml returns error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lore-sharing.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "lore-sharing.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0o644))
		t.Setenv("LORE_SHARING_ADDR", ":7070")
		t.Setenv("LORE_SHARING_SQLITE_PATH", "/tmp/env.db")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":7070", cfg.Server.Addr)
		assert.Equal(t, "/tmp/env.db", cfg.SQLite.Path)
	})
}
