package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/config"
	"fintrack/internal/store"
	"fintrack/internal/store/file"
	"fintrack/internal/store/memory"
	"fintrack/internal/store/sqlite"
)

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{DataBackend: "file", DataDir: "/var/lib/fintrack"})
	require.NoError(t, err)
	assert.Equal(t, FileBackend, cfg.Type)
	assert.Equal(t, "/var/lib/fintrack", cfg.DataDirectory)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)

	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{Type: MemoryBackend}.Validate())
	assert.Error(t, Config{Type: FileBackend}.Validate())
	assert.Error(t, Config{Type: SQLiteBackend}.Validate())
	assert.Error(t, Config{Type: "postgres"}.Validate())
	assert.Equal(t, []string{"memory", "file", "sqlite"}, GetBackendTypeStrings())
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	t.Run("memory seeds categories", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte("Rent\nFood\n"), 0o644))

		res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend, DataDirectory: dir})
		require.NoError(t, err)
		defer res.Close()

		assert.IsType(t, &memory.Store{}, res.Store)
		b, err := res.Store.Load(ctx, store.KeyCategories)
		require.NoError(t, err)
		assert.Contains(t, string(b), "Rent")
	})

	t.Run("file", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: FileBackend, DataDirectory: t.TempDir()})
		require.NoError(t, err)
		defer res.Close()

		assert.IsType(t, &file.Store{}, res.Store)
	})

	t.Run("sqlite", func(t *testing.T) {
		res, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "ledger.db")})
		require.NoError(t, err)
		defer res.Close()

		assert.IsType(t, &sqlite.Repository{}, res.Store)
		require.NoError(t, res.Store.Save(ctx, store.KeyGoals, []byte("[]")))
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := f.CreateBackend(ctx, Config{Type: FileBackend})
		assert.Error(t, err)
	})
}
