package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 30, cfg.Database.TimeoutSeconds)
	assert.Equal(t, 4, cfg.Import.Concurrency)
	assert.Equal(t, 120*time.Second, cfg.Import.Timeout())
	assert.False(t, cfg.Import.PatchCosmeticChanges)
	assert.True(t, cfg.Import.Preview)
	assert.Equal(t, "snapshots", cfg.Import.SnapshotPrefix)
	assert.Equal(t, "classroom.imports", cfg.Events.Subject)
	assert.Empty(t, cfg.Redis.RedisURL)
}

func TestLoadConfig_EnvFile(t *testing.T) {
	dir := t.TempDir()
	env := "IMPORT_CONCURRENCY=9\nIMPORT_PATCH_COSMETIC_CHANGES=true\nDATABASE_DRIVER=sqlite\nREDIS_URL=redis://localhost:6379/1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))
	t.Cleanup(func() {
		for _, k := range []string{"IMPORT_CONCURRENCY", "IMPORT_PATCH_COSMETIC_CHANGES", "DATABASE_DRIVER", "REDIS_URL"} {
			_ = os.Unsetenv(k)
		}
	})

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Import.Concurrency)
	assert.True(t, cfg.Import.PatchCosmeticChanges)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "redis://localhost:6379/1", cfg.Redis.RedisURL)
}

func TestImportConfig_Timeout(t *testing.T) {
	assert.Equal(t, 120*time.Second, ImportConfig{}.Timeout())
	assert.Equal(t, 5*time.Second, ImportConfig{TimeoutSeconds: 5}.Timeout())
}
