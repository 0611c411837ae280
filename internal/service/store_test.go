package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hanzidrill/internal/config"
	"hanzidrill/internal/storage"
	"hanzidrill/internal/storage/storagetest"
)

func storeConfig(backend string, t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Storage: config.StorageConfig{Backend: backend, Key: testKey, Dir: filepath.Join(dir, "data")},
		Database: config.DatabaseConfig{
			Type:           "sqlite",
			Path:           filepath.Join(dir, "test.db"),
			MigrationsPath: "../../migrations",
		},
		Redis: config.RedisConfig{Addr: os.Getenv("REDIS_ADDR"), Prefix: "hanzidrill-test:"},
	}
}

func TestOpenStore(t *testing.T) {
	backends := []string{"memory", "file", "sql", "redis"}

	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			if backend == "sql" && testing.Short() {
				t.Skip("skipping sqlite store in short mode")
			}
			if backend == "redis" && os.Getenv("REDIS_ADDR") == "" {
				t.Skip("REDIS_ADDR not set")
			}

			kv, err := OpenStore(context.Background(), storeConfig(backend, t), nil)
			require.NoError(t, err)
			defer kv.Close()

			storagetest.Run(t, kv)
		})
	}
}

func TestOpenStoreMemoryType(t *testing.T) {
	kv, err := OpenStore(context.Background(), storeConfig("Memory", t), nil)
	require.NoError(t, err)
	assert.IsType(t, &storage.Memory{}, kv)
}

func TestOpenStoreUnsupported(t *testing.T) {
	_, err := OpenStore(context.Background(), storeConfig("etcd", t), nil)
	assert.ErrorIs(t, err, config.ErrUnsupportedBackend)
}

func TestOpenStoreBadMigrations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping sqlite store in short mode")
	}
	cfg := storeConfig("sql", t)
	cfg.Database.MigrationsPath = t.TempDir()

	_, err := OpenStore(context.Background(), cfg, nil)
	assert.Error(t, err)
}
