package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"hanzidrill/internal/config"
	"hanzidrill/internal/database"
	"hanzidrill/internal/logger"
	"hanzidrill/internal/repository"
	"hanzidrill/internal/storage"
)

// sqlStore owns the database behind a KVRepository
type sqlStore struct {
	*repository.KVRepository
	db *database.DB
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

// OpenStore opens the key-value backend named by cfg.Storage.Backend.
// The sql backend runs pending migrations before it is returned.
func OpenStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.KV, error) {
	log = logger.OrNop(log).Named("storage")
	backend := strings.ToLower(cfg.Storage.Backend)

	switch backend {
	case "memory":
		log.Warn("using in-memory storage, progress will not survive a restart")
		return storage.NewMemory(), nil

	case "file":
		kv, err := storage.NewFile(cfg.Storage.Dir)
		if err != nil {
			return nil, fmt.Errorf("open file storage: %w", err)
		}
		log.Info("using file storage", zap.String("dir", cfg.Storage.Dir))
		return kv, nil

	case "sql":
		db, err := database.InitializeWithConfig(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		applied, err := db.RunMigrations(ctx, cfg.Database.MigrationsPath)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		for _, name := range applied {
			log.Info("applied migration", zap.String("file", name))
		}
		log.Info("using sql storage", zap.String("type", cfg.Database.Type))
		return &sqlStore{KVRepository: repository.NewKVRepository(db), db: db}, nil

	case "redis":
		kv, err := storage.NewRedis(ctx, storage.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis storage: %w", err)
		}
		log.Info("using redis storage", zap.String("addr", cfg.Redis.Addr))
		return kv, nil
	}

	return nil, fmt.Errorf("%w: %q", config.ErrUnsupportedBackend, cfg.Storage.Backend)
}
