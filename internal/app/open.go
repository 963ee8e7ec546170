package service

import (
	"context"
	"fmt"

	"github.com/okian/sportplanner/internal/adapters/cache"
	"github.com/okian/sportplanner/internal/adapters/repository"
	"github.com/okian/sportplanner/internal/config"
	"github.com/okian/sportplanner/pkg/logger"
)

// Open connects the backends selected by cfg and returns an unstarted
// Service that owns them.
func Open(ctx context.Context, cfg *config.Config) (*Service, error) {
	log := logger.Get().Named("service")

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "catalog store ready", logger.String("backend", cfg.StorageBackend))

	opts := []Option{
		WithStore(store),
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithCacheSize(cfg.CacheSize),
		WithCacheTTL(cfg.CacheTTL()),
		WithDefaultConceptMinutes(cfg.DefaultConceptMinutes),
		WithWarmCache(cfg.WarmCache),
		WithLogger(log),
	}

	if cfg.CacheBackend == config.BackendRedis {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cache.WithTTL(cfg.CacheTTL()))
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("open redis cache: %w", err)
		}
		opts = append(opts, WithCache(rc))
		log.Info(ctx, "redis proposal cache ready", logger.String("addr", cfg.RedisAddr))
	}

	return New(opts...), nil
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	if cfg.StorageBackend == config.BackendPostgres {
		store, err := repository.NewPostgresStore(ctx, repository.PostgresConfig{
			DSN:          cfg.PostgresDSN,
			MaxConns:     cfg.PostgresMaxConns,
			EnsureSchema: cfg.PostgresEnsureSchema,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, nil
	}

	store := repository.NewMemoryStore()
	if cfg.SeedPath == "" {
		return store, nil
	}
	seed, err := repository.LoadSeedFile(cfg.SeedPath)
	if err != nil {
		return nil, err
	}
	if err := store.Load(ctx, seed); err != nil {
		return nil, fmt.Errorf("load seed %s: %w", cfg.SeedPath, err)
	}
	return store, nil
}
