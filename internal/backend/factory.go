package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"subrecommend/internal/cache"
	"subrecommend/internal/core"
	"subrecommend/internal/storage"
	"subrecommend/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case PostgresBackend:
		return f.createPostgresBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createPostgresBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewPostgresRepository(ctx, config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Postgres repository: %w", err)
	}

	f.logger.Info("Initialized Postgres backend")

	return &BackendResult{
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	store := memory.New()

	f.logger.Info("Initialized memory backend")

	return &BackendResult{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}

// CreateCaches implements Factory.CreateCaches
func (f *DefaultFactory) CreateCaches(ctx context.Context, config CacheConfig) (*Caches, error) {
	switch config.Type {
	case NoCache:
		f.logger.Info("Read caches disabled")
		return &Caches{
			Views:      cache.Noop[core.TopSpendingView]{},
			Categories: cache.Noop[[]core.Category]{},
		}, nil

	case MemoryCache:
		views := cache.NewLRUCache[core.TopSpendingView](config.Size, config.TTL)
		categories := cache.NewLRUCache[[]core.Category](1, config.TTL)

		manager := cache.NewManager()
		manager.Register(views)
		manager.Register(categories)
		manager.StartCleanup(cleanupInterval(config.TTL))

		f.logger.Info("Initialized in-memory caches", "size", config.Size, "ttl", config.TTL)
		return &Caches{
			Views:      views,
			Categories: categories,
			Cleanup: func() error {
				manager.Stop()
				return nil
			},
		}, nil

	case RedisCache:
		client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis cache: %w", err)
		}

		f.logger.Info("Initialized Redis caches", "addr", config.RedisAddr, "ttl", config.TTL)
		return &Caches{
			Views:      cache.NewRedisCache[core.TopSpendingView](client, "subrecommend:view:", config.TTL),
			Categories: cache.NewRedisCache[[]core.Category](client, "subrecommend:categories:", config.TTL),
			Cleanup:    client.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", config.Type)
	}
}

// cleanupInterval sweeps expired entries a few times per TTL, at most once a
// minute.
func cleanupInterval(ttl time.Duration) time.Duration {
	interval := ttl / 2
	if interval <= 0 || interval > time.Minute {
		return time.Minute
	}
	return interval
}
