package backend

import (
	"context"
	"time"

	"subrecommend/internal/cache"
	"subrecommend/internal/core"
	"subrecommend/internal/ports"
)

// Store is every port a storage backend provides. Each binary uses the subset
// it owns.
type Store interface {
	ports.SpendingStore
	ports.ViewStore
	ports.CatalogStore
	ports.Pinger
	Close() error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Store   Store
	Cleanup CleanupFunc
}

// Caches are the read caches used by the recommendation service.
type Caches struct {
	Views      cache.Cache[core.TopSpendingView]
	Categories cache.Cache[[]core.Category]
	Cleanup    CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a store based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateCaches creates the view and category caches
	CreateCaches(ctx context.Context, config CacheConfig) (*Caches, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	DatabaseURL string
}

// CacheConfig selects and sizes the read caches.
type CacheConfig struct {
	Type          CacheType
	TTL           time.Duration
	Size          int
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

type CacheType string

const (
	NoCache     CacheType = "none"
	MemoryCache CacheType = "memory"
	RedisCache  CacheType = "redis"
)

func (ct CacheType) IsValid() bool {
	switch ct {
	case NoCache, MemoryCache, RedisCache:
		return true
	default:
		return false
	}
}
