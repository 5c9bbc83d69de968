package cache

import (
	"fmt"

	"github.com/erp/jobcost/internal/domain/financials"
	"github.com/erp/jobcost/internal/infrastructure/config"
	"go.uber.org/zap"
)

// SnapshotCacheFactory creates snapshot caches based on configuration
type SnapshotCacheFactory struct {
	cacheConfig config.CacheConfig
	redisConfig config.RedisConfig
	logger      *zap.Logger
}

// SnapshotCacheFactoryOption is a functional option for configuring the factory
type SnapshotCacheFactoryOption func(*SnapshotCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SnapshotCacheFactoryOption {
	return func(f *SnapshotCacheFactory) {
		f.logger = logger
	}
}

// NewSnapshotCacheFactory creates a new factory
func NewSnapshotCacheFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, opts ...SnapshotCacheFactoryOption) *SnapshotCacheFactory {
	f := &SnapshotCacheFactory{
		cacheConfig: cacheCfg,
		redisConfig: redisCfg,
		logger:      zap.NewNop(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateInMemoryCache creates an in-memory snapshot cache
// WARNING: In-memory caches do not share state across process instances
func (f *SnapshotCacheFactory) CreateInMemoryCache() *InMemorySnapshotCache {
	return NewInMemorySnapshotCache(f.cacheConfig.TTL)
}

// CreateRedisCache creates a Redis-based snapshot cache
func (f *SnapshotCacheFactory) CreateRedisCache() (*RedisSnapshotCache, error) {
	c, err := NewRedisSnapshotCache(f.redisConfig, f.cacheConfig.KeyPrefix, f.cacheConfig.TTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis snapshot cache: %w", err)
	}
	return c, nil
}

// CreateCache creates the configured snapshot cache. When Redis is configured
// but unreachable it falls back to memory if AllowFallback is set.
func (f *SnapshotCacheFactory) CreateCache() (financials.SnapshotCache, error) {
	if f.cacheConfig.Backend != config.CacheBackendRedis {
		f.logger.Info("using in-memory snapshot cache")
		return f.CreateInMemoryCache(), nil
	}

	c, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis snapshot cache", zap.String("addr", f.redisConfig.Addr()))
		return c, nil
	}

	if !f.cacheConfig.AllowFallback {
		return nil, fmt.Errorf("Redis required for snapshot cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory snapshot cache. "+
		"Snapshots will not be shared between processes.",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}
