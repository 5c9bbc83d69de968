package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/erp/jobcost/internal/domain/financials"
	"github.com/erp/jobcost/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultSnapshotKeyPrefix = "jobcost:financials:"

// RedisSnapshotCache implements financials.SnapshotCache using Redis.
// Snapshots are stored as JSON so several processes can share them.
type RedisSnapshotCache struct {
	client     *redis.Client
	ownsClient bool // true if we created the client and should close it
	keyPrefix  string
	ttl        time.Duration
}

// NewRedisSnapshotCache connects to Redis and creates a snapshot cache
func NewRedisSnapshotCache(cfg config.RedisConfig, keyPrefix string, ttl time.Duration) (*RedisSnapshotCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c := NewRedisSnapshotCacheWithClient(client, keyPrefix, ttl)
	c.ownsClient = true
	return c, nil
}

// NewRedisSnapshotCacheWithClient creates a cache with an existing Redis client
// Note: The caller retains ownership of the client and is responsible for closing it
func NewRedisSnapshotCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisSnapshotCache {
	if keyPrefix == "" {
		keyPrefix = defaultSnapshotKeyPrefix
	}
	return &RedisSnapshotCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (c *RedisSnapshotCache) key(projectID uuid.UUID) string {
	return c.keyPrefix + projectID.String()
}

// Get retrieves the snapshot of a project from Redis
func (c *RedisSnapshotCache) Get(ctx context.Context, projectID uuid.UUID) (*financials.ProjectFinancials, error) {
	data, err := c.client.Get(ctx, c.key(projectID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot from cache: %w", err)
	}

	var snapshot financials.ProjectFinancials
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode cached snapshot: %w", err)
	}
	return &snapshot, nil
}

// Set stores the snapshot of a project in Redis
func (c *RedisSnapshotCache) Set(ctx context.Context, snapshot *financials.ProjectFinancials) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := c.client.Set(ctx, c.key(snapshot.ProjectID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store snapshot in cache: %w", err)
	}
	return nil
}

// Delete removes the snapshot of a project from Redis
func (c *RedisSnapshotCache) Delete(ctx context.Context, projectID uuid.UUID) error {
	if err := c.client.Del(ctx, c.key(projectID)).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot from cache: %w", err)
	}
	return nil
}

// Close closes the Redis client if this cache created it
func (c *RedisSnapshotCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

// Ensure RedisSnapshotCache implements SnapshotCache
var _ financials.SnapshotCache = (*RedisSnapshotCache)(nil)
