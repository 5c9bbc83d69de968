package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/erp/jobcost/internal/domain/financials"
	"github.com/erp/jobcost/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() *financials.ProjectFinancials {
	return &financials.ProjectFinancials{
		ProjectID:      uuid.New(),
		TotalBudget:    decimal.RequireFromString("100000"),
		TotalActual:    decimal.RequireFromString("50000.25"),
		TotalCommitted: decimal.RequireFromString("50000"),
		Health:         financials.HealthExcellent,
		Alerts:         []financials.Alert{},
		CostCodes:      []financials.CostCodeLine{},
		CalculatedAt:   time.Date(2026, 4, 1, 12, 30, 0, 0, time.UTC),
	}
}

func TestInMemorySnapshotCache(t *testing.T) {
	ctx := context.Background()
	c := NewInMemorySnapshotCache(0)
	snap := testSnapshot()

	miss, err := c.Get(ctx, snap.ProjectID)
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, c.Set(ctx, snap))
	hit, err := c.Get(ctx, snap.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, snap, hit)
	assert.NotSame(t, snap, hit)
	assert.Equal(t, 1, c.Size())

	require.NoError(t, c.Delete(ctx, snap.ProjectID))
	gone, err := c.Get(ctx, snap.ProjectID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestInMemorySnapshotCache_HandsOutCopies(t *testing.T) {
	ctx := context.Background()
	c := NewInMemorySnapshotCache(0)
	snap := testSnapshot()
	costCodeID := uuid.New()
	snap.Alerts = []financials.Alert{{Type: financials.AlertCostCodeOverBudget, CostCodeID: &costCodeID}}
	snap.CostCodes = []financials.CostCodeLine{{CostCodeID: costCodeID, Code: "03-100"}}
	require.NoError(t, c.Set(ctx, snap))

	// the caller's snapshot is not the stored one
	snap.Health = financials.HealthCritical
	snap.CostCodes[0].Code = "changed"

	hit, err := c.Get(ctx, snap.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, financials.HealthExcellent, hit.Health)
	assert.Equal(t, "03-100", hit.CostCodes[0].Code)

	hit.TotalActual = decimal.Zero
	hit.Alerts[0].Type = financials.AlertNegativeMargin
	*hit.Alerts[0].CostCodeID = uuid.Nil
	hit.CostCodes = append(hit.CostCodes, financials.CostCodeLine{Code: "99-999"})

	again, err := c.Get(ctx, snap.ProjectID)
	require.NoError(t, err)
	assert.True(t, again.TotalActual.Equal(decimal.RequireFromString("50000.25")))
	assert.Equal(t, financials.AlertCostCodeOverBudget, again.Alerts[0].Type)
	assert.Equal(t, costCodeID, *again.Alerts[0].CostCodeID)
	assert.Len(t, again.CostCodes, 1)
}

func TestInMemorySnapshotCache_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	c := NewInMemorySnapshotCache(time.Minute)
	c.now = func() time.Time { return now }

	snap := testSnapshot()
	require.NoError(t, c.Set(ctx, snap))

	now = now.Add(59 * time.Second)
	hit, err := c.Get(ctx, snap.ProjectID)
	require.NoError(t, err)
	assert.NotNil(t, hit)

	now = now.Add(2 * time.Second)
	hit, err = c.Get(ctx, snap.ProjectID)
	require.NoError(t, err)
	assert.Nil(t, hit)
	assert.Zero(t, c.Size())
}

func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisSnapshotCache(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniredisClient(t)
	c := NewRedisSnapshotCacheWithClient(client, "", time.Minute)
	snap := testSnapshot()

	miss, err := c.Get(ctx, snap.ProjectID)
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, c.Set(ctx, snap))
	assert.True(t, mr.Exists(defaultSnapshotKeyPrefix+snap.ProjectID.String()))

	hit, err := c.Get(ctx, snap.ProjectID)
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, snap.ProjectID, hit.ProjectID)
	assert.True(t, hit.TotalActual.Equal(snap.TotalActual))
	assert.True(t, hit.CalculatedAt.Equal(snap.CalculatedAt))
	assert.Equal(t, financials.HealthExcellent, hit.Health)

	mr.FastForward(2 * time.Minute)
	expired, err := c.Get(ctx, snap.ProjectID)
	require.NoError(t, err)
	assert.Nil(t, expired)

	require.NoError(t, c.Set(ctx, snap))
	require.NoError(t, c.Delete(ctx, snap.ProjectID))
	assert.False(t, mr.Exists(defaultSnapshotKeyPrefix+snap.ProjectID.String()))
	assert.NoError(t, c.Close())
}

func TestRedisSnapshotCache_CorruptEntry(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniredisClient(t)
	c := NewRedisSnapshotCacheWithClient(client, "test:", 0)
	projectID := uuid.New()
	require.NoError(t, mr.Set("test:"+projectID.String(), "{not json"))

	_, err := c.Get(ctx, projectID)
	assert.Error(t, err)
}

func TestRedisSnapshotCache_ServerDown(t *testing.T) {
	ctx := context.Background()
	mr, client := newMiniredisClient(t)
	c := NewRedisSnapshotCacheWithClient(client, "", 0)
	mr.Close()

	_, err := c.Get(ctx, uuid.New())
	assert.Error(t, err)
	assert.Error(t, c.Set(ctx, testSnapshot()))
}

func redisConfigFor(t *testing.T, mr *miniredis.Miniredis) config.RedisConfig {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return config.RedisConfig{Host: mr.Host(), Port: port}
}

func TestSnapshotCacheFactory_CreateCache(t *testing.T) {
	t.Run("memory backend", func(t *testing.T) {
		f := NewSnapshotCacheFactory(config.CacheConfig{Backend: config.CacheBackendMemory}, config.RedisConfig{})
		c, err := f.CreateCache()
		require.NoError(t, err)
		assert.IsType(t, &InMemorySnapshotCache{}, c)
	})

	t.Run("redis backend", func(t *testing.T) {
		mr := miniredis.RunT(t)
		f := NewSnapshotCacheFactory(config.CacheConfig{Backend: config.CacheBackendRedis}, redisConfigFor(t, mr))
		c, err := f.CreateCache()
		require.NoError(t, err)
		require.IsType(t, &RedisSnapshotCache{}, c)
		assert.NoError(t, c.(*RedisSnapshotCache).Close())
	})

	t.Run("redis unavailable falls back to memory", func(t *testing.T) {
		mr := miniredis.RunT(t)
		redisCfg := redisConfigFor(t, mr)
		mr.Close()

		f := NewSnapshotCacheFactory(config.CacheConfig{Backend: config.CacheBackendRedis, AllowFallback: true}, redisCfg)
		c, err := f.CreateCache()
		require.NoError(t, err)
		assert.IsType(t, &InMemorySnapshotCache{}, c)
	})

	t.Run("redis unavailable without fallback fails", func(t *testing.T) {
		mr := miniredis.RunT(t)
		redisCfg := redisConfigFor(t, mr)
		mr.Close()

		f := NewSnapshotCacheFactory(config.CacheConfig{Backend: config.CacheBackendRedis}, redisCfg)
		_, err := f.CreateCache()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Redis required")
	})
}
