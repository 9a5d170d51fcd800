package cache

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/kpi-projection/internal/models"
)

// setupTestRedis creates a test Redis instance using miniredis
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, s
}

func sampleResult(bep int) models.ProjectionResult {
	return models.ProjectionResult{
		Status:  "success",
		Version: models.EngineVersion,
		Summary: map[models.ScenarioName]models.ScenarioSummary{
			models.ScenarioNormal: {BEPDay: bep, TotalRevenue: 1_000},
		},
	}
}

func TestKey(t *testing.T) {
	req := models.DefaultProjectionRequest().Normalize()
	settings := models.DefaultEngineSettings()

	k1, err := Key(req, settings)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(k1, KeyPrefix))
	assert.Len(t, k1, len(KeyPrefix)+64)

	k2, err := Key(req, settings)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	req.Marketing.UABudget = 1
	k3, err := Key(req, settings)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)

	settings.Basic.HRCostMonthly = 0
	k4, err := Key(req, settings)
	require.NoError(t, err)
	assert.NotEqual(t, k3, k4)
}

func TestRedisProjectionCache_RoundTrip(t *testing.T) {
	client, s := setupTestRedis(t)
	c := NewRedisProjectionCache(client, 5*time.Minute, nil)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, KeyPrefix+"abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, KeyPrefix+"abc", sampleResult(42)))
	assert.Equal(t, 5*time.Minute, s.TTL(KeyPrefix+"abc"))

	entry, ok, err := c.Get(ctx, KeyPrefix+"abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 42, entry.Result.Summary[models.ScenarioNormal].BEPDay)
	assert.False(t, entry.CachedAt.IsZero())

	stats := c.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
	assert.Equal(t, 50.0, stats.HitRate())
}

func TestRedisProjectionCache_Expiry(t *testing.T) {
	client, s := setupTestRedis(t)
	c := NewRedisProjectionCache(client, time.Minute, nil)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, KeyPrefix+"k", sampleResult(1)))
	s.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, KeyPrefix+"k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisProjectionCache_CorruptEntry(t *testing.T) {
	client, s := setupTestRedis(t)
	c := NewRedisProjectionCache(client, time.Minute, nil)

	require.NoError(t, s.Set(KeyPrefix+"bad", "{not json"))
	_, ok, err := c.Get(context.Background(), KeyPrefix+"bad")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(1), c.GetStats().Errors)
	assert.False(t, s.Exists(KeyPrefix+"bad"))
}

func TestRedisProjectionCache_Clear(t *testing.T) {
	client, s := setupTestRedis(t)
	c := NewRedisProjectionCache(client, time.Minute, nil)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, KeyPrefix+"a", sampleResult(1)))
	require.NoError(t, c.Set(ctx, KeyPrefix+"b", sampleResult(2)))
	require.NoError(t, s.Set("other:key", "keep"))

	n, err := c.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, s.Exists("other:key"))
	assert.False(t, s.Exists(KeyPrefix+"a"))

	n, err = c.Clear(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisProjectionCache_RedisDown(t *testing.T) {
	client, s := setupTestRedis(t)
	c := NewRedisProjectionCache(client, time.Minute, nil)
	s.Close()

	ctx := context.Background()
	_, ok, err := c.Get(ctx, KeyPrefix+"a")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, c.Set(ctx, KeyPrefix+"a", sampleResult(1)))
	assert.Equal(t, int64(2), c.GetStats().Errors)
}

func TestInMemoryProjectionCache(t *testing.T) {
	c := NewInMemoryProjectionCache(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", sampleResult(7)))
	entry, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 7, entry.Result.Summary[models.ScenarioNormal].BEPDay)

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", sampleResult(7)))
	n, err := c.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stats := c.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(2), stats.Sets)
}

func TestInMemoryProjectionCache_SweepsExpired(t *testing.T) {
	c := NewInMemoryProjectionCache(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("k%d", i), sampleResult(i)))
	}
	assert.Equal(t, 10, c.Len())

	now = now.Add(2 * time.Minute)
	require.NoError(t, c.Set(ctx, "fresh", sampleResult(1)))
	assert.Equal(t, 1, c.Len())

	_, ok, err := c.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInMemoryProjectionCache_MaxEntries(t *testing.T) {
	c := NewInMemoryProjectionCache(time.Minute).WithMaxEntries(3)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("k%d", i), sampleResult(i)))
		now = now.Add(time.Second)
	}
	assert.Equal(t, 3, c.Len())

	_, ok, _ := c.Get(ctx, "k0")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "k1")
	assert.False(t, ok)
	entry, ok, _ := c.Get(ctx, "k4")
	require.True(t, ok)
	assert.Equal(t, 4, entry.Result.Summary[models.ScenarioNormal].BEPDay)

	require.NoError(t, c.Set(ctx, "k4", sampleResult(9)))
	assert.Equal(t, 3, c.Len())
}
