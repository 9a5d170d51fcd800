package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/kpi-projection/internal/models"
)

// KeyPrefix namespaces projection entries in Redis.
const KeyPrefix = "projection:"

// ProjectionCacheEntry is the stored form of a cached projection.
type ProjectionCacheEntry struct {
	Result   models.ProjectionResult `json:"result"`
	CachedAt time.Time               `json:"cached_at"`
}

// ProjectionCacheStats tracks cache performance.
type ProjectionCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	Errors int64 `json:"errors"`
}

// HitRate returns hits as a percentage of lookups.
func (s ProjectionCacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// ProjectionCache stores projection results keyed by their inputs.
type ProjectionCache interface {
	Get(ctx context.Context, key string) (*ProjectionCacheEntry, bool, error)
	Set(ctx context.Context, key string, result models.ProjectionResult) error
	Clear(ctx context.Context) (int, error)
	GetStats() ProjectionCacheStats
}

type keyMaterial struct {
	Request  models.ProjectionRequest `json:"request"`
	Settings models.EngineSettings    `json:"settings"`
}

// Key derives the cache key of a normalized request under the given engine
// settings.
func Key(req models.ProjectionRequest, settings models.EngineSettings) (string, error) {
	raw, err := json.Marshal(keyMaterial{Request: req, Settings: settings})
	if err != nil {
		return "", fmt.Errorf("failed to encode cache key: %w", err)
	}
	sum := sha256.Sum256(raw)
	return KeyPrefix + hex.EncodeToString(sum[:]), nil
}

// RedisProjectionCache implements ProjectionCache on Redis. A failed or
// undecodable read counts as a miss and returns the error.
type RedisProjectionCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *logrus.Entry

	mu    sync.Mutex
	stats ProjectionCacheStats
}

// NewRedisProjectionCache creates a Redis-based projection cache.
func NewRedisProjectionCache(client redis.Cmdable, ttl time.Duration, logger *logrus.Logger) *RedisProjectionCache {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RedisProjectionCache{
		client: client,
		ttl:    ttl,
		logger: logger.WithField("component", "projection_cache"),
	}
}

func (c *RedisProjectionCache) record(f func(*ProjectionCacheStats)) {
	c.mu.Lock()
	f(&c.stats)
	c.mu.Unlock()
}

func (c *RedisProjectionCache) Get(ctx context.Context, key string) (*ProjectionCacheEntry, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.record(func(s *ProjectionCacheStats) { s.Misses++ })
		return nil, false, nil
	}
	if err != nil {
		c.record(func(s *ProjectionCacheStats) { s.Misses++; s.Errors++ })
		return nil, false, fmt.Errorf("failed to read cached projection: %w", err)
	}

	var entry ProjectionCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Discarding undecodable projection entry")
		c.record(func(s *ProjectionCacheStats) { s.Misses++; s.Errors++ })
		_ = c.client.Del(ctx, key).Err()
		return nil, false, nil
	}

	c.record(func(s *ProjectionCacheStats) { s.Hits++ })
	return &entry, true, nil
}

func (c *RedisProjectionCache) Set(ctx context.Context, key string, result models.ProjectionResult) error {
	data, err := json.Marshal(ProjectionCacheEntry{Result: result, CachedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode projection: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.record(func(s *ProjectionCacheStats) { s.Errors++ })
		return fmt.Errorf("failed to cache projection: %w", err)
	}
	c.record(func(s *ProjectionCacheStats) { s.Sets++ })
	return nil
}

// Clear deletes every projection entry and returns how many were removed.
func (c *RedisProjectionCache) Clear(ctx context.Context) (int, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, KeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("error scanning cache keys: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("error clearing cache: %w", err)
	}
	c.logger.WithField("entries", len(keys)).Info("Cleared projection cache")
	return len(keys), nil
}

func (c *RedisProjectionCache) GetStats() ProjectionCacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// InMemoryProjectionCache is the single-process fallback used when Redis
// is disabled.
type InMemoryProjectionCache struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.RWMutex
	entries map[string]memoryEntry
	stats   ProjectionCacheStats
}

type memoryEntry struct {
	entry     ProjectionCacheEntry
	expiresAt time.Time
}

// DefaultMaxMemoryEntries bounds the in-memory cache.
const DefaultMaxMemoryEntries = 1000

func NewInMemoryProjectionCache(ttl time.Duration) *InMemoryProjectionCache {
	return &InMemoryProjectionCache{
		ttl:        ttl,
		maxEntries: DefaultMaxMemoryEntries,
		now:        time.Now,
		entries:    make(map[string]memoryEntry),
	}
}

// WithMaxEntries sets the entry limit. Values below 1 keep the default.
func (c *InMemoryProjectionCache) WithMaxEntries(n int) *InMemoryProjectionCache {
	if n > 0 {
		c.mu.Lock()
		c.maxEntries = n
		c.mu.Unlock()
	}
	return c
}

// Len returns the number of stored entries, expired or not.
func (c *InMemoryProjectionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *InMemoryProjectionCache) Get(_ context.Context, key string) (*ProjectionCacheEntry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok && c.now().After(e.expiresAt) {
		delete(c.entries, key)
		ok = false
	}
	if !ok {
		c.stats.Misses++
		return nil, false, nil
	}
	c.stats.Hits++
	entry := e.entry
	return &entry, true, nil
}

func (c *InMemoryProjectionCache) Set(_ context.Context, key string, result models.ProjectionResult) error {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked(now)
	if _, exists := c.entries[key]; !exists {
		for len(c.entries) >= c.maxEntries {
			c.evictOldestLocked()
		}
	}
	c.entries[key] = memoryEntry{
		entry:     ProjectionCacheEntry{Result: result, CachedAt: now.UTC()},
		expiresAt: now.Add(c.ttl),
	}
	c.stats.Sets++
	return nil
}

// sweepLocked drops expired entries. c.mu must be held.
func (c *InMemoryProjectionCache) sweepLocked(now time.Time) {
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

// evictOldestLocked drops the entry closest to expiry. c.mu must be held.
func (c *InMemoryProjectionCache) evictOldestLocked() {
	var (
		oldest string
		at     time.Time
		found  bool
	)
	for k, e := range c.entries {
		if !found || e.expiresAt.Before(at) {
			oldest, at, found = k, e.expiresAt, true
		}
	}
	if found {
		delete(c.entries, oldest)
	}
}

func (c *InMemoryProjectionCache) Clear(context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]memoryEntry)
	return n, nil
}

func (c *InMemoryProjectionCache) GetStats() ProjectionCacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}
