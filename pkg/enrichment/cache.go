package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ramsey-B/fern/pkg/models"
)

// RedisKeyPrefix prefixes every cached profile key in Redis
const RedisKeyPrefix = "fern:enrichment:"

// Cache stores successfully fetched profiles by identifier.
type Cache interface {
	Get(ctx context.Context, identifier string) (*models.EnrichmentRecord, bool, error)
	Set(ctx context.Context, record *models.EnrichmentRecord) error
}

// CacheStats reports cache usage
type CacheStats struct {
	Size   int   `json:"size"`
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// MemoryCacheConfig configures the in-process cache
type MemoryCacheConfig struct {
	MaxSize int
	TTL     time.Duration
}

// DefaultMemoryCacheConfig returns sensible defaults
func DefaultMemoryCacheConfig() MemoryCacheConfig {
	return MemoryCacheConfig{
		MaxSize: 10000,
		TTL:     24 * time.Hour,
	}
}

type cacheEntry struct {
	record    *models.EnrichmentRecord
	expiresAt time.Time
}

// MemoryCache is an in-process TTL cache with a size cap
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	maxSize int
	ttl     time.Duration
	hits    int64
	misses  int64
	now     func() time.Time
}

// NewMemoryCache creates a new in-process cache
func NewMemoryCache(cfg MemoryCacheConfig) *MemoryCache {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMemoryCacheConfig().MaxSize
	}
	return &MemoryCache{
		entries: make(map[string]*cacheEntry),
		maxSize: cfg.MaxSize,
		ttl:     cfg.TTL,
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, identifier string) (*models.EnrichmentRecord, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[identifier]
	if ok && (c.ttl <= 0 || c.now().Before(entry.expiresAt)) {
		c.hits++
		return entry.record, true, nil
	}
	if ok {
		delete(c.entries, identifier)
	}
	c.misses++
	return nil, false, nil
}

func (c *MemoryCache) Set(_ context.Context, record *models.EnrichmentRecord) error {
	if record == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[record.Identifier]; !exists && len(c.entries) >= c.maxSize {
		c.evictHalf()
	}
	c.entries[record.Identifier] = &cacheEntry{
		record:    record,
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

// evictHalf drops expired entries, then half of the rest (lock held)
func (c *MemoryCache) evictHalf() {
	now := c.now()
	for key, entry := range c.entries {
		if c.ttl > 0 && !now.Before(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	if len(c.entries) < c.maxSize {
		return
	}
	target := len(c.entries) / 2
	count := 0
	for key := range c.entries {
		delete(c.entries, key)
		count++
		if count >= target {
			break
		}
	}
}

// Clear removes all entries
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
}

func (c *MemoryCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{
		Size:   len(c.entries),
		Hits:   c.hits,
		Misses: c.misses,
	}
}

// RedisCache stores JSON-encoded profiles in Redis
type RedisCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewRedisCache creates a Redis-backed cache on an existing client
func NewRedisCache(rdb redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func redisKey(identifier string) string {
	return RedisKeyPrefix + identifier
}

func (c *RedisCache) Get(ctx context.Context, identifier string) (*models.EnrichmentRecord, bool, error) {
	raw, err := c.rdb.Get(ctx, redisKey(identifier)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached profile %s: %w", identifier, err)
	}

	var record models.EnrichmentRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached profile %s: %w", identifier, err)
	}
	return &record, true, nil
}

func (c *RedisCache) Set(ctx context.Context, record *models.EnrichmentRecord) error {
	if record == nil {
		return nil
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode profile %s: %w", record.Identifier, err)
	}
	if err := c.rdb.Set(ctx, redisKey(record.Identifier), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache profile %s: %w", record.Identifier, err)
	}
	return nil
}
