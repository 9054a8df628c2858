package enrichment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(MemoryCacheConfig{MaxSize: 4, TTL: time.Minute})
	now := time.Now()
	cache.now = func() time.Time { return now }

	_, ok, err := cache.Get(ctx, "1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, &models.EnrichmentRecord{Identifier: "1", KeyPersonnel: "x"}))
	record, ok, err := cache.Get(ctx, "1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "x", record.KeyPersonnel)

	stats := cache.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)

	t.Run("expiry", func(t *testing.T) {
		now = now.Add(2 * time.Minute)
		_, ok, _ := cache.Get(ctx, "1")
		assert.False(t, ok)
		assert.Equal(t, 0, cache.Stats().Size)
	})

	t.Run("size cap", func(t *testing.T) {
		cache.Clear()
		for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
			require.NoError(t, cache.Set(ctx, &models.EnrichmentRecord{Identifier: id}))
		}
		assert.LessOrEqual(t, cache.Stats().Size, 4)
		_, ok, _ := cache.Get(ctx, "f")
		assert.True(t, ok)
	})
}

// fakeRedis implements the two commands RedisCache uses.
type fakeRedis struct {
	redis.Cmdable
	data    map[string]string
	ttl     time.Duration
	failGet bool
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.failGet {
		return redis.NewStringResult("", errors.New("connection refused"))
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.data[key] = string(value.([]byte))
	f.ttl = expiration
	return redis.NewStatusResult("OK", nil)
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	rdb := &fakeRedis{data: map[string]string{}}
	cache := NewRedisCache(rdb, time.Hour)

	_, ok, err := cache.Get(ctx, "131624102")
	require.NoError(t, err)
	assert.False(t, ok)

	website := "redcross.org"
	require.NoError(t, cache.Set(ctx, &models.EnrichmentRecord{
		Identifier:   "131624102",
		Website:      &website,
		KeyPersonnel: "Jane Doe (CEO) - $500000",
	}))
	assert.Contains(t, rdb.data, RedisKeyPrefix+"131624102")
	assert.Equal(t, time.Hour, rdb.ttl)

	record, ok, err := cache.Get(ctx, "131624102")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "redcross.org", *record.Website)
	assert.Equal(t, "Jane Doe (CEO) - $500000", record.KeyPersonnel)

	rdb.failGet = true
	_, _, err = cache.Get(ctx, "131624102")
	assert.Error(t, err)
}
