package papi_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/preservio/papi/pkg/papi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		t.Parallel()

		cache := papi.NewMemoryCache(10)
		entry := &papi.CacheEntry{
			Data:      []byte("value"),
			CreatedAt: time.Now(),
			ExpiresAt: time.Now().Add(time.Minute),
		}

		err := cache.Set(ctx, "key", entry)
		require.NoError(t, err)

		got, err := cache.Get(ctx, "key")
		require.NoError(t, err)
		assert.Equal(t, []byte("value"), got.Data)
		assert.True(t, cache.Has(ctx, "key"))
	})

	t.Run("missing key", func(t *testing.T) {
		t.Parallel()

		cache := papi.NewMemoryCache(10)

		_, err := cache.Get(ctx, "absent")
		require.Error(t, err)
		assert.ErrorIs(t, err, papi.ErrCacheKeyNotFound)
		assert.False(t, cache.Has(ctx, "absent"))
	})

	t.Run("expired entry treated as absent", func(t *testing.T) {
		t.Parallel()

		cache := papi.NewMemoryCache(10)
		entry := &papi.CacheEntry{
			Data:      []byte("stale"),
			CreatedAt: time.Now().Add(-2 * time.Minute),
			ExpiresAt: time.Now().Add(-time.Minute),
		}

		err := cache.Set(ctx, "key", entry)
		require.NoError(t, err)

		_, err = cache.Get(ctx, "key")
		require.Error(t, err)
		assert.ErrorIs(t, err, papi.ErrCacheEntryExpired)
		assert.False(t, cache.Has(ctx, "key"))
	})

	t.Run("eviction at max size", func(t *testing.T) {
		t.Parallel()

		cache := papi.NewMemoryCache(2)
		now := time.Now()

		err := cache.Set(ctx, "oldest", &papi.CacheEntry{
			Data: []byte("1"), CreatedAt: now.Add(-2 * time.Second), ExpiresAt: now.Add(time.Minute),
		})
		require.NoError(t, err)
		err = cache.Set(ctx, "newer", &papi.CacheEntry{
			Data: []byte("2"), CreatedAt: now.Add(-time.Second), ExpiresAt: now.Add(time.Minute),
		})
		require.NoError(t, err)
		err = cache.Set(ctx, "newest", &papi.CacheEntry{
			Data: []byte("3"), CreatedAt: now, ExpiresAt: now.Add(time.Minute),
		})
		require.NoError(t, err)

		assert.False(t, cache.Has(ctx, "oldest"))
		assert.True(t, cache.Has(ctx, "newer"))
		assert.True(t, cache.Has(ctx, "newest"))
	})

	t.Run("delete and clear", func(t *testing.T) {
		t.Parallel()

		cache := papi.NewMemoryCache(10)
		entry := &papi.CacheEntry{
			Data: []byte("value"), CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Minute),
		}

		require.NoError(t, cache.Set(ctx, "a", entry))
		require.NoError(t, cache.Set(ctx, "b", entry))

		require.NoError(t, cache.Delete(ctx, "a"))
		assert.False(t, cache.Has(ctx, "a"))

		require.NoError(t, cache.Clear(ctx))
		assert.False(t, cache.Has(ctx, "b"))
	})
}

func TestCacheManagerGetOrCompute(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("computes once then serves cache", func(t *testing.T) {
		t.Parallel()

		manager := papi.NewCacheManager(papi.NewMemoryCache(10), nil)

		var calls int32

		compute := func(ctx context.Context) ([]byte, error) {
			atomic.AddInt32(&calls, 1)

			return []byte("computed"), nil
		}

		first, err := manager.GetOrCompute(ctx, "key", time.Minute, compute)
		require.NoError(t, err)
		assert.Equal(t, []byte("computed"), first)

		second, err := manager.GetOrCompute(ctx, "key", time.Minute, compute)
		require.NoError(t, err)
		assert.Equal(t, []byte("computed"), second)

		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("concurrent callers share one compute", func(t *testing.T) {
		t.Parallel()

		manager := papi.NewCacheManager(papi.NewMemoryCache(10), nil)

		var calls int32

		compute := func(ctx context.Context) ([]byte, error) {
			atomic.AddInt32(&calls, 1)
			time.Sleep(50 * time.Millisecond)

			return []byte("shared"), nil
		}

		const workers = 10

		var wg sync.WaitGroup

		results := make([][]byte, workers)
		errs := make([]error, workers)

		for i := 0; i < workers; i++ {
			wg.Add(1)

			go func(index int) {
				defer wg.Done()

				results[index], errs[index] = manager.GetOrCompute(ctx, "key", time.Minute, compute)
			}(i)
		}

		wg.Wait()

		for i := 0; i < workers; i++ {
			require.NoError(t, errs[i])
			assert.Equal(t, []byte("shared"), results[i])
		}

		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("compute error is not cached", func(t *testing.T) {
		t.Parallel()

		manager := papi.NewCacheManager(papi.NewMemoryCache(10), nil)
		failure := errors.New("upstream down")

		_, err := manager.GetOrCompute(ctx, "key", time.Minute, func(ctx context.Context) ([]byte, error) {
			return nil, failure
		})
		require.ErrorIs(t, err, failure)

		data, err := manager.GetOrCompute(ctx, "key", time.Minute, func(ctx context.Context) ([]byte, error) {
			return []byte("recovered"), nil
		})
		require.NoError(t, err)
		assert.Equal(t, []byte("recovered"), data)
	})

	t.Run("expired entry recomputes", func(t *testing.T) {
		t.Parallel()

		manager := papi.NewCacheManager(papi.NewMemoryCache(10), nil)

		var calls int32

		compute := func(ctx context.Context) ([]byte, error) {
			atomic.AddInt32(&calls, 1)

			return []byte("fresh"), nil
		}

		_, err := manager.GetOrCompute(ctx, "key", time.Millisecond, compute)
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)

		_, err = manager.GetOrCompute(ctx, "key", time.Minute, compute)
		require.NoError(t, err)

		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})
}

func TestCacheManagerStats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	manager := papi.NewCacheManager(papi.NewMemoryCache(10), nil)

	_, err := manager.Get(ctx, "absent")
	require.Error(t, err)

	err = manager.Set(ctx, "key", []byte("value"), time.Minute)
	require.NoError(t, err)

	_, err = manager.Get(ctx, "key")
	require.NoError(t, err)

	stats := manager.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Sets)
	assert.InDelta(t, 0.5, stats.GetHitRate(), 0.001)
}

func TestCacheManagerGetCacheKey(t *testing.T) {
	t.Parallel()

	manager := papi.NewCacheManager(papi.NewMemoryCache(10), nil)

	assert.Equal(t, "GET:/api/entity", manager.GetCacheKey("GET", "/api/entity", nil))

	withParams := manager.GetCacheKey("GET", "/api/entity", map[string]string{
		"b": "2",
		"a": "1",
	})
	assert.Equal(t, "GET:/api/entity:a=1&b=2", withParams)
}

func TestCacheStatsHitRateNoRequests(t *testing.T) {
	t.Parallel()

	stats := &papi.CacheStats{}
	assert.Zero(t, stats.GetHitRate())
}
