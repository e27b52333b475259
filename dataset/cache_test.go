package dataset

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/go-vox/tensor"
)

// countingSource is an in-memory Source that counts backing loads.
type countingSource struct {
	items []*tensor.Tensor
	loads atomic.Int64
}

func newCountingSource(t *testing.T, n int) *countingSource {
	t.Helper()
	src := &countingSource{}
	for i := 0; i < n; i++ {
		item, err := tensor.New([]int{1, 1}, []float32{float32(i)})
		require.NoError(t, err)
		src.items = append(src.items, item)
	}
	return src
}

func (s *countingSource) Len() int { return len(s.items) }

func (s *countingSource) Get(index int) (*tensor.Tensor, error) {
	s.loads.Add(1)
	return s.items[index], nil
}

func TestCacheHitSkipsBackingLoad(t *testing.T) {
	src := newCountingSource(t, 3)
	cache, err := NewCachedDataset(src, 10)
	require.NoError(t, err)

	first, err := cache.Get(1)
	require.NoError(t, err)
	second, err := cache.Get(1)
	require.NoError(t, err)

	assert.True(t, first.Equal(second), "cached item must equal the loaded item")
	assert.Equal(t, int64(1), src.loads.Load(), "second access must come from cache")

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestCacheStopsStoringAtCapacity(t *testing.T) {
	src := newCountingSource(t, 3)
	cache, err := NewCachedDataset(src, 1)
	require.NoError(t, err)

	_, err = cache.Get(0)
	require.NoError(t, err)
	_, err = cache.Get(1)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Size(), "a full cache must not grow")

	// Index 1 was never stored, so it loads again; index 0 stays cached.
	_, err = cache.Get(1)
	require.NoError(t, err)
	_, err = cache.Get(0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), src.loads.Load())
}

func TestCacheZeroCapacityPassesThrough(t *testing.T) {
	src := newCountingSource(t, 2)
	cache, err := NewCachedDataset(src, 0)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := cache.Get(0)
		require.NoError(t, err)
	}
	assert.Equal(t, 0, cache.Size())
	assert.Equal(t, int64(3), src.loads.Load())
}

func TestCacheNegativeCapacity(t *testing.T) {
	_, err := NewCachedDataset(newCountingSource(t, 1), -1)
	assert.Error(t, err)
}

func TestCacheConcurrentAccess(t *testing.T) {
	src := newCountingSource(t, 8)
	cache, err := NewCachedDataset(src, 8)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for round := 0; round < 10; round++ {
				for i := 0; i < src.Len(); i++ {
					item, err := cache.Get(i)
					if err != nil {
						t.Error(err)
						return
					}
					if item.Data[0] != float32(i) {
						t.Errorf("index %d: got %v", i, item.Data[0])
						return
					}
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 8, cache.Size())
}

func TestCacheStatsString(t *testing.T) {
	stats := CacheStats{Size: 2, Capacity: 4, Hits: 3, Misses: 1}
	assert.Equal(t, "Cache: 2/4 items, Hits: 3, Misses: 1, Hit Rate: 75.0%", stats.String())
}
