package dataset

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/tsawler/go-vox/tensor"
)

// CachedDataset wraps a Source with a bounded in-memory cache keyed by index,
// avoiding repeated disk I/O for items revisited across epochs.
//
// The cache is write-once-until-full: once capacity entries are stored, later
// misses still succeed via the backing source but are no longer cached. There
// is no eviction. Concurrent workers racing to populate the same index are
// tolerated; each index is either fully cached or absent, and any worker's
// load result is an acceptable value.
type CachedDataset struct {
	src      Source
	capacity int

	mu      sync.RWMutex
	entries map[int]*tensor.Tensor

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedDataset wraps src with a cache holding at most capacity entries.
func NewCachedDataset(src Source, capacity int) (*CachedDataset, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("cache capacity must be non-negative, got %d", capacity)
	}
	return &CachedDataset{
		src:      src,
		capacity: capacity,
		entries:  make(map[int]*tensor.Tensor),
	}, nil
}

// Len returns the length of the backing source.
func (d *CachedDataset) Len() int {
	return d.src.Len()
}

// Get returns the item at index, from cache when present. A miss loads from
// the backing source and stores the item if the cache is below capacity.
func (d *CachedDataset) Get(index int) (*tensor.Tensor, error) {
	d.mu.RLock()
	item, ok := d.entries[index]
	d.mu.RUnlock()
	if ok {
		d.hits.Add(1)
		return item, nil
	}

	loaded, err := d.src.Get(index)
	if err != nil {
		return nil, err
	}

	d.misses.Add(1)
	d.mu.Lock()
	defer d.mu.Unlock()
	// Another worker may have populated this index while we loaded; either
	// result is valid, keep the first one stored.
	if cached, ok := d.entries[index]; ok {
		return cached, nil
	}
	if len(d.entries) < d.capacity {
		d.entries[index] = loaded
	}
	return loaded, nil
}

// Size returns the current number of cached entries.
func (d *CachedDataset) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

// Stats returns cache statistics.
func (d *CachedDataset) Stats() CacheStats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return CacheStats{
		Size:     len(d.entries),
		Capacity: d.capacity,
		Hits:     d.hits.Load(),
		Misses:   d.misses.Load(),
	}
}

// CacheStats holds cache statistics.
type CacheStats struct {
	Size     int
	Capacity int
	Hits     int64
	Misses   int64
}

// String returns a string representation of cache stats.
func (cs CacheStats) String() string {
	total := cs.Hits + cs.Misses
	rate := 0.0
	if total > 0 {
		rate = float64(cs.Hits) / float64(total) * 100
	}
	return fmt.Sprintf("Cache: %d/%d items, Hits: %d, Misses: %d, Hit Rate: %.1f%%",
		cs.Size, cs.Capacity, cs.Hits, cs.Misses, rate)
}
