package training

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/tsawler/go-vox/dataset"
)

// LoaderConfig holds configuration for a DataLoader.
type LoaderConfig struct {
	BatchSize  int
	Shuffle    bool
	NumWorkers int        // parallel item-loading workers per batch
	PinMemory  bool       // transfer performance hint, not a correctness contract
	Rand       *rand.Rand // shuffling stream; required when Shuffle is set
}

// DataLoader provides shuffled or sequential padded-batch iteration over a
// PairDataset. Items within a batch are loaded by a fixed pool of parallel
// workers; padding and stacking happen in the consuming goroutine after the
// workers hand off loaded items.
type DataLoader struct {
	ds         *dataset.PairDataset
	batchSize  int
	shuffle    bool
	numWorkers int
	pinMemory  bool
	rng        *rand.Rand

	mu       sync.Mutex
	indices  []int
	position int
	err      error
}

// NewDataLoader creates a data loader over ds.
func NewDataLoader(ds *dataset.PairDataset, config LoaderConfig) (*DataLoader, error) {
	if config.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", config.BatchSize)
	}
	if config.NumWorkers <= 0 {
		config.NumWorkers = 1
	}
	if config.Shuffle && config.Rand == nil {
		return nil, fmt.Errorf("shuffling requires a random stream")
	}

	indices := make([]int, ds.Len())
	for i := range indices {
		indices[i] = i
	}

	return &DataLoader{
		ds:         ds,
		batchSize:  config.BatchSize,
		shuffle:    config.Shuffle,
		numWorkers: config.NumWorkers,
		pinMemory:  config.PinMemory,
		rng:        config.Rand,
		indices:    indices,
	}, nil
}

// Len returns the number of batches in an epoch.
func (dl *DataLoader) Len() int {
	return (dl.ds.Len() + dl.batchSize - 1) / dl.batchSize
}

// PinMemory reports the pinned-memory transfer hint.
func (dl *DataLoader) PinMemory() bool {
	return dl.pinMemory
}

// Reset rewinds the loader for a new epoch, reshuffling when enabled.
func (dl *DataLoader) Reset() {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	dl.position = 0
	dl.err = nil
	if dl.shuffle {
		dl.rng.Shuffle(len(dl.indices), func(i, j int) {
			dl.indices[i], dl.indices[j] = dl.indices[j], dl.indices[i]
		})
	}
}

// HasNext reports whether more batches remain in the current epoch.
func (dl *DataLoader) HasNext() bool {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	return dl.position < len(dl.indices)
}

// Next returns the next collated batch, or nil at the end of the epoch.
func (dl *DataLoader) Next() (*Batch, error) {
	dl.mu.Lock()
	if dl.position >= len(dl.indices) {
		dl.mu.Unlock()
		return nil, nil
	}

	batchEnd := dl.position + dl.batchSize
	if batchEnd > len(dl.indices) {
		batchEnd = len(dl.indices)
	}
	batchIndices := make([]int, batchEnd-dl.position)
	copy(batchIndices, dl.indices[dl.position:batchEnd])
	dl.position = batchEnd
	dl.mu.Unlock()

	items, err := dl.loadItems(batchIndices)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch: %w", err)
	}

	batch, err := Collate(items)
	if err != nil {
		return nil, fmt.Errorf("failed to collate batch: %w", err)
	}
	return batch, nil
}

// loadItems pulls the batch's items through the worker pool. Results land at
// their original positions, so batch ordering is preserved.
func (dl *DataLoader) loadItems(indices []int) ([]dataset.SequenceItem, error) {
	items := make([]dataset.SequenceItem, len(indices))

	if dl.numWorkers == 1 || len(indices) == 1 {
		for i, idx := range indices {
			item, err := dl.ds.Get(idx)
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return items, nil
	}

	jobs := make(chan int, len(indices))
	for i := range indices {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	workerErrs := make([]error, dl.numWorkers)
	for w := 0; w < dl.numWorkers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := range jobs {
				item, err := dl.ds.Get(indices[i])
				if err != nil {
					workerErrs[w] = err
					return
				}
				items[i] = item
			}
		}(w)
	}
	wg.Wait()

	for _, err := range workerErrs {
		if err != nil {
			return nil, err
		}
	}
	return items, nil
}

// Iterator returns a channel that yields every batch of one epoch. The
// channel is closed at the end of the epoch or on the first load error;
// check Err after draining.
func (dl *DataLoader) Iterator() <-chan *Batch {
	out := make(chan *Batch, dl.numWorkers)

	go func() {
		defer close(out)
		dl.Reset()
		for {
			batch, err := dl.Next()
			if err != nil {
				dl.mu.Lock()
				dl.err = err
				dl.mu.Unlock()
				return
			}
			if batch == nil {
				return
			}
			out <- batch
		}
	}()

	return out
}

// Err returns the error that terminated the last Iterator epoch, if any.
func (dl *DataLoader) Err() error {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	return dl.err
}
