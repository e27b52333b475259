package dataset

import (
	"fmt"
)

// PairDataset zips an input feature source with an output feature source so
// that index i yields the (input, target) pair for utterance i.
type PairDataset struct {
	in  Source
	out Source
}

// NewPairDataset pairs two sources of equal length.
func NewPairDataset(in, out Source) (*PairDataset, error) {
	if in.Len() != out.Len() {
		return nil, fmt.Errorf("input and output sources must have the same length: got %d and %d", in.Len(), out.Len())
	}
	return &PairDataset{in: in, out: out}, nil
}

// Len returns the number of items in the dataset.
func (d *PairDataset) Len() int {
	return d.in.Len()
}

// Get returns the sequence item at index.
func (d *PairDataset) Get(index int) (SequenceItem, error) {
	input, err := d.in.Get(index)
	if err != nil {
		return SequenceItem{}, fmt.Errorf("failed to load input %d: %w", index, err)
	}
	target, err := d.out.Get(index)
	if err != nil {
		return SequenceItem{}, fmt.Errorf("failed to load target %d: %w", index, err)
	}
	return SequenceItem{Input: input, Target: target}, nil
}
