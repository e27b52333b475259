// Package dataset provides the file-backed feature pipeline: per-utterance
// feature discovery and loading, a bounded in-memory cache, and pairing of
// input/output feature streams into sequence items.
package dataset

import (
	"github.com/tsawler/go-vox/tensor"
)

// Source provides indexed access to per-utterance feature matrices.
type Source interface {
	// Len returns the number of utterances in the source.
	Len() int
	// Get returns the feature matrix for utterance index, shaped (T, D).
	Get(index int) (*tensor.Tensor, error)
}

// SequenceItem is one training example: an input feature matrix and a target
// feature matrix, each shaped (T, D) with T varying per item.
type SequenceItem struct {
	Input  *tensor.Tensor
	Target *tensor.Tensor
}
