// Package training provides the batch pipeline (collation and loading),
// optimizer and learning-rate-scheduler implementations, the symbolic-name
// registries that resolve them from configuration, and stream weighting.
package training

import (
	"fmt"

	"github.com/tsawler/go-vox/dataset"
	"github.com/tsawler/go-vox/tensor"
)

// Batch is a fixed-shape stack of variable-length sequence items. Inputs and
// Targets are shaped (B, maxT, D); Lengths records each item's original time
// length in unpadded input order. The padded region beyond Lengths[i] is
// zero-filled and must not contribute to loss or metric computation
// downstream, which is enforced by carrying Lengths, not here.
type Batch struct {
	Inputs  *tensor.Tensor
	Targets *tensor.Tensor
	Lengths []int
}

// Size returns the number of items in the batch.
func (b *Batch) Size() int {
	return len(b.Lengths)
}

// MaxLen returns the padded time dimension of the batch.
func (b *Batch) MaxLen() int {
	return b.Inputs.Dim(1)
}

// Collate groups sequence items into one batch, right-padding every item's
// input and target matrices with zeros along the time axis up to the batch
// maximum length. Item order is preserved; there is no reordering by length.
// A batch of size 1 produces length-1 padding metadata with no-op padding.
func Collate(items []dataset.SequenceItem) (*Batch, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("cannot collate an empty batch")
	}

	inWidth := items[0].Input.Dim(1)
	outWidth := items[0].Target.Dim(1)

	lengths := make([]int, len(items))
	maxLen := 0
	for i, item := range items {
		if len(item.Input.Shape) != 2 || len(item.Target.Shape) != 2 {
			return nil, fmt.Errorf("item %d: sequence items must be 2-D, got input %v, target %v",
				i, item.Input.Shape, item.Target.Shape)
		}
		if item.Input.Dim(1) != inWidth {
			return nil, fmt.Errorf("item %d: input width %d does not match batch width %d",
				i, item.Input.Dim(1), inWidth)
		}
		if item.Target.Dim(1) != outWidth {
			return nil, fmt.Errorf("item %d: target width %d does not match batch width %d",
				i, item.Target.Dim(1), outWidth)
		}
		if item.Input.Dim(0) != item.Target.Dim(0) {
			return nil, fmt.Errorf("item %d: input length %d does not match target length %d",
				i, item.Input.Dim(0), item.Target.Dim(0))
		}
		lengths[i] = item.Input.Dim(0)
		if lengths[i] > maxLen {
			maxLen = lengths[i]
		}
	}

	inputs, err := tensor.Zeros([]int{len(items), maxLen, inWidth})
	if err != nil {
		return nil, fmt.Errorf("failed to create batch input tensor: %w", err)
	}
	targets, err := tensor.Zeros([]int{len(items), maxLen, outWidth})
	if err != nil {
		return nil, fmt.Errorf("failed to create batch target tensor: %w", err)
	}

	for i, item := range items {
		copy(inputs.Data[i*maxLen*inWidth:], item.Input.Data)
		copy(targets.Data[i*maxLen*outWidth:], item.Target.Data)
	}

	return &Batch{Inputs: inputs, Targets: targets, Lengths: lengths}, nil
}
