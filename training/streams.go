package training

import (
	"github.com/tsawler/go-vox/errs"
)

// StreamWeights resolves per-stream loss weights. When explicit weights are
// given their count must equal the number of streams. Otherwise each stream
// is weighted by its size relative to the total, so the derived weights sum
// to 1.
func StreamWeights(explicit []float64, streamSizes []int) ([]float64, error) {
	if explicit != nil {
		if len(explicit) != len(streamSizes) {
			return nil, errs.Configf("stream weight count %d does not match stream count %d",
				len(explicit), len(streamSizes))
		}
		return explicit, nil
	}

	total := 0
	for _, size := range streamSizes {
		total += size
	}
	if total == 0 {
		return nil, errs.Configf("stream sizes sum to zero")
	}

	weights := make([]float64, len(streamSizes))
	for i, size := range streamSizes {
		weights[i] = float64(size) / float64(total)
	}
	return weights, nil
}
