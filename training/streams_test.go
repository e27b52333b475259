package training

import (
	"math"
	"testing"

	"github.com/tsawler/go-vox/errs"
)

func TestStreamWeightsProportional(t *testing.T) {
	tests := []struct {
		name  string
		sizes []int
		want  []float64
	}{
		{"two streams", []int{100, 300}, []float64{0.25, 0.75}},
		{"single stream", []int{60}, []float64{1.0}},
		{"acoustic streams", []int{180, 3, 1, 15}, []float64{180.0 / 199, 3.0 / 199, 1.0 / 199, 15.0 / 199}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StreamWeights(nil, tt.sizes)
			if err != nil {
				t.Fatalf("StreamWeights() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d weights, want %d", len(got), len(tt.want))
			}
			sum := 0.0
			for i, w := range tt.want {
				if math.Abs(got[i]-w) > 1e-12 {
					t.Errorf("weight %d = %v, want %v", i, got[i], w)
				}
				sum += got[i]
			}
			if math.Abs(sum-1.0) > 1e-12 {
				t.Errorf("weights sum to %v, want 1", sum)
			}
		})
	}
}

func TestStreamWeightsExplicitPassThrough(t *testing.T) {
	got, err := StreamWeights([]float64{1, 1}, []int{100, 300})
	if err != nil {
		t.Fatalf("StreamWeights() error = %v", err)
	}
	if got[0] != 1 || got[1] != 1 {
		t.Errorf("explicit weights = %v, want [1 1] unchanged", got)
	}
}

func TestStreamWeightsErrors(t *testing.T) {
	if _, err := StreamWeights([]float64{1}, []int{100, 300}); !errs.IsConfiguration(err) {
		t.Errorf("count mismatch should be a ConfigurationError, got %v", err)
	}
	if _, err := StreamWeights(nil, []int{0, 0}); !errs.IsConfiguration(err) {
		t.Errorf("zero total should be a ConfigurationError, got %v", err)
	}
}
