package model

import (
	"fmt"
	"math/rand"

	"github.com/tsawler/go-vox/tensor"
)

// FeedForward is a stack of Linear layers with ReLU activations between
// them, applied frame-wise over a feature sequence.
type FeedForward struct {
	layers   []*Linear
	training bool
}

// NewFeedForward builds a network mapping inDim features through numLayers
// hidden layers of hiddenDim units to outDim features. Weights are
// initialized deterministically from rng.
func NewFeedForward(inDim, hiddenDim, outDim, numLayers int, rng *rand.Rand) (*FeedForward, error) {
	if numLayers < 1 {
		return nil, fmt.Errorf("feed-forward network needs at least one hidden layer, got %d", numLayers)
	}

	dims := []int{inDim}
	for i := 0; i < numLayers; i++ {
		dims = append(dims, hiddenDim)
	}
	dims = append(dims, outDim)

	ff := &FeedForward{training: true}
	for i := 0; i < len(dims)-1; i++ {
		layer, err := NewLinear(dims[i], dims[i+1], true, rng)
		if err != nil {
			return nil, fmt.Errorf("failed to build layer %d: %w", i, err)
		}
		ff.layers = append(ff.layers, layer)
	}
	return ff, nil
}

// Forward runs the network, applying ReLU after every layer but the last.
func (ff *FeedForward) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	x := input
	for i, layer := range ff.layers {
		out, err := layer.Forward(x)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		if i < len(ff.layers)-1 {
			for j, v := range out.Data {
				if v < 0 {
					out.Data[j] = 0
				}
			}
		}
		x = out
	}
	return x, nil
}

// Parameters returns all trainable parameters in layer order.
func (ff *FeedForward) Parameters() []*tensor.Tensor {
	var params []*tensor.Tensor
	for _, layer := range ff.layers {
		params = append(params, layer.Parameters()...)
	}
	return params
}

// NamedParameters returns parameters named by layer index and role.
func (ff *FeedForward) NamedParameters() []NamedParameter {
	var named []NamedParameter
	for i, layer := range ff.layers {
		named = append(named, NamedParameter{
			Name:   fmt.Sprintf("layers.%d.weight", i),
			Tensor: layer.weight,
		})
		if layer.bias != nil {
			named = append(named, NamedParameter{
				Name:   fmt.Sprintf("layers.%d.bias", i),
				Tensor: layer.bias,
			})
		}
	}
	return named
}

// Train sets training mode on all layers.
func (ff *FeedForward) Train() {
	ff.training = true
	for _, layer := range ff.layers {
		layer.Train()
	}
}

// Eval sets evaluation mode on all layers.
func (ff *FeedForward) Eval() {
	ff.training = false
	for _, layer := range ff.layers {
		layer.Eval()
	}
}

func (ff *FeedForward) IsTraining() bool { return ff.training }
