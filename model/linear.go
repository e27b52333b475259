package model

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/tsawler/go-vox/tensor"
)

// Linear implements a fully connected layer: y = xW + b.
type Linear struct {
	weight   *tensor.Tensor
	bias     *tensor.Tensor
	training bool
}

// NewLinear creates a Linear layer with Xavier/Glorot uniform initialization
// drawn from rng.
func NewLinear(inputSize, outputSize int, bias bool, rng *rand.Rand) (*Linear, error) {
	if inputSize <= 0 || outputSize <= 0 {
		return nil, fmt.Errorf("linear layer sizes must be positive, got %d and %d", inputSize, outputSize)
	}

	// W ~ U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
	bound := math.Sqrt(6.0 / float64(inputSize+outputSize))
	weightData := make([]float32, inputSize*outputSize)
	for i := range weightData {
		weightData[i] = float32((rng.Float64()*2.0 - 1.0) * bound)
	}

	weight, err := tensor.New([]int{inputSize, outputSize}, weightData)
	if err != nil {
		return nil, fmt.Errorf("failed to create weight tensor: %w", err)
	}
	weight.SetRequiresGrad(true)

	l := &Linear{weight: weight, training: true}

	if bias {
		biasT, err := tensor.Zeros([]int{outputSize})
		if err != nil {
			return nil, fmt.Errorf("failed to create bias tensor: %w", err)
		}
		biasT.SetRequiresGrad(true)
		l.bias = biasT
	}

	return l, nil
}

// Forward applies the layer along the last dimension of a 2-D or 3-D input.
func (l *Linear) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	nd := len(input.Shape)
	if nd != 2 && nd != 3 {
		return nil, fmt.Errorf("linear layer expects 2-D or 3-D input, got shape %v", input.Shape)
	}

	inSize := l.weight.Dim(0)
	outSize := l.weight.Dim(1)
	width := input.Shape[nd-1]
	if width != inSize {
		return nil, fmt.Errorf("input width mismatch: expected %d, got %d", inSize, width)
	}

	rows := input.NumElems / width
	outShape := append(append([]int{}, input.Shape[:nd-1]...), outSize)
	out, err := tensor.Zeros(outShape)
	if err != nil {
		return nil, err
	}

	for r := 0; r < rows; r++ {
		in := input.Data[r*inSize : (r+1)*inSize]
		o := out.Data[r*outSize : (r+1)*outSize]
		if l.bias != nil {
			copy(o, l.bias.Data)
		}
		for i, x := range in {
			if x == 0 {
				continue
			}
			w := l.weight.Data[i*outSize : (i+1)*outSize]
			for j, wv := range w {
				o[j] += x * wv
			}
		}
	}
	return out, nil
}

// Parameters returns the layer's trainable parameters.
func (l *Linear) Parameters() []*tensor.Tensor {
	if l.bias != nil {
		return []*tensor.Tensor{l.weight, l.bias}
	}
	return []*tensor.Tensor{l.weight}
}

func (l *Linear) Train()           { l.training = true }
func (l *Linear) Eval()            { l.training = false }
func (l *Linear) IsTraining() bool { return l.training }
