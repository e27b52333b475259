// Package model defines the network module contract, the symbolic-name
// registry that instantiates architectures from configuration, and the
// parallel-replication wrapper used for multi-device training.
package model

import (
	"github.com/tsawler/go-vox/tensor"
)

// Module is the interface all network architectures implement.
type Module interface {
	// Forward runs the network on a (B, T, D) or (T, D) input.
	Forward(input *tensor.Tensor) (*tensor.Tensor, error)
	// Parameters returns the trainable parameters.
	Parameters() []*tensor.Tensor
	// NamedParameters returns trainable parameters with stable names for
	// checkpointing.
	NamedParameters() []NamedParameter
	Train()            // sets training mode
	Eval()             // sets evaluation mode
	IsTraining() bool  // reports training mode
}

// NamedParameter pairs a parameter tensor with its checkpoint name.
type NamedParameter struct {
	Name   string
	Tensor *tensor.Tensor
}

// NumTrainableParams counts the trainable parameter elements of a module.
func NumTrainableParams(m Module) int {
	total := 0
	for _, p := range m.Parameters() {
		total += p.NumElems
	}
	return total
}
