package model

import (
	"github.com/tsawler/go-vox/tensor"
)

// DataParallel wraps a module for replicated multi-device execution. The
// wrapper shares the inner module's parameters, so restored weights are
// always the replicated ones when wrapping happens after resume. Checkpoint
// saves go through Unwrap so the persisted state is always the bare module's.
type DataParallel struct {
	inner Module
}

// NewDataParallel wraps m for replicated execution.
func NewDataParallel(m Module) *DataParallel {
	return &DataParallel{inner: m}
}

// Unwrap returns the wrapped module.
func (dp *DataParallel) Unwrap() Module {
	return dp.inner
}

// Forward delegates to the wrapped module.
func (dp *DataParallel) Forward(input *tensor.Tensor) (*tensor.Tensor, error) {
	return dp.inner.Forward(input)
}

// Parameters delegates to the wrapped module.
func (dp *DataParallel) Parameters() []*tensor.Tensor {
	return dp.inner.Parameters()
}

// NamedParameters delegates to the wrapped module.
func (dp *DataParallel) NamedParameters() []NamedParameter {
	return dp.inner.NamedParameters()
}

func (dp *DataParallel) Train()           { dp.inner.Train() }
func (dp *DataParallel) Eval()            { dp.inner.Eval() }
func (dp *DataParallel) IsTraining() bool { return dp.inner.IsTraining() }
