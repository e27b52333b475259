package training

import (
	"fmt"
	"math"
	"sync"

	"github.com/tsawler/go-vox/errs"
	"github.com/tsawler/go-vox/tensor"
)

// Optimizer is the interface all optimizers implement. StateDict and
// LoadStateDict round-trip the optimizer's internal state (momentum buffers,
// moment estimates, step counters) through checkpoints.
type Optimizer interface {
	Step() error      // updates parameters from their gradients
	ZeroGrad()        // resets gradients for all parameters
	GetLR() float64   // current learning rate
	SetLR(lr float64) // sets learning rate
	StateDict() OptimizerState
	LoadStateDict(state OptimizerState) error
}

// OptimizerState is a serializable snapshot of an optimizer's internal state.
type OptimizerState struct {
	Type  string             `json:"type"`
	Step  int64              `json:"step"`
	Slots []StateTensor      `json:"slots"`
	Hyper map[string]float64 `json:"hyper"`
}

// StateTensor is one optimizer state buffer (velocity, moment estimate).
type StateTensor struct {
	Name  string    `json:"name"`
	Shape []int     `json:"shape"`
	Data  []float32 `json:"data"`
}

// SGD implements stochastic gradient descent with optional momentum,
// dampening, weight decay, and Nesterov updates.
type SGD struct {
	params       []*tensor.Tensor
	learningRate float64
	momentum     float64
	weightDecay  float64
	dampening    float64
	nesterov     bool
	velocities   [][]float32
	mu           sync.RWMutex
}

// NewSGD creates an SGD optimizer over the given parameters.
func NewSGD(params []*tensor.Tensor, lr, momentum, weightDecay, dampening float64, nesterov bool) *SGD {
	sgd := &SGD{
		params:       params,
		learningRate: lr,
		momentum:     momentum,
		weightDecay:  weightDecay,
		dampening:    dampening,
		nesterov:     nesterov,
	}
	if momentum > 0 {
		sgd.velocities = make([][]float32, len(params))
		for i, p := range params {
			sgd.velocities[i] = make([]float32, p.NumElems)
		}
	}
	return sgd
}

// Step performs a single optimization step.
func (sgd *SGD) Step() error {
	sgd.mu.Lock()
	defer sgd.mu.Unlock()

	for i, p := range sgd.params {
		grad := p.Grad()
		if grad == nil {
			continue
		}
		lr := float32(sgd.learningRate)
		wd := float32(sgd.weightDecay)
		mom := float32(sgd.momentum)
		damp := float32(sgd.dampening)

		for j := range p.Data {
			g := grad[j]
			if wd > 0 {
				g += wd * p.Data[j]
			}
			if mom > 0 {
				v := mom*sgd.velocities[i][j] + (1-damp)*g
				sgd.velocities[i][j] = v
				if sgd.nesterov {
					g += mom * v
				} else {
					g = v
				}
			}
			p.Data[j] -= lr * g
		}
	}
	return nil
}

// ZeroGrad resets gradients for all parameters.
func (sgd *SGD) ZeroGrad() {
	tensor.ZeroGrads(sgd.params)
}

// GetLR returns the current learning rate.
func (sgd *SGD) GetLR() float64 {
	sgd.mu.RLock()
	defer sgd.mu.RUnlock()
	return sgd.learningRate
}

// SetLR sets the learning rate.
func (sgd *SGD) SetLR(lr float64) {
	sgd.mu.Lock()
	defer sgd.mu.Unlock()
	sgd.learningRate = lr
}

// StateDict snapshots velocity buffers and hyperparameters.
func (sgd *SGD) StateDict() OptimizerState {
	sgd.mu.RLock()
	defer sgd.mu.RUnlock()

	state := OptimizerState{
		Type: "SGD",
		Hyper: map[string]float64{
			"lr":           sgd.learningRate,
			"momentum":     sgd.momentum,
			"weight_decay": sgd.weightDecay,
			"dampening":    sgd.dampening,
		},
	}
	for i, v := range sgd.velocities {
		state.Slots = append(state.Slots, StateTensor{
			Name:  fmt.Sprintf("velocity.%d", i),
			Shape: sgd.params[i].Shape,
			Data:  append([]float32(nil), v...),
		})
	}
	return state
}

// LoadStateDict restores velocity buffers and the learning rate.
func (sgd *SGD) LoadStateDict(state OptimizerState) error {
	sgd.mu.Lock()
	defer sgd.mu.Unlock()

	if state.Type != "SGD" {
		return errs.StateMismatchf("optimizer type %q does not match SGD", state.Type)
	}
	if len(state.Slots) != len(sgd.velocities) {
		return errs.StateMismatchf("SGD velocity count %d does not match %d", len(state.Slots), len(sgd.velocities))
	}
	for i, slot := range state.Slots {
		if len(slot.Data) != len(sgd.velocities[i]) {
			return errs.StateMismatchf("SGD velocity %d size %d does not match %d", i, len(slot.Data), len(sgd.velocities[i]))
		}
		copy(sgd.velocities[i], slot.Data)
	}
	if lr, ok := state.Hyper["lr"]; ok {
		sgd.learningRate = lr
	}
	return nil
}

// Adam implements the Adam optimizer.
type Adam struct {
	params      []*tensor.Tensor
	lr          float64
	beta1       float64
	beta2       float64
	eps         float64
	weightDecay float64
	step        int64
	m           [][]float32
	v           [][]float32
	mu          sync.RWMutex
}

// NewAdam creates an Adam optimizer over the given parameters.
func NewAdam(params []*tensor.Tensor, lr, beta1, beta2, eps, weightDecay float64) *Adam {
	adam := &Adam{
		params:      params,
		lr:          lr,
		beta1:       beta1,
		beta2:       beta2,
		eps:         eps,
		weightDecay: weightDecay,
		m:           make([][]float32, len(params)),
		v:           make([][]float32, len(params)),
	}
	for i, p := range params {
		adam.m[i] = make([]float32, p.NumElems)
		adam.v[i] = make([]float32, p.NumElems)
	}
	return adam
}

// Step performs a single optimization step.
func (adam *Adam) Step() error {
	adam.mu.Lock()
	defer adam.mu.Unlock()

	adam.step++
	bias1 := 1.0 - math.Pow(adam.beta1, float64(adam.step))
	bias2 := 1.0 - math.Pow(adam.beta2, float64(adam.step))

	for i, p := range adam.params {
		grad := p.Grad()
		if grad == nil {
			continue
		}
		for j := range p.Data {
			g := float64(grad[j])
			if adam.weightDecay > 0 {
				g += adam.weightDecay * float64(p.Data[j])
			}
			m := adam.beta1*float64(adam.m[i][j]) + (1-adam.beta1)*g
			v := adam.beta2*float64(adam.v[i][j]) + (1-adam.beta2)*g*g
			adam.m[i][j] = float32(m)
			adam.v[i][j] = float32(v)

			mHat := m / bias1
			vHat := v / bias2
			p.Data[j] -= float32(adam.lr * mHat / (math.Sqrt(vHat) + adam.eps))
		}
	}
	return nil
}

// ZeroGrad resets gradients for all parameters.
func (adam *Adam) ZeroGrad() {
	tensor.ZeroGrads(adam.params)
}

// GetLR returns the current learning rate.
func (adam *Adam) GetLR() float64 {
	adam.mu.RLock()
	defer adam.mu.RUnlock()
	return adam.lr
}

// SetLR sets the learning rate.
func (adam *Adam) SetLR(lr float64) {
	adam.mu.Lock()
	defer adam.mu.Unlock()
	adam.lr = lr
}

// StateDict snapshots moment estimates, the step counter, and
// hyperparameters.
func (adam *Adam) StateDict() OptimizerState {
	adam.mu.RLock()
	defer adam.mu.RUnlock()

	state := OptimizerState{
		Type: "Adam",
		Step: adam.step,
		Hyper: map[string]float64{
			"lr":           adam.lr,
			"beta1":        adam.beta1,
			"beta2":        adam.beta2,
			"eps":          adam.eps,
			"weight_decay": adam.weightDecay,
		},
	}
	for i := range adam.params {
		state.Slots = append(state.Slots,
			StateTensor{
				Name:  fmt.Sprintf("m.%d", i),
				Shape: adam.params[i].Shape,
				Data:  append([]float32(nil), adam.m[i]...),
			},
			StateTensor{
				Name:  fmt.Sprintf("v.%d", i),
				Shape: adam.params[i].Shape,
				Data:  append([]float32(nil), adam.v[i]...),
			})
	}
	return state
}

// LoadStateDict restores moment estimates, the step counter, and the
// learning rate.
func (adam *Adam) LoadStateDict(state OptimizerState) error {
	adam.mu.Lock()
	defer adam.mu.Unlock()

	if state.Type != "Adam" {
		return errs.StateMismatchf("optimizer type %q does not match Adam", state.Type)
	}
	if len(state.Slots) != 2*len(adam.params) {
		return errs.StateMismatchf("Adam slot count %d does not match %d", len(state.Slots), 2*len(adam.params))
	}
	for i := range adam.params {
		mSlot := state.Slots[2*i]
		vSlot := state.Slots[2*i+1]
		if len(mSlot.Data) != len(adam.m[i]) || len(vSlot.Data) != len(adam.v[i]) {
			return errs.StateMismatchf("Adam moment %d size does not match parameter size %d", i, len(adam.m[i]))
		}
		copy(adam.m[i], mSlot.Data)
		copy(adam.v[i], vSlot.Data)
	}
	adam.step = state.Step
	if lr, ok := state.Hyper["lr"]; ok {
		adam.lr = lr
	}
	return nil
}
