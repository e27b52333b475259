package training

import (
	"math"
)

// LRScheduler defines a learning rate scheduling policy. Policies are pure
// functions of the epoch; per-session progress lives in Schedule.
type LRScheduler interface {
	// GetLR returns the learning rate for the given epoch.
	GetLR(epoch int, baseLR float64) float64

	// GetName returns the scheduler name for logging.
	GetName() string
}

// StepLRScheduler reduces learning rate by a factor every StepSize epochs.
type StepLRScheduler struct {
	StepSize int     // epochs between LR reductions
	Gamma    float64 // multiplicative factor of LR decay
}

// NewStepLRScheduler creates a step learning rate scheduler.
func NewStepLRScheduler(stepSize int, gamma float64) *StepLRScheduler {
	if stepSize <= 0 {
		stepSize = 30
	}
	if gamma <= 0 || gamma >= 1 {
		gamma = 0.1
	}
	return &StepLRScheduler{StepSize: stepSize, Gamma: gamma}
}

func (s *StepLRScheduler) GetLR(epoch int, baseLR float64) float64 {
	times := epoch / s.StepSize
	return baseLR * math.Pow(s.Gamma, float64(times))
}

func (s *StepLRScheduler) GetName() string {
	return "StepLR"
}

// ExponentialLRScheduler decays learning rate exponentially per epoch.
type ExponentialLRScheduler struct {
	Gamma float64
}

// NewExponentialLRScheduler creates an exponential learning rate scheduler.
func NewExponentialLRScheduler(gamma float64) *ExponentialLRScheduler {
	if gamma <= 0 || gamma >= 1 {
		gamma = 0.95
	}
	return &ExponentialLRScheduler{Gamma: gamma}
}

func (s *ExponentialLRScheduler) GetLR(epoch int, baseLR float64) float64 {
	return baseLR * math.Pow(s.Gamma, float64(epoch))
}

func (s *ExponentialLRScheduler) GetName() string {
	return "ExponentialLR"
}

// CosineAnnealingLRScheduler implements a cosine annealing schedule.
type CosineAnnealingLRScheduler struct {
	TMax   int     // epochs until the minimum is reached
	EtaMin float64 // minimum learning rate
}

// NewCosineAnnealingLRScheduler creates a cosine annealing scheduler.
func NewCosineAnnealingLRScheduler(tMax int, etaMin float64) *CosineAnnealingLRScheduler {
	if tMax <= 0 {
		tMax = 100
	}
	if etaMin < 0 {
		etaMin = 0
	}
	return &CosineAnnealingLRScheduler{TMax: tMax, EtaMin: etaMin}
}

func (s *CosineAnnealingLRScheduler) GetLR(epoch int, baseLR float64) float64 {
	if epoch >= s.TMax {
		return s.EtaMin
	}
	return s.EtaMin + (baseLR-s.EtaMin)*(1+math.Cos(math.Pi*float64(epoch)/float64(s.TMax)))/2
}

func (s *CosineAnnealingLRScheduler) GetName() string {
	return "CosineAnnealingLR"
}

// NoOpScheduler maintains a constant learning rate.
type NoOpScheduler struct{}

func (s *NoOpScheduler) GetLR(epoch int, baseLR float64) float64 {
	return baseLR
}

func (s *NoOpScheduler) GetName() string {
	return "ConstantLR"
}

// Schedule binds a scheduling policy to an optimizer instance and tracks the
// epoch counter, so that scheduler progress can be checkpointed and resumed.
type Schedule struct {
	policy LRScheduler
	opt    Optimizer
	baseLR float64
	epoch  int
}

// ScheduleState is a serializable snapshot of a schedule's progress.
type ScheduleState struct {
	Epoch     int     `json:"epoch"`
	BaseLR    float64 `json:"base_lr"`
	CurrentLR float64 `json:"current_lr"`
}

// NewSchedule binds policy to opt, taking the optimizer's current learning
// rate as the base rate.
func NewSchedule(policy LRScheduler, opt Optimizer) *Schedule {
	return &Schedule{
		policy: policy,
		opt:    opt,
		baseLR: opt.GetLR(),
	}
}

// Step advances the schedule by one epoch and applies the resulting learning
// rate to the bound optimizer.
func (s *Schedule) Step() {
	s.epoch++
	s.opt.SetLR(s.policy.GetLR(s.epoch, s.baseLR))
}

// Epoch returns the number of completed schedule steps.
func (s *Schedule) Epoch() int {
	return s.epoch
}

// Name returns the bound policy's name.
func (s *Schedule) Name() string {
	return s.policy.GetName()
}

// StateDict snapshots the schedule's progress.
func (s *Schedule) StateDict() ScheduleState {
	return ScheduleState{
		Epoch:     s.epoch,
		BaseLR:    s.baseLR,
		CurrentLR: s.opt.GetLR(),
	}
}

// LoadStateDict restores the schedule's progress and re-applies the saved
// learning rate to the bound optimizer.
func (s *Schedule) LoadStateDict(state ScheduleState) {
	s.epoch = state.Epoch
	s.baseLR = state.BaseLR
	s.opt.SetLR(state.CurrentLR)
}
