package training

import (
	"sort"

	"github.com/tsawler/go-vox/errs"
	"github.com/tsawler/go-vox/tensor"
)

// OptimizerBuilder constructs an optimizer over model parameters from a
// declarative parameter mapping.
type OptimizerBuilder func(params []*tensor.Tensor, cfg map[string]interface{}) (Optimizer, error)

// SchedulerBuilder constructs a scheduling policy from a declarative
// parameter mapping.
type SchedulerBuilder func(cfg map[string]interface{}) (LRScheduler, error)

// The registries are the only way symbolic names from configuration resolve
// to implementations; unknown names fail with a ConfigurationError rather
// than a dynamic lookup failure.
var optimizerRegistry = map[string]OptimizerBuilder{
	"SGD":  buildSGD,
	"Adam": buildAdam,
}

var schedulerRegistry = map[string]SchedulerBuilder{
	"StepLR":            buildStepLR,
	"ExponentialLR":     buildExponentialLR,
	"CosineAnnealingLR": buildCosineAnnealingLR,
	"ConstantLR":        buildConstantLR,
}

// OptimizerNames returns the registered optimizer names, sorted.
func OptimizerNames() []string {
	return registryNames(optimizerRegistry)
}

// SchedulerNames returns the registered scheduler names, sorted.
func SchedulerNames() []string {
	return registryNames(schedulerRegistry)
}

// BuildOptimizer resolves name against the optimizer registry and constructs
// the optimizer over params with the declared parameter mapping.
func BuildOptimizer(name string, cfg map[string]interface{}, params []*tensor.Tensor) (Optimizer, error) {
	builder, ok := optimizerRegistry[name]
	if !ok {
		return nil, errs.Configf("unknown optimizer %q, known: %v", name, OptimizerNames())
	}
	return builder(params, cfg)
}

// BuildSchedule resolves name against the scheduler registry, constructs the
// policy with the declared parameter mapping, and binds it to opt.
func BuildSchedule(name string, cfg map[string]interface{}, opt Optimizer) (*Schedule, error) {
	builder, ok := schedulerRegistry[name]
	if !ok {
		return nil, errs.Configf("unknown lr scheduler %q, known: %v", name, SchedulerNames())
	}
	policy, err := builder(cfg)
	if err != nil {
		return nil, err
	}
	return NewSchedule(policy, opt), nil
}

// BuildOptim constructs an optimizer and its bound schedule from symbolic
// names and parameter mappings.
func BuildOptim(optName string, optCfg map[string]interface{}, schedName string, schedCfg map[string]interface{}, params []*tensor.Tensor) (Optimizer, *Schedule, error) {
	opt, err := BuildOptimizer(optName, optCfg, params)
	if err != nil {
		return nil, nil, err
	}
	sched, err := BuildSchedule(schedName, schedCfg, opt)
	if err != nil {
		return nil, nil, err
	}
	return opt, sched, nil
}

func buildSGD(params []*tensor.Tensor, cfg map[string]interface{}) (Optimizer, error) {
	p := newParamReader("SGD", cfg)
	lr := p.requireFloat("lr")
	momentum := p.float("momentum", 0)
	weightDecay := p.float("weight_decay", 0)
	dampening := p.float("dampening", 0)
	nesterov := p.bool("nesterov", false)
	if err := p.finish(); err != nil {
		return nil, err
	}
	return NewSGD(params, lr, momentum, weightDecay, dampening, nesterov), nil
}

func buildAdam(params []*tensor.Tensor, cfg map[string]interface{}) (Optimizer, error) {
	p := newParamReader("Adam", cfg)
	lr := p.requireFloat("lr")
	beta1 := p.float("beta1", 0.9)
	beta2 := p.float("beta2", 0.999)
	eps := p.float("eps", 1e-8)
	weightDecay := p.float("weight_decay", 0)
	if err := p.finish(); err != nil {
		return nil, err
	}
	return NewAdam(params, lr, beta1, beta2, eps, weightDecay), nil
}

func buildStepLR(cfg map[string]interface{}) (LRScheduler, error) {
	p := newParamReader("StepLR", cfg)
	stepSize := p.requireInt("step_size")
	gamma := p.requireFloat("gamma")
	if err := p.finish(); err != nil {
		return nil, err
	}
	return NewStepLRScheduler(stepSize, gamma), nil
}

func buildExponentialLR(cfg map[string]interface{}) (LRScheduler, error) {
	p := newParamReader("ExponentialLR", cfg)
	gamma := p.requireFloat("gamma")
	if err := p.finish(); err != nil {
		return nil, err
	}
	return NewExponentialLRScheduler(gamma), nil
}

func buildCosineAnnealingLR(cfg map[string]interface{}) (LRScheduler, error) {
	p := newParamReader("CosineAnnealingLR", cfg)
	tMax := p.requireInt("t_max")
	etaMin := p.float("eta_min", 0)
	if err := p.finish(); err != nil {
		return nil, err
	}
	return NewCosineAnnealingLRScheduler(tMax, etaMin), nil
}

func buildConstantLR(cfg map[string]interface{}) (LRScheduler, error) {
	p := newParamReader("ConstantLR", cfg)
	if err := p.finish(); err != nil {
		return nil, err
	}
	return &NoOpScheduler{}, nil
}

// paramReader unpacks a declarative parameter mapping with typed accessors.
// The first missing or mistyped key is reported through finish as a
// ConfigurationError; unrecognized keys are also rejected, matching the
// keyword-argument strictness of the registered constructors.
type paramReader struct {
	target string
	cfg    map[string]interface{}
	seen   map[string]bool
	err    error
}

func newParamReader(target string, cfg map[string]interface{}) *paramReader {
	return &paramReader{target: target, cfg: cfg, seen: make(map[string]bool)}
}

func (p *paramReader) requireFloat(key string) float64 {
	p.seen[key] = true
	v, ok := p.cfg[key]
	if !ok {
		p.fail(errs.Configf("%s: required parameter %q is missing", p.target, key))
		return 0
	}
	return p.asFloat(key, v)
}

func (p *paramReader) float(key string, def float64) float64 {
	p.seen[key] = true
	v, ok := p.cfg[key]
	if !ok {
		return def
	}
	return p.asFloat(key, v)
}

func (p *paramReader) requireInt(key string) int {
	p.seen[key] = true
	v, ok := p.cfg[key]
	if !ok {
		p.fail(errs.Configf("%s: required parameter %q is missing", p.target, key))
		return 0
	}
	return p.asInt(key, v)
}

func (p *paramReader) bool(key string, def bool) bool {
	p.seen[key] = true
	v, ok := p.cfg[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		p.fail(errs.Configf("%s: parameter %q must be a bool, got %T", p.target, key, v))
		return def
	}
	return b
}

func (p *paramReader) asFloat(key string, v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	p.fail(errs.Configf("%s: parameter %q must be a number, got %T", p.target, key, v))
	return 0
}

func (p *paramReader) asInt(key string, v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == float64(int(n)) {
			return int(n)
		}
	}
	p.fail(errs.Configf("%s: parameter %q must be an integer, got %v (%T)", p.target, key, v, v))
	return 0
}

func (p *paramReader) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *paramReader) finish() error {
	if p.err != nil {
		return p.err
	}
	for key := range p.cfg {
		if !p.seen[key] {
			return errs.Configf("%s: unrecognized parameter %q", p.target, key)
		}
	}
	return nil
}

func registryNames[T any](registry map[string]T) []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
