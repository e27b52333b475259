package model

import (
	"math/rand"
	"sort"

	"github.com/tsawler/go-vox/errs"
)

// Builder constructs a network architecture from a declarative parameter
// mapping, drawing initial weights from rng.
type Builder func(params map[string]interface{}, rng *rand.Rand) (Module, error)

var registry = map[string]Builder{
	"FeedForward": buildFeedForward,
}

// Names returns the registered architecture names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds an architecture constructor under a symbolic name, letting
// callers extend the registry with their own networks at process start.
func Register(name string, builder Builder) {
	registry[name] = builder
}

// Build resolves name against the architecture registry and constructs the
// network with the declared parameter mapping.
func Build(name string, params map[string]interface{}, rng *rand.Rand) (Module, error) {
	builder, ok := registry[name]
	if !ok {
		return nil, errs.Configf("unknown model %q, known: %v", name, Names())
	}
	return builder(params, rng)
}

func buildFeedForward(params map[string]interface{}, rng *rand.Rand) (Module, error) {
	inDim, err := intParam(params, "in_dim")
	if err != nil {
		return nil, err
	}
	hiddenDim, err := intParam(params, "hidden_dim")
	if err != nil {
		return nil, err
	}
	outDim, err := intParam(params, "out_dim")
	if err != nil {
		return nil, err
	}
	numLayers, err := intParam(params, "num_layers")
	if err != nil {
		return nil, err
	}
	return NewFeedForward(inDim, hiddenDim, outDim, numLayers, rng)
}

func intParam(params map[string]interface{}, key string) (int, error) {
	v, ok := params[key]
	if !ok {
		return 0, errs.Configf("model: required parameter %q is missing", key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n == float64(int(n)) {
			return int(n), nil
		}
	}
	return 0, errs.Configf("model: parameter %q must be an integer, got %v (%T)", key, v, v)
}
