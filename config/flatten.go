package config

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Param is one scalar configuration leaf with its dotted/indexed path.
type Param struct {
	Key   string
	Value interface{}
}

// Flatten walks the configuration tree and emits one key/value pair per
// scalar leaf. Nested mappings contribute dotted segments, lists contribute
// numeric indexes, so "train.optim.optimizer.params.lr" and
// "model.stream_sizes.0" are typical keys. Map keys are visited in sorted
// order so the output is deterministic.
func (c *Config) Flatten() ([]Param, error) {
	// Round-trip through YAML to obtain the generic {scalar, list, mapping}
	// tree that the visitor recurses over.
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	var tree map[string]interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to rebuild config tree: %w", err)
	}

	var out []Param
	visit("", tree, &out)
	return out, nil
}

func visit(prefix string, node interface{}, out *[]Param) {
	switch n := node.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			visit(join(prefix, k), n[k], out)
		}
	case []interface{}:
		for i, v := range n {
			visit(join(prefix, fmt.Sprintf("%d", i)), v, out)
		}
	default:
		*out = append(*out, Param{Key: prefix, Value: n})
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
