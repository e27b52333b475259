// Package scaler loads previously-fit feature normalization artifacts and
// applies them as element-wise affine transforms at training and inference
// boundaries. Fitting is external; only the application shape matters here.
package scaler

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tsawler/go-vox/errs"
)

// Kind selects the normalization parameter shape.
type Kind string

const (
	// MinMax scales features into a fixed range using fitted min/scale.
	MinMax Kind = "minmax"
	// Standard standardizes features using fitted mean/variance.
	Standard Kind = "standard"
)

// Scaler applies a fitted affine normalization to feature vectors.
type Scaler interface {
	// Transform normalizes one feature vector in place and returns it.
	Transform(x []float32) []float32
	// Inverse undoes the normalization in place and returns the vector.
	Inverse(x []float32) []float32
	// Dim returns the feature width the scaler was fit for.
	Dim() int
}

// MinMaxScaler holds fitted min-max parameters: x' = x*scale + min.
type MinMaxScaler struct {
	Min     []float32
	Scale   []float32
	DataMin []float32
	DataMax []float32
}

// Transform applies the min-max mapping.
func (s *MinMaxScaler) Transform(x []float32) []float32 {
	for i := range x {
		x[i] = x[i]*s.Scale[i] + s.Min[i]
	}
	return x
}

// Inverse undoes the min-max mapping.
func (s *MinMaxScaler) Inverse(x []float32) []float32 {
	for i := range x {
		x[i] = (x[i] - s.Min[i]) / s.Scale[i]
	}
	return x
}

// Dim returns the fitted feature width.
func (s *MinMaxScaler) Dim() int { return len(s.Scale) }

// StandardScaler holds fitted standardization parameters:
// x' = (x - mean) / scale.
type StandardScaler struct {
	Mean  []float32
	Var   []float32
	Scale []float32
}

// Transform applies the standardization.
func (s *StandardScaler) Transform(x []float32) []float32 {
	for i := range x {
		x[i] = (x[i] - s.Mean[i]) / s.Scale[i]
	}
	return x
}

// Inverse undoes the standardization.
func (s *StandardScaler) Inverse(x []float32) []float32 {
	for i := range x {
		x[i] = x[i]*s.Scale[i] + s.Mean[i]
	}
	return x
}

// Dim returns the fitted feature width.
func (s *StandardScaler) Dim() int { return len(s.Scale) }

// artifact is the persisted JSON shape. Exactly one of the two recognized
// field sets must be fully present for the requested kind.
type artifact struct {
	Min     []float32 `json:"min"`
	Scale   []float32 `json:"scale"`
	DataMin []float32 `json:"data_min"`
	DataMax []float32 `json:"data_max"`
	Mean    []float32 `json:"mean"`
	Var     []float32 `json:"var"`
}

// Load reads a persisted scaler artifact and projects its fields into a
// normalization value of the requested kind. An empty path returns a nil
// scaler, which callers must treat as the identity. Any read or
// deserialization failure is fatal; partial artifacts are rejected.
func Load(path string, kind Kind) (Scaler, error) {
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scaler artifact %s: %w", path, err)
	}

	var a artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("failed to decode scaler artifact %s: %w", path, err)
	}

	switch kind {
	case MinMax:
		if err := sameLength(path, a.Min, a.Scale, a.DataMin, a.DataMax); err != nil {
			return nil, err
		}
		return &MinMaxScaler{Min: a.Min, Scale: a.Scale, DataMin: a.DataMin, DataMax: a.DataMax}, nil
	case Standard:
		if err := sameLength(path, a.Mean, a.Var, a.Scale); err != nil {
			return nil, err
		}
		return &StandardScaler{Mean: a.Mean, Var: a.Var, Scale: a.Scale}, nil
	default:
		return nil, errs.Configf("unknown scaler kind %q, want %q or %q", kind, MinMax, Standard)
	}
}

func sameLength(path string, fields ...[]float32) error {
	width := len(fields[0])
	for _, f := range fields {
		if len(f) == 0 || len(f) != width {
			return fmt.Errorf("scaler artifact %s has an unrecognized shape", path)
		}
	}
	return nil
}
