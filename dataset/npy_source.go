package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sbinet/npyio"

	"github.com/tsawler/go-vox/errs"
	"github.com/tsawler/go-vox/tensor"
)

// DefaultFeatureSuffix is the naming pattern for per-utterance feature files.
const DefaultFeatureSuffix = "-feats.npy"

// NpyFileSource discovers NumPy feature files in a directory and loads each
// as a float32 (T, D) matrix. File order is deterministic: lexicographically
// sorted by filename.
type NpyFileSource struct {
	paths []string
}

// NewNpyFileSource scans dir for files ending in suffix (DefaultFeatureSuffix
// when empty). It fails with a NotFoundError when the directory contains zero
// matching files.
func NewNpyFileSource(dir, suffix string) (*NpyFileSource, error) {
	if suffix == "" {
		suffix = DefaultFeatureSuffix
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*"+suffix))
	if err != nil {
		return nil, fmt.Errorf("failed to list feature files: %w", err)
	}
	if len(paths) == 0 {
		return nil, errs.NotFound("no feature files matching *"+suffix, dir)
	}
	sort.Strings(paths)

	return &NpyFileSource{paths: paths}, nil
}

// Len returns the number of discovered feature files.
func (s *NpyFileSource) Len() int {
	return len(s.paths)
}

// Paths returns the sorted feature file paths.
func (s *NpyFileSource) Paths() []string {
	return s.paths
}

// Get loads the feature file at index as a float32 (T, D) tensor. 1-D arrays
// are shaped (T, 1).
func (s *NpyFileSource) Get(index int) (*tensor.Tensor, error) {
	if index < 0 || index >= len(s.paths) {
		return nil, fmt.Errorf("index %d out of range [0, %d)", index, len(s.paths))
	}
	return loadNpy(s.paths[index])
}

func loadNpy(path string) (*tensor.Tensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open feature file %s: %w", path, err)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read npy header of %s: %w", path, err)
	}

	shape := r.Header.Descr.Shape
	var dims []int
	switch len(shape) {
	case 1:
		dims = []int{shape[0], 1}
	case 2:
		dims = []int{shape[0], shape[1]}
	default:
		return nil, fmt.Errorf("feature file %s has %d dimensions, want 1 or 2", path, len(shape))
	}

	data, err := readFloat32(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read feature data of %s: %w", path, err)
	}

	t, err := tensor.New(dims, data)
	if err != nil {
		return nil, fmt.Errorf("feature file %s: %w", path, err)
	}
	return t, nil
}

// readFloat32 decodes the array payload as float32, converting from float64
// when the file was written at double precision.
func readFloat32(r *npyio.Reader) ([]float32, error) {
	switch r.Header.Descr.Type {
	case "<f4", "|f4", ">f4", "f4":
		var f32 []float32
		if err := r.Read(&f32); err != nil {
			return nil, err
		}
		return f32, nil
	case "<f8", "|f8", ">f8", "f8":
		var f64 []float64
		if err := r.Read(&f64); err != nil {
			return nil, err
		}
		out := make([]float32, len(f64))
		for i, v := range f64 {
			out[i] = float32(v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported dtype %q, want float32 or float64", r.Header.Descr.Type)
	}
}
