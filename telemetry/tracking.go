package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TrackingBackend is a file-backed experiment-tracking store. Each run gets
// a unique directory under <root>/<experiment>/<run-id>/ holding one file
// per parameter and an append-only history file per metric.
type TrackingBackend struct {
	runDir string
	runID  string

	mu sync.Mutex
}

// NewTracking opens a new run in the experiment's run store.
func NewTracking(root, experiment string) (*TrackingBackend, error) {
	if root == "" {
		root = "mlruns"
	}
	if experiment == "" {
		experiment = "default"
	}

	runID := uuid.NewString()
	runDir := filepath.Join(root, experiment, runID)
	for _, sub := range []string{"params", "metrics"} {
		if err := os.MkdirAll(filepath.Join(runDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create tracking run directory: %w", err)
		}
	}

	return &TrackingBackend{runDir: runDir, runID: runID}, nil
}

// RunID returns the unique identifier of this run.
func (t *TrackingBackend) RunID() string {
	return t.runID
}

// RunDir returns the run's directory in the tracking store.
func (t *TrackingBackend) RunDir() string {
	return t.runDir
}

// LogParam writes one parameter file. Parameters are immutable per run; the
// last write wins if a key repeats.
func (t *TrackingBackend) LogParam(key string, value interface{}) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	path := filepath.Join(t.runDir, "params", key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create param directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(fmt.Sprintf("%v\n", value)), 0o644); err != nil {
		return fmt.Errorf("failed to write param %s: %w", key, err)
	}
	return nil
}

// LogMetric appends one "<timestamp> <value> <step>" line to the metric's
// history file.
func (t *TrackingBackend) LogMetric(name string, value float64, step int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	path := filepath.Join(t.runDir, "metrics", name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open metric %s: %w", name, err)
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "%d %g %d\n", time.Now().UnixMilli(), value, step)
	if err != nil {
		return fmt.Errorf("failed to append metric %s: %w", name, err)
	}
	return nil
}

// Close is a no-op; every write is flushed eagerly.
func (t *TrackingBackend) Close() error {
	return nil
}
