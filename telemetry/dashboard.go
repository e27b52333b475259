package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DashboardBackend writes run events as JSON lines into a log directory, for
// consumption by a dashboard that tails the event file.
type DashboardBackend struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

type dashboardEvent struct {
	Time  int64       `json:"time"`
	Kind  string      `json:"kind"` // "param" or "metric"
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
	Step  int         `json:"step,omitempty"`
}

// NewDashboard opens an event writer in logDir, creating the directory if
// absent.
func NewDashboard(logDir string) (*DashboardBackend, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create dashboard log directory: %w", err)
	}

	path := filepath.Join(logDir, fmt.Sprintf("events.%d.jsonl", time.Now().Unix()))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open dashboard event file: %w", err)
	}

	return &DashboardBackend{f: f, enc: json.NewEncoder(f)}, nil
}

// LogParam writes a param event line.
func (d *DashboardBackend) LogParam(key string, value interface{}) error {
	return d.write(dashboardEvent{Time: time.Now().UnixMilli(), Kind: "param", Key: key, Value: value})
}

// LogMetric writes a metric event line.
func (d *DashboardBackend) LogMetric(name string, value float64, step int) error {
	return d.write(dashboardEvent{Time: time.Now().UnixMilli(), Kind: "metric", Key: name, Value: value, Step: step})
}

func (d *DashboardBackend) write(ev dashboardEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.enc.Encode(ev); err != nil {
		return fmt.Errorf("failed to write dashboard event: %w", err)
	}
	return nil
}

// Close closes the event file.
func (d *DashboardBackend) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.f.Close()
}
