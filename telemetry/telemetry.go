// Package telemetry provides the mutually exclusive experiment telemetry
// backends: an experiment-tracking run store and a dashboard event writer.
// The choice is made once at session-build time as a single-variant
// selection; at most one backend is ever active.
package telemetry

// Backend records parameters and metrics for one training run.
type Backend interface {
	// LogParam records one resolved configuration parameter.
	LogParam(key string, value interface{}) error
	// LogMetric records a scalar metric at a training step.
	LogMetric(name string, value float64, step int) error
	// Close flushes and releases the backend.
	Close() error
}

// Config selects the telemetry backend for a session.
type Config struct {
	TrackingEnabled bool   // use the experiment-tracking store
	TrackingDir     string // root directory of the tracking store
	Experiment      string // experiment name within the tracking store
	LogDir          string // dashboard event directory; empty disables
}

// Select decides the backend once from configuration. When tracking is
// enabled the dashboard writer is never built; with tracking disabled and no
// log directory configured, telemetry is off and a nil backend is returned.
func Select(cfg Config) (Backend, error) {
	if cfg.TrackingEnabled {
		return NewTracking(cfg.TrackingDir, cfg.Experiment)
	}
	if cfg.LogDir != "" {
		return NewDashboard(cfg.LogDir)
	}
	return nil, nil
}
