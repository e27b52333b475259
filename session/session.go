// Package session assembles a fully-built, ready-to-train state from a
// declarative configuration: model(s), optimizer(s), schedule(s), data
// loaders, telemetry, and feature normalizers. Construction either yields a
// complete session or fails entirely; there is no partial session state.
package session

import (
	"github.com/rs/zerolog"

	"github.com/tsawler/go-vox/checkpoints"
	"github.com/tsawler/go-vox/model"
	"github.com/tsawler/go-vox/scaler"
	"github.com/tsawler/go-vox/seed"
	"github.com/tsawler/go-vox/telemetry"
	"github.com/tsawler/go-vox/training"
)

// Loaders holds the two independent batch providers, one per split.
type Loaders struct {
	Train *training.DataLoader
	Dev   *training.DataLoader
}

// Net bundles one network with its optimizer and schedule.
type Net struct {
	Model     model.Module
	Optimizer training.Optimizer
	Schedule  *training.Schedule

	// replicated is set when Model is wrapped for multi-device execution;
	// checkpoint snapshots always go through its Unwrap.
	replicated *model.DataParallel
}

// Snapshot captures the network's current state as a checkpoint for epoch.
// In replicated mode the bare module is unwrapped first, so the persisted
// state never contains the wrapper.
func (n *Net) Snapshot(epoch int) *checkpoints.Checkpoint {
	m := n.Model
	if n.replicated != nil {
		m = n.replicated.Unwrap()
	}
	return checkpoints.Snapshot(m, n.Optimizer, n.Schedule, epoch)
}

// Session is a ready-to-train single-network bundle.
type Session struct {
	Net
	Loaders   Loaders
	Telemetry telemetry.Backend // nil when telemetry is off
	InScaler  scaler.Scaler     // nil means identity
	OutScaler scaler.Scaler     // nil means identity
	Log       zerolog.Logger
	Seeds     *seed.Context
	Store     *checkpoints.Store
}

// GANSession is a ready-to-train dual-network bundle. The generator and
// discriminator share one data pipeline and one telemetry backend but are
// otherwise independent, including their resume states.
type GANSession struct {
	Generator     Net
	Discriminator Net
	Loaders       Loaders
	Telemetry     telemetry.Backend
	InScaler      scaler.Scaler
	OutScaler     scaler.Scaler
	Log           zerolog.Logger
	Seeds         *seed.Context
	Store         *checkpoints.Store
}
