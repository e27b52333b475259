// Package checkpoints persists and restores {model weights, optimizer state,
// scheduler state} as a single atomic unit, and maintains a "latest" alias
// so that resuming the most recent save never needs the last epoch number.
package checkpoints

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tsawler/go-vox/errs"
	"github.com/tsawler/go-vox/model"
	"github.com/tsawler/go-vox/training"
)

// WeightTensor is one named model parameter with its data.
type WeightTensor struct {
	Name  string    `json:"name"`
	Shape []int     `json:"shape"`
	Data  []float32 `json:"data"`
}

// Checkpoint is an immutable snapshot of model, optimizer, and scheduler
// state tagged with an epoch number. It is created from live session state
// at save time and never mutated afterwards.
type Checkpoint struct {
	StateDict      []WeightTensor          `json:"state_dict"`
	OptimizerState training.OptimizerState `json:"optimizer_state"`
	SchedulerState training.ScheduleState  `json:"lr_scheduler_state"`
	Epoch          int                     `json:"epoch"`
	Best           bool                    `json:"best,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
}

// Snapshot captures the current state of a model, optimizer, and schedule as
// a checkpoint for epoch. The caller is responsible for passing the bare
// model: in replicated mode, unwrap before snapshotting.
func Snapshot(m model.Module, opt training.Optimizer, sched *training.Schedule, epoch int) *Checkpoint {
	return &Checkpoint{
		StateDict:      ExtractState(m),
		OptimizerState: opt.StateDict(),
		SchedulerState: sched.StateDict(),
		Epoch:          epoch,
		CreatedAt:      time.Now(),
	}
}

// ExtractState copies a module's named parameters into weight tensors.
func ExtractState(m model.Module) []WeightTensor {
	named := m.NamedParameters()
	weights := make([]WeightTensor, 0, len(named))
	for _, np := range named {
		weights = append(weights, WeightTensor{
			Name:  np.Name,
			Shape: append([]int(nil), np.Tensor.Shape...),
			Data:  append([]float32(nil), np.Tensor.Data...),
		})
	}
	return weights
}

// ApplyState loads weight tensors back into a module's parameters. Shape
// incompatibility fails with a StateMismatchError; partial loading is not
// supported.
func ApplyState(m model.Module, weights []WeightTensor) error {
	named := m.NamedParameters()
	if len(weights) != len(named) {
		return errs.StateMismatchf("checkpoint has %d parameters, model has %d", len(weights), len(named))
	}

	byName := make(map[string]WeightTensor, len(weights))
	for _, w := range weights {
		byName[w.Name] = w
	}

	for _, np := range named {
		w, ok := byName[np.Name]
		if !ok {
			return errs.StateMismatchf("checkpoint is missing parameter %q", np.Name)
		}
		if len(w.Shape) != len(np.Tensor.Shape) {
			return errs.StateMismatchf("parameter %q: checkpoint shape %v does not match model shape %v",
				np.Name, w.Shape, np.Tensor.Shape)
		}
		for i, dim := range w.Shape {
			if dim != np.Tensor.Shape[i] {
				return errs.StateMismatchf("parameter %q: checkpoint shape %v does not match model shape %v",
					np.Name, w.Shape, np.Tensor.Shape)
			}
		}
	}

	// All shapes verified; apply in one pass so a failure cannot leave the
	// model half-loaded.
	for _, np := range named {
		copy(np.Tensor.Data, byName[np.Name].Data)
	}
	return nil
}

// Store saves and loads checkpoints in a directory.
type Store struct{}

// NewStore creates a checkpoint store.
func NewStore() *Store {
	return &Store{}
}

// Save serializes ckpt into dir, creating the directory if absent. Best
// checkpoints are named best_loss{tag}.json; periodic ones
// epoch{NNNN}{tag}.json. After a periodic save the file is also copied to
// latest{tag}.json. Superseded checkpoints are retained on disk; cleanup is
// manual by design. Returns the written path.
func (s *Store) Save(dir string, ckpt *Checkpoint, isBest bool, tag string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	var name string
	if isBest {
		name = fmt.Sprintf("best_loss%s.json", tag)
	} else {
		name = fmt.Sprintf("epoch%04d%s.json", ckpt.Epoch, tag)
	}
	path := filepath.Join(dir, name)

	ckpt.Best = isBest
	if ckpt.CreatedAt.IsZero() {
		ckpt.CreatedAt = time.Now()
	}

	if err := writeJSON(path, ckpt); err != nil {
		return "", err
	}

	if !isBest {
		latest := filepath.Join(dir, fmt.Sprintf("latest%s.json", tag))
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read checkpoint for latest alias: %w", err)
		}
		if err := os.WriteFile(latest, data, 0o644); err != nil {
			return "", fmt.Errorf("failed to write latest alias: %w", err)
		}
	}

	return path, nil
}

// Load reads a checkpoint from path. A missing path fails with a
// NotFoundError.
func (s *Store) Load(path string) (*Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NotFound("checkpoint", path)
		}
		return nil, fmt.Errorf("failed to open checkpoint %s: %w", path, err)
	}
	defer f.Close()

	var ckpt Checkpoint
	if err := json.NewDecoder(f).Decode(&ckpt); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint %s: %w", path, err)
	}
	return &ckpt, nil
}

// Resume applies a loaded checkpoint to live session state. Model parameters
// are always restored; optimizer and scheduler state only when
// loadOptimizerState is set, enabling warm-start-weights resumes with a
// fresh optimizer.
func (s *Store) Resume(ckpt *Checkpoint, m model.Module, opt training.Optimizer, sched *training.Schedule, loadOptimizerState bool) error {
	if err := ApplyState(m, ckpt.StateDict); err != nil {
		return err
	}
	if loadOptimizerState {
		if err := opt.LoadStateDict(ckpt.OptimizerState); err != nil {
			return err
		}
		sched.LoadStateDict(ckpt.SchedulerState)
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	return nil
}
