package session

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/sbinet/npyio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/tsawler/go-vox/checkpoints"
	"github.com/tsawler/go-vox/config"
	"github.com/tsawler/go-vox/errs"
	"github.com/tsawler/go-vox/model"
	"github.com/tsawler/go-vox/scaler"
	"github.com/tsawler/go-vox/telemetry"
	"github.com/tsawler/go-vox/training"
)

const (
	testInDim  = 3
	testOutDim = 2
)

func writeFeatureDir(t *testing.T, dir string, width int, lengths []int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for i, length := range lengths {
		data := make([]float64, length*width)
		for j := range data {
			data[j] = float64(i*100 + j)
		}
		path := filepath.Join(dir, filenameFor(i))
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, npyio.Write(f, mat.NewDense(length, width, data)))
		require.NoError(t, f.Close())
	}
}

func filenameFor(i int) string {
	return string(rune('a'+i)) + "-feats.npy"
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()

	cfg := &config.Config{
		Verbose: 0,
		Seed:    773,
		Model: config.ModelConfig{
			NetG: config.NameParams{
				Name: "FeedForward",
				Params: map[string]interface{}{
					"in_dim": testInDim, "hidden_dim": 4, "out_dim": testOutDim, "num_layers": 1,
				},
			},
		},
		Data: config.DataConfig{
			TrainNoDev: config.SplitConfig{
				InDir:  filepath.Join(root, "train_no_dev", "in"),
				OutDir: filepath.Join(root, "train_no_dev", "out"),
			},
			Dev: config.SplitConfig{
				InDir:  filepath.Join(root, "dev", "in"),
				OutDir: filepath.Join(root, "dev", "out"),
			},
			BatchSize:  2,
			NumWorkers: 1,
			CacheSize:  10,
		},
		Train: config.TrainConfig{
			OutDir: filepath.Join(root, "exp"),
			Optim: config.OptimConfig{
				Optimizer:   config.NameParams{Name: "SGD", Params: map[string]interface{}{"lr": 0.1}},
				LRScheduler: config.NameParams{Name: "ConstantLR"},
			},
		},
	}

	writeFeatureDir(t, cfg.Data.TrainNoDev.InDir, testInDim, []int{5, 3, 4, 6})
	writeFeatureDir(t, cfg.Data.TrainNoDev.OutDir, testOutDim, []int{5, 3, 4, 6})
	writeFeatureDir(t, cfg.Data.Dev.InDir, testInDim, []int{2, 4})
	writeFeatureDir(t, cfg.Data.Dev.OutDir, testOutDim, []int{2, 4})

	return cfg
}

func TestSetup(t *testing.T) {
	sess, err := Setup(testConfig(t))
	require.NoError(t, err)

	assert.NotNil(t, sess.Model)
	assert.NotNil(t, sess.Optimizer)
	assert.Equal(t, "ConstantLR", sess.Schedule.Name())
	assert.Equal(t, 0.1, sess.Optimizer.GetLR())

	assert.Equal(t, 2, sess.Loaders.Train.Len(), "4 items at batch size 2")
	assert.Equal(t, 1, sess.Loaders.Dev.Len())

	assert.Nil(t, sess.Telemetry)
	assert.Nil(t, sess.InScaler)
	assert.Nil(t, sess.OutScaler)
	assert.Equal(t, int64(773), sess.Seeds.Root())

	// The pipeline produces padded batches matching the model's widths.
	batch, err := sess.Loaders.Dev.Next()
	require.NoError(t, err)
	assert.Equal(t, testInDim, batch.Inputs.Dim(2))
	assert.Equal(t, testOutDim, batch.Targets.Dim(2))
	assert.Equal(t, []int{2, 4}, batch.Lengths)

	out, err := sess.Model.Forward(batch.Inputs)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, testOutDim}, out.Shape)
}

func TestSetupIsSeedDeterministic(t *testing.T) {
	a, err := Setup(testConfig(t))
	require.NoError(t, err)
	b, err := Setup(testConfig(t))
	require.NoError(t, err)

	aParams := a.Model.Parameters()
	bParams := b.Model.Parameters()
	require.Equal(t, len(aParams), len(bParams))
	for i := range aParams {
		assert.True(t, aParams[i].Equal(bParams[i]), "parameter %d should match across same-seed builds", i)
	}
}

func TestSetupResume(t *testing.T) {
	cfg := testConfig(t)

	// Save a snapshot of a differently initialized network.
	other, err := model.Build("FeedForward", cfg.Model.NetG.Params, rand.New(rand.NewSource(999)))
	require.NoError(t, err)
	opt := training.NewSGD(other.Parameters(), 0.1, 0, 0, 0, false)
	sched := training.NewSchedule(&training.NoOpScheduler{}, opt)
	ckptDir := t.TempDir()
	path, err := checkpoints.NewStore().Save(ckptDir, checkpoints.Snapshot(other, opt, sched, 7), false, "")
	require.NoError(t, err)

	cfg.Train.Resume = config.ResumeConfig{Checkpoint: path}
	sess, err := Setup(cfg)
	require.NoError(t, err)

	otherParams := other.Parameters()
	sessParams := sess.Model.Parameters()
	for i := range otherParams {
		assert.True(t, otherParams[i].Equal(sessParams[i]), "parameter %d should be restored", i)
	}
}

func TestSetupResumeMissingCheckpoint(t *testing.T) {
	cfg := testConfig(t)
	cfg.Train.Resume = config.ResumeConfig{Checkpoint: filepath.Join(t.TempDir(), "none.json")}

	_, err := Setup(cfg)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestSetupMissingDataDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.Data.Dev.InDir = filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.MkdirAll(cfg.Data.Dev.InDir, 0o755))

	_, err := Setup(cfg)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestSetupUnknownModel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Model.NetG.Name = "Transformer"

	_, err := Setup(cfg)
	require.Error(t, err)
	assert.True(t, errs.IsConfiguration(err))
}

func TestSetupDataParallel(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataParallel = true

	sess, err := Setup(cfg)
	require.NoError(t, err)
	require.IsType(t, &model.DataParallel{}, sess.Model)

	// Snapshots carry the bare module's state, never the wrapper's.
	ckpt := sess.Snapshot(1)
	bare, err := model.Build("FeedForward", cfg.Model.NetG.Params, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.NoError(t, checkpoints.ApplyState(bare, ckpt.StateDict))
}

func TestSetupLoadsScalers(t *testing.T) {
	cfg := testConfig(t)

	inPath := filepath.Join(t.TempDir(), "in_scaler.json")
	require.NoError(t, os.WriteFile(inPath, []byte(
		`{"min": [0,0,0], "scale": [1,1,1], "data_min": [0,0,0], "data_max": [1,1,1]}`), 0o644))
	outPath := filepath.Join(t.TempDir(), "out_scaler.json")
	require.NoError(t, os.WriteFile(outPath, []byte(
		`{"mean": [0,0], "var": [1,1], "scale": [1,1]}`), 0o644))

	cfg.Data.InScalerPath = inPath
	cfg.Data.OutScalerPath = outPath

	sess, err := Setup(cfg)
	require.NoError(t, err)
	assert.IsType(t, &scaler.MinMaxScaler{}, sess.InScaler)
	assert.IsType(t, &scaler.StandardScaler{}, sess.OutScaler)
	assert.Equal(t, testInDim, sess.InScaler.Dim())
	assert.Equal(t, testOutDim, sess.OutScaler.Dim())
}

func TestSetupTelemetryLogsResolvedConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Tracking = config.TrackingConfig{
		Enabled:    true,
		Experiment: "acoustic",
		Dir:        filepath.Join(t.TempDir(), "runs"),
	}

	sess, err := Setup(cfg)
	require.NoError(t, err)
	require.NotNil(t, sess.Telemetry)
	defer sess.Telemetry.Close()

	tracking, ok := sess.Telemetry.(*telemetry.TrackingBackend)
	require.True(t, ok)

	raw, err := os.ReadFile(filepath.Join(tracking.RunDir(), "params", "seed"))
	require.NoError(t, err)
	assert.Equal(t, "773\n", string(raw))

	raw, err = os.ReadFile(filepath.Join(tracking.RunDir(), "params", "model.netG.name"))
	require.NoError(t, err)
	assert.Equal(t, "FeedForward\n", string(raw))
}

func TestSetupDashboardTelemetry(t *testing.T) {
	cfg := testConfig(t)
	cfg.Train.LogDir = filepath.Join(t.TempDir(), "logs")

	sess, err := Setup(cfg)
	require.NoError(t, err)
	require.NotNil(t, sess.Telemetry)
	require.NoError(t, sess.Telemetry.Close())

	matches, err := filepath.Glob(filepath.Join(cfg.Train.LogDir, "events.*.jsonl"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func ganConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := testConfig(t)
	cfg.Model.NetD = config.NameParams{
		Name: "FeedForward",
		Params: map[string]interface{}{
			"in_dim": testOutDim, "hidden_dim": 4, "out_dim": 1, "num_layers": 1,
		},
	}
	optim := config.OptimConfig{
		Optimizer:   config.NameParams{Name: "Adam", Params: map[string]interface{}{"lr": 0.001}},
		LRScheduler: config.NameParams{Name: "ConstantLR"},
	}
	cfg.Train.NetG = config.NetTrainConfig{Optim: optim}
	cfg.Train.NetD = config.NetTrainConfig{Optim: optim}
	return cfg
}

func TestSetupGAN(t *testing.T) {
	sess, err := SetupGAN(ganConfig(t))
	require.NoError(t, err)

	assert.NotNil(t, sess.Generator.Model)
	assert.NotNil(t, sess.Discriminator.Model)
	assert.Equal(t, 0.001, sess.Generator.Optimizer.GetLR())
	assert.Equal(t, 2, sess.Loaders.Train.Len())
}

func TestSetupGANIndependentResume(t *testing.T) {
	// A discriminator checkpoint from a differently seeded network.
	cfgRef := ganConfig(t)
	other, err := model.Build("FeedForward", cfgRef.Model.NetD.Params, rand.New(rand.NewSource(999)))
	require.NoError(t, err)
	opt := training.NewAdam(other.Parameters(), 0.001, 0.9, 0.999, 1e-8, 0)
	sched := training.NewSchedule(&training.NoOpScheduler{}, opt)
	path, err := checkpoints.NewStore().Save(t.TempDir(), checkpoints.Snapshot(other, opt, sched, 3), false, "_netD")
	require.NoError(t, err)

	plain, err := SetupGAN(ganConfig(t))
	require.NoError(t, err)

	cfg := ganConfig(t)
	cfg.Train.NetD.Resume = config.ResumeConfig{Checkpoint: path}
	resumed, err := SetupGAN(cfg)
	require.NoError(t, err)

	// The generator is untouched by the discriminator's resume.
	plainG := plain.Generator.Model.Parameters()
	resumedG := resumed.Generator.Model.Parameters()
	for i := range plainG {
		assert.True(t, plainG[i].Equal(resumedG[i]), "generator parameter %d must not change", i)
	}

	// The discriminator carries the checkpoint's weights.
	otherParams := other.Parameters()
	resumedD := resumed.Discriminator.Model.Parameters()
	plainD := plain.Discriminator.Model.Parameters()
	restoredAll := true
	freshAll := true
	for i := range otherParams {
		if !otherParams[i].Equal(resumedD[i]) {
			restoredAll = false
		}
		if !otherParams[i].Equal(plainD[i]) {
			freshAll = false
		}
	}
	assert.True(t, restoredAll, "discriminator weights must come from the checkpoint")
	assert.False(t, freshAll, "without resume the discriminator stays freshly initialized")
}
