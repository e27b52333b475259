package session

import (
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/tsawler/go-vox/checkpoints"
	"github.com/tsawler/go-vox/config"
	"github.com/tsawler/go-vox/dataset"
	"github.com/tsawler/go-vox/logger"
	"github.com/tsawler/go-vox/model"
	"github.com/tsawler/go-vox/scaler"
	"github.com/tsawler/go-vox/seed"
	"github.com/tsawler/go-vox/telemetry"
	"github.com/tsawler/go-vox/training"
)

// Setup builds a single-network training session. The build is strictly
// sequential: seed, model, optimizer/schedule, data pipeline, optional
// resume, telemetry, scalers. Any failure aborts the whole build.
func Setup(cfg *config.Config) (*Session, error) {
	log := logger.New(cfg.Verbose)
	store := checkpoints.NewStore()

	log.Info().Int64("seed", cfg.Seed).Msg("seeding randomness")
	seeds := seed.New(cfg.Seed)

	net, err := buildNet(log, "model", cfg.Model.NetG, cfg.Train.Optim, seeds)
	if err != nil {
		return nil, err
	}

	loaders, err := buildLoaders(cfg, seeds)
	if err != nil {
		return nil, err
	}

	if err := resumeNet(log, store, cfg.Train.Resume, &net); err != nil {
		return nil, err
	}

	applyParallel(cfg, &net)

	backend, err := attachTelemetry(log, cfg)
	if err != nil {
		return nil, err
	}

	inScaler, outScaler, err := loadScalers(cfg)
	if err != nil {
		return nil, err
	}

	log.Info().Msg("session ready")
	return &Session{
		Net:       net,
		Loaders:   loaders,
		Telemetry: backend,
		InScaler:  inScaler,
		OutScaler: outScaler,
		Log:       log,
		Seeds:     seeds,
		Store:     store,
	}, nil
}

// buildNet constructs one network with its optimizer and bound schedule. The
// label names the network's seed stream, so generator and discriminator
// initializations are independent.
func buildNet(log zerolog.Logger, label string, netCfg config.NameParams, optimCfg config.OptimConfig, seeds *seed.Context) (Net, error) {
	m, err := model.Build(netCfg.Name, netCfg.Params, seeds.Derive("init."+label))
	if err != nil {
		return Net{}, fmt.Errorf("failed to build %s: %w", label, err)
	}
	log.Info().
		Str("net", label).
		Str("arch", netCfg.Name).
		Int("trainable_params", model.NumTrainableParams(m)).
		Msg("model built")

	opt, sched, err := training.BuildOptim(
		optimCfg.Optimizer.Name, optimCfg.Optimizer.Params,
		optimCfg.LRScheduler.Name, optimCfg.LRScheduler.Params,
		m.Parameters(),
	)
	if err != nil {
		return Net{}, fmt.Errorf("failed to build %s optimizer: %w", label, err)
	}
	log.Info().
		Str("net", label).
		Str("optimizer", optimCfg.Optimizer.Name).
		Str("lr_scheduler", sched.Name()).
		Msg("optimizer built")

	return Net{Model: m, Optimizer: opt, Schedule: sched}, nil
}

// buildLoaders wires the cached sequence data pipeline for both splits. The
// two loaders share no mutable state; shuffling is enabled for the training
// split only.
func buildLoaders(cfg *config.Config, seeds *seed.Context) (Loaders, error) {
	train, err := buildSplit(cfg, cfg.Data.TrainNoDev, true, seeds.Derive("shuffle.train_no_dev"))
	if err != nil {
		return Loaders{}, fmt.Errorf("failed to build train_no_dev pipeline: %w", err)
	}
	dev, err := buildSplit(cfg, cfg.Data.Dev, false, nil)
	if err != nil {
		return Loaders{}, fmt.Errorf("failed to build dev pipeline: %w", err)
	}
	return Loaders{Train: train, Dev: dev}, nil
}

func buildSplit(cfg *config.Config, split config.SplitConfig, shuffle bool, rng *rand.Rand) (*training.DataLoader, error) {
	inSource, err := dataset.NewNpyFileSource(split.InDir, "")
	if err != nil {
		return nil, err
	}
	outSource, err := dataset.NewNpyFileSource(split.OutDir, "")
	if err != nil {
		return nil, err
	}

	inCached, err := dataset.NewCachedDataset(inSource, cfg.Data.CacheSize)
	if err != nil {
		return nil, err
	}
	outCached, err := dataset.NewCachedDataset(outSource, cfg.Data.CacheSize)
	if err != nil {
		return nil, err
	}

	pairs, err := dataset.NewPairDataset(inCached, outCached)
	if err != nil {
		return nil, err
	}

	return training.NewDataLoader(pairs, training.LoaderConfig{
		BatchSize:  cfg.Data.BatchSize,
		Shuffle:    shuffle,
		NumWorkers: cfg.Data.NumWorkers,
		PinMemory:  cfg.Data.PinMemory,
		Rand:       rng,
	})
}

// resumeNet restores a network from its configured checkpoint. An unset
// checkpoint path opts out of resuming and short-circuits before any I/O.
func resumeNet(log zerolog.Logger, store *checkpoints.Store, resume config.ResumeConfig, net *Net) error {
	if resume.Checkpoint == "" {
		return nil
	}

	log.Info().Str("checkpoint", resume.Checkpoint).Msg("loading weights")
	ckpt, err := store.Load(resume.Checkpoint)
	if err != nil {
		return err
	}
	if resume.LoadOptimizer {
		log.Info().Msg("loading optimizer state")
	}
	return store.Resume(ckpt, net.Model, net.Optimizer, net.Schedule, resume.LoadOptimizer)
}

// applyParallel wraps the network for replicated multi-device execution.
// Wrapping happens after resume so restored weights are the replicated ones.
func applyParallel(cfg *config.Config, net *Net) {
	if !cfg.DataParallel {
		return
	}
	dp := model.NewDataParallel(net.Model)
	net.Model = dp
	net.replicated = dp
}

// attachTelemetry decides the telemetry backend once and logs every resolved
// configuration parameter to it.
func attachTelemetry(log zerolog.Logger, cfg *config.Config) (telemetry.Backend, error) {
	backend, err := telemetry.Select(telemetry.Config{
		TrackingEnabled: cfg.Tracking.Enabled,
		TrackingDir:     cfg.Tracking.Dir,
		Experiment:      cfg.Tracking.Experiment,
		LogDir:          cfg.Train.LogDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to attach telemetry: %w", err)
	}
	if backend == nil {
		return nil, nil
	}
	if cfg.Tracking.Enabled {
		log.Info().Msg("using experiment tracking instead of the dashboard writer")
	}

	params, err := cfg.Flatten()
	if err != nil {
		return nil, err
	}
	for _, p := range params {
		if err := backend.LogParam(p.Key, p.Value); err != nil {
			return nil, err
		}
	}
	return backend, nil
}

// loadScalers loads the optional input/output normalization artifacts. Unset
// paths yield nil scalers, which callers treat as the identity.
func loadScalers(cfg *config.Config) (scaler.Scaler, scaler.Scaler, error) {
	inScaler, err := scaler.Load(cfg.Data.InScalerPath, scaler.MinMax)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load input scaler: %w", err)
	}
	outScaler, err := scaler.Load(cfg.Data.OutScalerPath, scaler.Standard)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load output scaler: %w", err)
	}
	return inScaler, outScaler, nil
}
