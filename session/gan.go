package session

import (
	"github.com/tsawler/go-vox/checkpoints"
	"github.com/tsawler/go-vox/config"
	"github.com/tsawler/go-vox/logger"
	"github.com/tsawler/go-vox/seed"
)

// SetupGAN builds a dual-network training session: the per-network pipeline
// (model, optimizer/schedule, resume) runs symmetrically for the generator
// and the discriminator, which share one data pipeline and one telemetry
// backend. The two networks' resume states are independent: an unset
// checkpoint path for one never affects the other.
func SetupGAN(cfg *config.Config) (*GANSession, error) {
	log := logger.New(cfg.Verbose)
	store := checkpoints.NewStore()

	log.Info().Int64("seed", cfg.Seed).Msg("seeding randomness")
	seeds := seed.New(cfg.Seed)

	netG, err := buildNet(log, "netG", cfg.Model.NetG, cfg.Train.NetG.Optim, seeds)
	if err != nil {
		return nil, err
	}
	netD, err := buildNet(log, "netD", cfg.Model.NetD, cfg.Train.NetD.Optim, seeds)
	if err != nil {
		return nil, err
	}

	loaders, err := buildLoaders(cfg, seeds)
	if err != nil {
		return nil, err
	}

	if err := resumeNet(log, store, cfg.Train.NetG.Resume, &netG); err != nil {
		return nil, err
	}
	if err := resumeNet(log, store, cfg.Train.NetD.Resume, &netD); err != nil {
		return nil, err
	}

	// Replication wraps both networks identically, after resume, so restored
	// weights are always the replicated ones.
	applyParallel(cfg, &netG)
	applyParallel(cfg, &netD)

	backend, err := attachTelemetry(log, cfg)
	if err != nil {
		return nil, err
	}

	inScaler, outScaler, err := loadScalers(cfg)
	if err != nil {
		return nil, err
	}

	log.Info().Msg("gan session ready")
	return &GANSession{
		Generator:     netG,
		Discriminator: netD,
		Loaders:       loaders,
		Telemetry:     backend,
		InScaler:      inScaler,
		OutScaler:     outScaler,
		Log:           log,
		Seeds:         seeds,
		Store:         store,
	}, nil
}
