// Command train builds a training session from a YAML configuration file and
// persists the resolved configuration snapshot for provenance.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsawler/go-vox/config"
	"github.com/tsawler/go-vox/session"
	"github.com/tsawler/go-vox/telemetry"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var (
		configPath string
		gan        bool
	)

	cmd := &cobra.Command{
		Use:          "train",
		Short:        "Build a sequence-model training session from a YAML config",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cfg.Train.OutDir != "" {
				if err := cfg.Save(cfg.Train.OutDir); err != nil {
					return err
				}
			}

			if gan {
				sess, err := session.SetupGAN(cfg)
				if err != nil {
					return err
				}
				defer closeTelemetry(sess.Telemetry)
				sess.Log.Info().
					Int("train_batches", sess.Loaders.Train.Len()).
					Int("dev_batches", sess.Loaders.Dev.Len()).
					Msg("dual-network session built")
				return nil
			}

			sess, err := session.Setup(cfg)
			if err != nil {
				return err
			}
			defer closeTelemetry(sess.Telemetry)
			sess.Log.Info().
				Int("train_batches", sess.Loaders.Train.Len()).
				Int("dev_batches", sess.Loaders.Dev.Len()).
				Msg("session built")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the training configuration file")
	cmd.Flags().BoolVar(&gan, "gan", false, "build a generator/discriminator session pair")
	return cmd
}

func closeTelemetry(b telemetry.Backend) {
	if b == nil {
		return
	}
	_ = b.Close()
}
