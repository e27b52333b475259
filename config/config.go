// Package config defines the declarative training configuration, loads it
// from YAML, persists resolved snapshots for provenance, and flattens the
// configuration tree into loggable key/value pairs.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// NameParams is a symbolic implementation name plus its construction
// parameters, resolved against a registry at build time.
type NameParams struct {
	Name   string                 `mapstructure:"name" yaml:"name"`
	Params map[string]interface{} `mapstructure:"params" yaml:"params"`
}

// OptimConfig declares one optimizer/scheduler pair.
type OptimConfig struct {
	Optimizer   NameParams `mapstructure:"optimizer" yaml:"optimizer"`
	LRScheduler NameParams `mapstructure:"lr_scheduler" yaml:"lr_scheduler"`
}

// ResumeConfig declares where to resume a network from. An empty checkpoint
// path opts out of resuming.
type ResumeConfig struct {
	Checkpoint    string `mapstructure:"checkpoint" yaml:"checkpoint"`
	LoadOptimizer bool   `mapstructure:"load_optimizer" yaml:"load_optimizer"`
}

// NetTrainConfig bundles the per-network training knobs used in dual-network
// mode.
type NetTrainConfig struct {
	Optim  OptimConfig  `mapstructure:"optim" yaml:"optim"`
	Resume ResumeConfig `mapstructure:"resume" yaml:"resume"`
}

// SplitConfig locates one data split's input and output feature directories.
type SplitConfig struct {
	InDir  string `mapstructure:"in_dir" yaml:"in_dir"`
	OutDir string `mapstructure:"out_dir" yaml:"out_dir"`
}

// DataConfig declares the data pipeline.
type DataConfig struct {
	TrainNoDev    SplitConfig `mapstructure:"train_no_dev" yaml:"train_no_dev"`
	Dev           SplitConfig `mapstructure:"dev" yaml:"dev"`
	BatchSize     int         `mapstructure:"batch_size" yaml:"batch_size"`
	NumWorkers    int         `mapstructure:"num_workers" yaml:"num_workers"`
	PinMemory     bool        `mapstructure:"pin_memory" yaml:"pin_memory"`
	CacheSize     int         `mapstructure:"cache_size" yaml:"cache_size"`
	InScalerPath  string      `mapstructure:"in_scaler_path" yaml:"in_scaler_path"`
	OutScalerPath string      `mapstructure:"out_scaler_path" yaml:"out_scaler_path"`
}

// ModelConfig declares the network architectures and output streams.
type ModelConfig struct {
	NetG          NameParams `mapstructure:"netG" yaml:"netG"`
	NetD          NameParams `mapstructure:"netD" yaml:"netD"`
	StreamSizes   []int      `mapstructure:"stream_sizes" yaml:"stream_sizes"`
	StreamWeights []float64  `mapstructure:"stream_weights" yaml:"stream_weights"`
}

// TrainConfig declares training-run knobs. Optim and Resume drive the
// single-network mode; NetG and NetD drive the dual-network mode.
type TrainConfig struct {
	OutDir string         `mapstructure:"out_dir" yaml:"out_dir"`
	LogDir string         `mapstructure:"log_dir" yaml:"log_dir"`
	Optim  OptimConfig    `mapstructure:"optim" yaml:"optim"`
	Resume ResumeConfig   `mapstructure:"resume" yaml:"resume"`
	NetG   NetTrainConfig `mapstructure:"netG" yaml:"netG"`
	NetD   NetTrainConfig `mapstructure:"netD" yaml:"netD"`
}

// TrackingConfig selects the experiment-tracking telemetry backend. When
// enabled, the dashboard event writer is disabled.
type TrackingConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	Experiment string `mapstructure:"experiment" yaml:"experiment"`
	Dir        string `mapstructure:"dir" yaml:"dir"`
}

// Config is the root of the declarative training configuration.
type Config struct {
	Verbose      int            `mapstructure:"verbose" yaml:"verbose"`
	Seed         int64          `mapstructure:"seed" yaml:"seed"`
	DataParallel bool           `mapstructure:"data_parallel" yaml:"data_parallel"`
	Model        ModelConfig    `mapstructure:"model" yaml:"model"`
	Data         DataConfig     `mapstructure:"data" yaml:"data"`
	Train        TrainConfig    `mapstructure:"train" yaml:"train"`
	Tracking     TrackingConfig `mapstructure:"tracking" yaml:"tracking"`
}

// Load reads a YAML configuration file into a Config, applying defaults for
// the data pipeline knobs.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("verbose", 1)
	v.SetDefault("seed", 773)
	v.SetDefault("data.batch_size", 8)
	v.SetDefault("data.num_workers", 2)
	v.SetDefault("data.cache_size", 10000)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the fully-resolved configuration snapshot alongside training
// outputs for provenance: model.yaml holds the model-only view, config.yaml
// the full view.
func (c *Config) Save(outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := writeYAML(filepath.Join(outDir, "model.yaml"), c.Model); err != nil {
		return err
	}
	return writeYAML(filepath.Join(outDir, "config.yaml"), c)
}

func writeYAML(path string, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
