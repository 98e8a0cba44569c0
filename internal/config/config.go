package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	DataDir      string  `yaml:"data_dir"`
	DatasetURL   string  `yaml:"dataset_url"`
	LogDir       string  `yaml:"log_dir"`
	RunName      string  `yaml:"run_name"`
	Epochs       int     `yaml:"epochs"`
	BatchSize    int     `yaml:"batch_size"`
	LearningRate float64 `yaml:"learning_rate"`
	AugProb      float64 `yaml:"aug_prob"`
	ColorJitter  bool    `yaml:"color_jitter"`
	Device       string  `yaml:"device"`
	Seed         int64   `yaml:"seed"`
	LogEvery     int     `yaml:"log_every"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	DataDir     string
	LogDir      string
	RunName     string
	Epochs      int
	BatchSize   int
	Seed        int64
	LogEvery    int
	ColorJitter bool
}

// Default mirrors the demo constants: 10 epochs of batch 32 at lr 1e-4,
// augmentation gates at 0.75, jitter off, CPU device.
func Default() *Config {
	return &Config{
		DataDir:      "data",
		LogDir:       "logs",
		RunName:      "cifar10",
		Epochs:       10,
		BatchSize:    32,
		LearningRate: 1e-4,
		AugProb:      0.75,
		Device:       "cpu",
		Seed:         42,
		LogEvery:     50,
	}
}

// Load reads a Config from YAML, filling unset fields from Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.DataDir != "" {
		c.DataDir = o.DataDir
	}
	if o.LogDir != "" {
		c.LogDir = o.LogDir
	}
	if o.RunName != "" {
		c.RunName = o.RunName
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.LogEvery > 0 {
		c.LogEvery = o.LogEvery
	}
	if o.ColorJitter {
		c.ColorJitter = true
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.DataDir == "" {
		return errors.New("data_dir must be set")
	}
	if c.LogDir == "" {
		return errors.New("log_dir must be set")
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be > 0 (got %g)", c.LearningRate)
	}
	if c.AugProb < 0 || c.AugProb > 1 {
		return fmt.Errorf("aug_prob must be in [0,1] (got %g)", c.AugProb)
	}
	if c.Device != "cpu" {
		return fmt.Errorf("unsupported device %q", c.Device)
	}
	if c.LogEvery <= 0 {
		c.LogEvery = 50
	}
	return nil
}
