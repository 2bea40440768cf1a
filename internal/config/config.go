// Package config loads the driver configuration file and carries the
// processing parameter overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pjdon/cveureka/internal/waveform"
)

// LogConfig configures rotating file logging for the driver.
type LogConfig struct {
	Directory  string `yaml:"directory"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	MaxBackups int    `yaml:"maxBackups"`
	Compress   bool   `yaml:"compress"`
}

// Processing holds optional overrides of the waveform processing
// parameters. Fields omitted from the file keep the instrument
// defaults, so partial configs are safe.
type Processing struct {
	SpeedOfLight        *float64  `yaml:"speedOfLight,omitempty"`
	BinSize             *float64  `yaml:"binSize,omitempty"`
	RetrackerThresholds []float64 `yaml:"retrackerThresholds,omitempty"`
	SignalThreshold     *float64  `yaml:"signalThreshold,omitempty"`
	PeakinessLeft       []int     `yaml:"peakinessLeft,omitempty"`
	PeakinessRight      []int     `yaml:"peakinessRight,omitempty"`
}

// Config is the root driver configuration.
type Config struct {
	Database       string     `yaml:"database"`
	AsirasFile     string     `yaml:"asirasFile"`
	AlsFile        string     `yaml:"alsFile"`
	BlocksToBuffer int        `yaml:"blocksToBuffer"`
	LinesToBuffer  int        `yaml:"linesToBuffer"`
	Logs           LogConfig  `yaml:"logs"`
	Processing     Processing `yaml:"processing"`
}

// Load reads and validates the YAML configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("database path is required")
	}
	if c.BlocksToBuffer < 0 {
		return fmt.Errorf("blocksToBuffer must be non-negative, got %d", c.BlocksToBuffer)
	}
	if c.LinesToBuffer < 0 {
		return fmt.Errorf("linesToBuffer must be non-negative, got %d", c.LinesToBuffer)
	}
	for _, t := range c.Processing.RetrackerThresholds {
		if t <= 0 || t > 1 {
			return fmt.Errorf("retracker threshold must be in (0, 1], got %v", t)
		}
	}
	if st := c.Processing.SignalThreshold; st != nil && (*st <= 0 || *st > 1) {
		return fmt.Errorf("signal threshold must be in (0, 1], got %v", *st)
	}
	return nil
}

// Params resolves the processing overrides against the instrument
// defaults.
func (c *Config) Params() waveform.Params {
	p := waveform.DefaultParams()
	if v := c.Processing.SpeedOfLight; v != nil {
		p.SpeedOfLight = *v
	}
	if v := c.Processing.BinSize; v != nil {
		p.BinSize = *v
	}
	if len(c.Processing.RetrackerThresholds) > 0 {
		p.RetrackerThresholds = c.Processing.RetrackerThresholds
	}
	if v := c.Processing.SignalThreshold; v != nil {
		p.SignalThreshold = *v
	}
	if len(c.Processing.PeakinessLeft) > 0 {
		p.PeakinessLeft = c.Processing.PeakinessLeft
	}
	if len(c.Processing.PeakinessRight) > 0 {
		p.PeakinessRight = c.Processing.PeakinessRight
	}
	return p
}
