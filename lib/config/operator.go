// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
)

// OperatorConfig configures pursuit-operator.
type OperatorConfig struct {
	// Listen is the control port address.
	// Default: 0.0.0.0:49152
	Listen string `yaml:"listen" json:"listen"`

	// Settings is merged into every stimulus settings payload. Keys a
	// stimulus kind does not use are ignored by the presenter.
	Settings map[string]any `yaml:"settings" json:"settings"`

	// Stimuli are the selectable presets, in console order.
	Stimuli []StimulusConfig `yaml:"stimuli" json:"stimuli"`

	// LogLevel is debug, info, warn or error.
	// Default: info
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// StimulusConfig is one preset: a stimulus kind and the CSV file with
// its sequence. Saccade kinds use Positions, smooth kinds use Curves.
type StimulusConfig struct {
	Name      string `yaml:"name" json:"name"`
	Positions string `yaml:"positions,omitempty" json:"positions,omitempty"`
	Curves    string `yaml:"curves,omitempty" json:"curves,omitempty"`
}

// SequenceFile returns whichever of Positions and Curves is set.
func (s StimulusConfig) SequenceFile() string {
	if s.Positions != "" {
		return s.Positions
	}
	return s.Curves
}

// DefaultOperator returns the operator defaults.
func DefaultOperator() *OperatorConfig {
	return &OperatorConfig{
		Listen:   "0.0.0.0:49152",
		Settings: map[string]any{},
		LogLevel: "info",
	}
}

// LoadOperator returns the defaults overlaid with the file at path.
// Sequence file paths are made absolute. An empty path returns the
// defaults.
func LoadOperator(path string) (*OperatorConfig, error) {
	cfg := DefaultOperator()
	if path == "" {
		return cfg, nil
	}
	if err := decodeFile(path, cfg); err != nil {
		return nil, err
	}
	if cfg.Settings == nil {
		cfg.Settings = map[string]any{}
	}

	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolving config directory: %w", err)
	}
	for i := range cfg.Stimuli {
		cfg.Stimuli[i].Positions = resolvePath(cfg.Stimuli[i].Positions, base)
		cfg.Stimuli[i].Curves = resolvePath(cfg.Stimuli[i].Curves, base)
	}
	return cfg, nil
}

// Validate checks the configuration after flags have been applied.
func (c *OperatorConfig) Validate() error {
	var errs []error

	if c.Listen == "" {
		errs = append(errs, errors.New("listen is required"))
	}
	if err := validateLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	seen := make(map[string]bool, len(c.Stimuli))
	for i, stimulus := range c.Stimuli {
		if stimulus.Name == "" {
			errs = append(errs, fmt.Errorf("stimuli[%d]: name is required", i))
			continue
		}
		if seen[stimulus.Name] {
			errs = append(errs, fmt.Errorf("stimuli[%d]: duplicate name %q", i, stimulus.Name))
		}
		seen[stimulus.Name] = true
		if (stimulus.Positions == "") == (stimulus.Curves == "") {
			errs = append(errs, fmt.Errorf("stimuli[%d] %s: exactly one of positions and curves is required", i, stimulus.Name))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
