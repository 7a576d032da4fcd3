// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/gazelab/pursuit/lib/codec"
	"github.com/gazelab/pursuit/lib/display"
)

// PresenterConfig configures pursuit-presenter.
type PresenterConfig struct {
	// Address is the operator to connect to. A missing port means the
	// control port.
	Address string `yaml:"address" json:"address"`

	// Display describes the presentation screen.
	Display display.Geometry `yaml:"display" json:"display"`

	// Bus configures the sample streams.
	Bus BusConfig `yaml:"bus" json:"bus"`

	// Trigger configures the optional TTL marker output.
	Trigger TriggerConfig `yaml:"trigger" json:"trigger"`

	// LogLevel is debug, info, warn or error.
	// Default: info
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// BusConfig configures where samples go.
type BusConfig struct {
	// Address is the recorder's host:port. Empty disables streaming:
	// outlets open but discard every sample.
	Address string `yaml:"address" json:"address"`

	// Compression is none, lz4 or zstd.
	// Default: none
	Compression codec.CompressionTag `yaml:"compression" json:"compression"`
}

// TriggerConfig configures the DLP-IO8-G output.
type TriggerConfig struct {
	// Device is the serial port. Empty disables the trigger.
	Device string `yaml:"device" json:"device"`

	// Baud is the serial speed.
	// Default: 9600
	Baud int `yaml:"baud" json:"baud"`

	// Lines maps a state name (starting, pre_moving, moving, stopped)
	// to the lines pulsed when it is entered.
	Lines map[string]string `yaml:"lines" json:"lines"`

	// Pulse is how long lines stay high.
	// Default: 10ms
	Pulse Duration `yaml:"pulse" json:"pulse"`
}

// DefaultPresenter returns the presenter defaults: a single 1920x1080
// monitor of typical 24" size, no recorder and no trigger.
func DefaultPresenter() *PresenterConfig {
	return &PresenterConfig{
		Display: display.Geometry{
			Canvas:            display.Rect{Width: 1920, Height: 1080},
			Resolution:        display.Size{Width: 1920, Height: 1080},
			VirtualResolution: display.Size{Width: 1920, Height: 1080},
			WidthMM:           527,
			HeightMM:          296,
			RefreshRate:       60,
			Monitors:          1,
		},
		Trigger: TriggerConfig{
			Baud:  9600,
			Pulse: Duration(10 * time.Millisecond),
		},
		LogLevel: "info",
	}
}

// LoadPresenter returns the defaults overlaid with the file at path.
// An empty path returns the defaults.
func LoadPresenter(path string) (*PresenterConfig, error) {
	cfg := DefaultPresenter()
	if path == "" {
		return cfg, nil
	}
	if err := decodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.Trigger.Device = expandVars(cfg.Trigger.Device, nil)
	return cfg, nil
}

// Validate checks the configuration after flags have been applied.
func (c *PresenterConfig) Validate() error {
	var errs []error

	if c.Address == "" {
		errs = append(errs, errors.New("address is required"))
	}
	if err := c.Display.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("display: %w", err))
	}
	if c.Display.RefreshRate < 0 {
		errs = append(errs, fmt.Errorf("display.refresh_rate must not be negative, got %g", c.Display.RefreshRate))
	}
	if err := validateLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Trigger.Device != "" {
		if c.Trigger.Baud <= 0 {
			errs = append(errs, fmt.Errorf("trigger.baud must be positive, got %d", c.Trigger.Baud))
		}
		if c.Trigger.Pulse < 0 {
			errs = append(errs, fmt.Errorf("trigger.pulse must not be negative, got %s", time.Duration(c.Trigger.Pulse)))
		}
		for state := range c.Trigger.Lines {
			if !contains(stateNames, state) {
				errs = append(errs, fmt.Errorf("trigger.lines: unknown state %q (want one of %v)", state, stateNames))
			}
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

var stateNames = []string{"starting", "pre_moving", "moving", "stopped"}

var logLevels = []string{"debug", "info", "warn", "error"}

func validateLogLevel(level string) error {
	if !contains(logLevels, level) {
		return fmt.Errorf("log_level must be one of: %v", logLevels)
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
