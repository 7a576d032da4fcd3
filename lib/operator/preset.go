// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package operator

import (
	"fmt"
	"os"

	"github.com/gazelab/pursuit/lib/config"
	"github.com/gazelab/pursuit/lib/stimulus"
	"github.com/gazelab/pursuit/lib/trajectory"
)

// Preset is a selectable stimulus.
type Preset struct {
	Kind stimulus.Kind

	// Sequence is the waypoint or curve list in wire form.
	Sequence string

	// Len is the number of waypoints or curves.
	Len int

	// File is where Sequence was loaded from.
	File string
}

// LoadPreset reads the sequence file of entry. A saccade kind must name
// a positions file and a smooth kind a curves file.
func LoadPreset(entry config.StimulusConfig) (Preset, error) {
	kind, err := stimulus.ParseKind(entry.Name)
	if err != nil {
		return Preset{}, err
	}

	var path string
	switch kind.Variant {
	case trajectory.VariantSaccade:
		path = entry.Positions
	case trajectory.VariantSmoothPursuit:
		path = entry.Curves
	}
	if path == "" {
		return Preset{}, fmt.Errorf("stimulus %s: no %s file configured", kind, kind.SequenceKey())
	}

	file, err := os.Open(path)
	if err != nil {
		return Preset{}, fmt.Errorf("stimulus %s: %w", kind, err)
	}
	defer file.Close()

	preset := Preset{Kind: kind, File: path}
	switch kind.Variant {
	case trajectory.VariantSaccade:
		waypoints, err := stimulus.LoadWaypointsCSV(file)
		if err != nil {
			return Preset{}, fmt.Errorf("stimulus %s: %s: %w", kind, path, err)
		}
		preset.Sequence = stimulus.EncodeWaypoints(waypoints)
		preset.Len = len(waypoints)
	case trajectory.VariantSmoothPursuit:
		curves, err := stimulus.LoadCurvesCSV(file)
		if err != nil {
			return Preset{}, fmt.Errorf("stimulus %s: %s: %w", kind, path, err)
		}
		preset.Sequence = stimulus.EncodeCurves(curves)
		preset.Len = len(curves)
	}
	if preset.Len == 0 {
		return Preset{}, fmt.Errorf("stimulus %s: %s has no rows", kind, path)
	}
	return preset, nil
}

// LoadPresets loads every entry, in order. The first failure aborts.
func LoadPresets(entries []config.StimulusConfig) ([]Preset, error) {
	presets := make([]Preset, 0, len(entries))
	for _, entry := range entries {
		preset, err := LoadPreset(entry)
		if err != nil {
			return nil, err
		}
		presets = append(presets, preset)
	}
	return presets, nil
}
