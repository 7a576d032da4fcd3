// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package stimulus

import (
	"fmt"

	"github.com/gazelab/pursuit/lib/display"
	"github.com/gazelab/pursuit/lib/trajectory"
)

// NewMachine builds the trajectory machine for settings on a canvas of
// the given geometry. The bounding box is converted from millimetres
// to pixels here; machines only ever see pixels.
func NewMachine(settings Settings, geometry display.Geometry) (trajectory.Machine, error) {
	frame := trajectory.Frame{
		Center:    geometry.Center(),
		BoxWidth:  geometry.MMToPixelsX(settings.BoundingBoxWidth),
		BoxHeight: geometry.MMToPixelsY(settings.BoundingBoxHeight),
	}

	switch settings.Kind.Variant {
	case trajectory.VariantSaccade:
		machine, err := trajectory.NewSaccade(trajectory.SaccadeConfig{
			Frame:          frame,
			TicksPerSecond: settings.TicksPerSecond,
			StartCountdown: seconds(settings.StartCountdown),
			GridWidth:      settings.GridWidth,
			GridHeight:     settings.GridHeight,
			Waypoints:      settings.Waypoints,
		})
		if err != nil {
			return nil, err
		}
		return machine, nil
	case trajectory.VariantSmoothPursuit:
		machine, err := trajectory.NewSmoothPursuit(trajectory.SmoothPursuitConfig{
			Frame:            frame,
			TicksPerSecond:   settings.TicksPerSecond,
			StartCountdown:   seconds(settings.StartCountdown),
			PreMoveCountdown: seconds(settings.PreMoveCountdown),
			PreMoveSeconds:   seconds(settings.PreMoveSeconds),
			HintPast:         seconds(settings.HintPastSeconds),
			HintFuture:       seconds(settings.HintFutureSeconds),
			Curves:           settings.Curves,
		})
		if err != nil {
			return nil, err
		}
		return machine, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, settings.Kind.Variant)
	}
}
