// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package trajectory

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gazelab/pursuit/lib/display"
)

// ErrNonFinite is returned by Tick when a computed coordinate is NaN or
// infinite. The machine state is left as it was before the tick.
var ErrNonFinite = errors.New("trajectory: non-finite point")

// State is the run phase of a machine. The string values are written
// verbatim to the marker stream and must stay stable.
type State string

const (
	StateStopped   State = "stopped"
	StateStarting  State = "starting"
	StatePreMoving State = "pre_moving"
	StateMoving    State = "moving"
)

// Variant identifies which machine implementation a stimulus uses.
type Variant int

const (
	VariantSaccade Variant = iota + 1
	VariantSmoothPursuit
)

// String returns the variant's short name.
func (v Variant) String() string {
	switch v {
	case VariantSaccade:
		return "saccade"
	case VariantSmoothPursuit:
		return "smooth-pursuit"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// Machine is the capability shared by both stimulus variants.
type Machine interface {
	// Variant reports which implementation this is.
	Variant() Variant

	// Start resets the run to step 0 and enters StateStarting.
	Start() Update

	// Stop enters StateStopped.
	Stop() Update

	// Tick advances the machine by elapsed wall-clock time.
	Tick(elapsed time.Duration) (Update, error)

	// State returns the current run phase.
	State() State

	// Step returns the current index into the waypoint or curve
	// sequence. It equals the sequence length once a run has finished.
	Step() int

	// Len returns the length of the waypoint or curve sequence.
	Len() int

	// Point returns the current target position in canvas pixels.
	Point() display.Point

	// Hint returns the preview position, if one is shown.
	Hint() (display.Point, bool)
}

// Update lists everything a single call assigned, in assignment order.
// Points are canvas-local pixels.
type Update struct {
	Points []display.Point
	States []State
	Steps  []int
}

// Empty reports whether the update carries nothing.
func (u Update) Empty() bool {
	return len(u.Points) == 0 && len(u.States) == 0 && len(u.Steps) == 0
}

// Entered reports whether the update moved the machine into state.
func (u Update) Entered(state State) bool {
	for _, s := range u.States {
		if s == state {
			return true
		}
	}
	return false
}

// Append adds other's assignments after u's.
func (u *Update) Append(other Update) {
	u.Points = append(u.Points, other.Points...)
	u.States = append(u.States, other.States...)
	u.Steps = append(u.Steps, other.Steps...)
}

// Frame places the stimulus on the canvas: the centre the target rests
// at when stopped, and the bounding box (in pixels) the trajectory is
// scaled into.
type Frame struct {
	Center    display.Point
	BoxWidth  float64
	BoxHeight float64
}

// ticks converts elapsed time into the number of ticks that should have
// happened at the given rate. Fractional results are kept.
func ticks(elapsed time.Duration, ticksPerSecond float64) float64 {
	return elapsed.Seconds() * ticksPerSecond
}

func finite(points ...display.Point) bool {
	for _, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return false
		}
	}
	return true
}
