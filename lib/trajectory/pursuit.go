// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package trajectory

import (
	"fmt"
	"math"
	"time"

	"github.com/gazelab/pursuit/lib/display"
)

// CurveSegment is one harmonic trajectory. At normalized time t the
// target sits at
//
//	x(t) = cos(A·t)·sin(B·t) + E·t
//	y(t) = cos(C·t)·sin(D·t) + F·t
//
// in units of half the bounding box, with y pointing up. The segment
// runs for Duration, over which t goes from 0 to 1.
type CurveSegment struct {
	A, B, C, D, E, F float64
	Duration         time.Duration
}

// Evaluate returns the unit position at normalized time t. Evaluate(0)
// is always the origin.
func (s CurveSegment) Evaluate(t float64) display.Point {
	return display.Point{
		X: math.Cos(s.A*t)*math.Sin(s.B*t) + s.E*t,
		Y: math.Cos(s.C*t)*math.Sin(s.D*t) + s.F*t,
	}
}

// SmoothPursuitConfig parameterizes a SmoothPursuit machine.
type SmoothPursuitConfig struct {
	Frame          Frame
	TicksPerSecond float64

	// StartCountdown is the delay before the first segment moves.
	StartCountdown time.Duration

	// PreMoveCountdown is the delay before every later segment moves.
	PreMoveCountdown time.Duration

	// PreMoveSeconds is how long before motion the hint point appears.
	PreMoveSeconds time.Duration

	// HintPast and HintFuture bound the trail drawn around the current
	// progress.
	HintPast   time.Duration
	HintFuture time.Duration

	Curves []CurveSegment
}

// Validate reports configuration errors that would make the machine
// divide by zero or index out of range.
func (c SmoothPursuitConfig) Validate() error {
	if c.TicksPerSecond <= 0 {
		return fmt.Errorf("tick rate must be positive, got %g", c.TicksPerSecond)
	}
	durations := []struct {
		name  string
		value time.Duration
	}{
		{"start countdown", c.StartCountdown},
		{"pre-move countdown", c.PreMoveCountdown},
		{"pre-move seconds", c.PreMoveSeconds},
		{"hint past", c.HintPast},
		{"hint future", c.HintFuture},
	}
	for _, d := range durations {
		if d.value < 0 {
			return fmt.Errorf("%s must not be negative, got %v", d.name, d.value)
		}
	}
	if len(c.Curves) == 0 {
		return fmt.Errorf("no curve segments")
	}
	for i, curve := range c.Curves {
		if curve.Duration <= 0 {
			return fmt.Errorf("curve %d: duration must be positive, got %v", i, curve.Duration)
		}
	}
	return nil
}

// SmoothPursuit moves the target continuously along a sequence of
// curve segments.
//
//	stopped -> starting -> moving -> (pre_moving -> moving)* -> stopped
//
// The position is recomputed from the closed-form curve every tick; the
// only accumulated quantity is the progress through the current
// segment, in ticks.
type SmoothPursuit struct {
	config SmoothPursuitConfig
	run    pursuitRun
}

type pursuitRun struct {
	state   State
	step    int
	point   display.Point
	hint    display.Point
	hasHint bool

	// trail is the rolling window of curve samples around the current
	// progress. A fresh slice is built whenever it changes.
	trail  []display.Point
	primed bool

	// countdown is the remaining delay before motion, in ticks.
	countdown float64

	// progress is how far into the current segment motion has got, in
	// ticks.
	progress float64
}

// NewSmoothPursuit returns a stopped machine with the target at the
// centre.
func NewSmoothPursuit(config SmoothPursuitConfig) (*SmoothPursuit, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("smooth pursuit: %w", err)
	}
	return &SmoothPursuit{
		config: config,
		run: pursuitRun{
			state: StateStopped,
			point: config.Frame.Center,
		},
	}, nil
}

func (m *SmoothPursuit) Variant() Variant { return VariantSmoothPursuit }

func (m *SmoothPursuit) State() State { return m.run.state }

func (m *SmoothPursuit) Step() int { return m.run.step }

func (m *SmoothPursuit) Len() int { return len(m.config.Curves) }

func (m *SmoothPursuit) Point() display.Point { return m.run.point }

func (m *SmoothPursuit) Hint() (display.Point, bool) { return m.run.hint, m.run.hasHint }

// Trail returns the rolling window of upcoming and past curve positions
// for the renderer. The slice must not be modified.
func (m *SmoothPursuit) Trail() []display.Point { return m.run.trail }

// Start resets the run and arms the start countdown.
func (m *SmoothPursuit) Start() Update {
	var update Update
	run := &m.run
	run.setPoint(&update, m.config.Frame.Center)
	run.trail = nil
	run.primed = false
	run.hasHint = false
	run.countdown = m.config.StartCountdown.Seconds() * m.config.TicksPerSecond
	run.progress = 0
	run.setStep(&update, 0)
	run.setState(&update, StateStarting)
	return update
}

// Stop ends the run and clears the hint and trail.
func (m *SmoothPursuit) Stop() Update {
	var update Update
	m.run.stop(&update)
	return update
}

// Tick advances the machine by elapsed wall-clock time.
func (m *SmoothPursuit) Tick(elapsed time.Duration) (Update, error) {
	var update Update
	next := m.run
	tps := m.config.TicksPerSecond
	dtick := ticks(elapsed, tps)

	switch next.state {
	case StateStopped:
		next.setPoint(&update, m.config.Frame.Center)

	case StateStarting, StatePreMoving:
		curve := m.config.Curves[next.step]
		if !next.primed {
			next.trail = m.window(curve, 0)
			next.setPoint(&update, m.position(curve, 0))
			next.primed = true
		}
		if next.countdown <= tps*m.config.PreMoveSeconds.Seconds() {
			next.hint = m.position(curve, -next.countdown/(curve.Duration.Seconds()*tps))
			next.hasHint = true
		} else {
			next.hasHint = false
		}
		next.countdown -= dtick
		if next.countdown <= 0 {
			next.hasHint = false
			next.progress = 0
			next.setState(&update, StateMoving)
		}

	case StateMoving:
		curve := m.config.Curves[next.step]
		segmentTicks := curve.Duration.Seconds() * tps
		if next.progress < segmentTicks {
			next.trail = m.window(curve, next.progress)
			next.setPoint(&update, m.position(curve, next.progress/segmentTicks))
			next.progress += dtick
			break
		}
		next.setStep(&update, next.step+1)
		if next.step >= len(m.config.Curves) {
			next.stop(&update)
			break
		}
		next.trail = nil
		next.primed = false
		next.countdown = m.config.PreMoveCountdown.Seconds() * tps
		next.setState(&update, StatePreMoving)
	}

	if !finite(next.point) || (next.hasHint && !finite(next.hint)) || !finite(next.trail...) {
		return Update{}, fmt.Errorf("smooth pursuit segment %d: %w", next.step, ErrNonFinite)
	}
	m.run = next
	return update, nil
}

// window samples the curve at every whole tick from HintPast before to
// HintFuture after progress.
func (m *SmoothPursuit) window(curve CurveSegment, progress float64) []display.Point {
	tps := m.config.TicksPerSecond
	first := -int(tps * m.config.HintPast.Seconds())
	last := int(tps * m.config.HintFuture.Seconds())
	if last <= first {
		return nil
	}
	segmentTicks := curve.Duration.Seconds() * tps
	points := make([]display.Point, 0, last-first)
	for k := first; k < last; k++ {
		points = append(points, m.position(curve, (progress+float64(k))/segmentTicks))
	}
	return points
}

// position maps the curve at normalized time t onto the canvas.
func (m *SmoothPursuit) position(curve CurveSegment, t float64) display.Point {
	unit := curve.Evaluate(t)
	frame := m.config.Frame
	return display.Point{
		X: unit.X*frame.BoxWidth/2 + frame.Center.X,
		Y: -unit.Y*frame.BoxHeight/2 + frame.Center.Y,
	}
}

func (r *pursuitRun) stop(update *Update) {
	r.setState(update, StateStopped)
	r.trail = nil
	r.hasHint = false
}

func (r *pursuitRun) setPoint(update *Update, point display.Point) {
	r.point = point
	update.Points = append(update.Points, point)
}

func (r *pursuitRun) setState(update *Update, state State) {
	r.state = state
	update.States = append(update.States, state)
}

func (r *pursuitRun) setStep(update *Update, step int) {
	r.step = step
	update.Steps = append(update.Steps, step)
}
