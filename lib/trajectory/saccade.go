// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package trajectory

import (
	"fmt"
	"time"

	"github.com/gazelab/pursuit/lib/display"
)

// Waypoint is one saccade target in grid coordinates. Hold is how long
// the target dwells there before jumping to the next waypoint.
type Waypoint struct {
	X    float64
	Y    float64
	Hold time.Duration
}

// SaccadeConfig parameterizes a Saccade machine.
type SaccadeConfig struct {
	Frame Frame

	// TicksPerSecond is the nominal tick rate. Countdowns are kept in
	// ticks at this rate.
	TicksPerSecond float64

	// StartCountdown is the delay between Start and the first jump
	// becoming due.
	StartCountdown time.Duration

	// GridWidth and GridHeight are the extent of the waypoint grid.
	// Waypoint (GridWidth/2, GridHeight/2) lands on the frame centre.
	GridWidth  float64
	GridHeight float64

	Waypoints []Waypoint
}

// Validate reports configuration errors that would make the machine
// divide by zero or index out of range.
func (c SaccadeConfig) Validate() error {
	if c.TicksPerSecond <= 0 {
		return fmt.Errorf("tick rate must be positive, got %g", c.TicksPerSecond)
	}
	if c.GridWidth <= 0 || c.GridHeight <= 0 {
		return fmt.Errorf("grid size must be positive, got %gx%g", c.GridWidth, c.GridHeight)
	}
	if c.StartCountdown < 0 {
		return fmt.Errorf("start countdown must not be negative, got %v", c.StartCountdown)
	}
	if len(c.Waypoints) == 0 {
		return fmt.Errorf("no waypoints")
	}
	for i, waypoint := range c.Waypoints {
		if waypoint.Hold < 0 {
			return fmt.Errorf("waypoint %d: hold must not be negative, got %v", i, waypoint.Hold)
		}
	}
	return nil
}

// Saccade jumps the target between waypoints.
//
//	stopped -> starting -> moving -> stopped
//
// While moving, the machine keeps the cumulative hold time of every
// waypoint reached so far (sumHold) and compares it with the time since
// motion began. Whenever the cumulative hold is already in the past it
// advances to the next waypoint, repeating until it catches up with the
// clock, so a delayed tick still lands on the waypoint that should be
// current and reports every waypoint it passed on the way.
type Saccade struct {
	config SaccadeConfig
	run    saccadeRun
}

// saccadeRun is the mutable part of a Saccade. Tick works on a copy and
// commits it only on success.
type saccadeRun struct {
	state   State
	step    int
	point   display.Point
	hint    display.Point
	hasHint bool
	scale   float64

	// countdown is the remaining start delay, in ticks.
	countdown float64
	primed    bool

	// elapsed is the wall-clock time since Start. moveStart is the value
	// of elapsed when motion began.
	elapsed   time.Duration
	moveStart time.Duration
	sumHold   time.Duration
}

// NewSaccade returns a stopped machine with the target at the centre.
func NewSaccade(config SaccadeConfig) (*Saccade, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("saccade: %w", err)
	}
	return &Saccade{
		config: config,
		run: saccadeRun{
			state: StateStopped,
			point: config.Frame.Center,
			scale: 1,
		},
	}, nil
}

func (m *Saccade) Variant() Variant { return VariantSaccade }

func (m *Saccade) State() State { return m.run.state }

func (m *Saccade) Step() int { return m.run.step }

func (m *Saccade) Len() int { return len(m.config.Waypoints) }

func (m *Saccade) Point() display.Point { return m.run.point }

func (m *Saccade) Hint() (display.Point, bool) { return m.run.hint, m.run.hasHint }

// Scale is the anticipation cue for the renderer: 1 while more than 60%
// of the current hold remains, 0.6 while more than 30% remains, 0.3
// after that. It carries no state meaning.
func (m *Saccade) Scale() float64 { return m.run.scale }

// Start resets the run and arms the start countdown.
func (m *Saccade) Start() Update {
	var update Update
	run := &m.run
	run.setStep(&update, 0)
	run.setPoint(&update, m.config.Frame.Center)
	run.scale = 1
	run.hasHint = false
	run.countdown = m.config.StartCountdown.Seconds() * m.config.TicksPerSecond
	run.primed = false
	run.elapsed = 0
	run.moveStart = 0
	run.sumHold = 0
	run.setState(&update, StateStarting)
	return update
}

// Stop ends the run.
func (m *Saccade) Stop() Update {
	var update Update
	m.run.stop(&update)
	return update
}

// Tick advances the machine by elapsed wall-clock time.
func (m *Saccade) Tick(elapsed time.Duration) (Update, error) {
	var update Update
	next := m.run
	next.elapsed += elapsed

	switch next.state {
	case StateStopped:
		next.setPoint(&update, m.config.Frame.Center)

	case StateStarting:
		if !next.primed {
			next.setPoint(&update, m.position(0))
			m.updateHint(&next, 0)
			next.sumHold = m.config.Waypoints[0].Hold
			next.primed = true
		}
		next.countdown -= ticks(elapsed, m.config.TicksPerSecond)
		if next.countdown <= 0 {
			next.moveStart = next.elapsed
			next.setState(&update, StateMoving)
		}

	case StateMoving:
		if !m.advance(&next, &update) {
			break
		}
		next.scale = m.anticipation(next)
	}

	if !finite(next.point) || (next.hasHint && !finite(next.hint)) {
		return Update{}, fmt.Errorf("saccade step %d: %w", next.step, ErrNonFinite)
	}
	m.run = next
	return update, nil
}

// advance walks forward through every waypoint whose cumulative hold
// has already elapsed. It returns false if the sequence ran out and the
// run was stopped.
func (m *Saccade) advance(run *saccadeRun, update *Update) bool {
	for run.timeUntilNextJump() < 0 {
		run.setStep(update, run.step+1)
		if run.step >= len(m.config.Waypoints) {
			run.stop(update)
			return false
		}
		run.setPoint(update, m.position(run.step))
		run.sumHold += m.config.Waypoints[run.step].Hold
		m.updateHint(run, run.step)
	}
	return true
}

// anticipation discretizes the fraction of the current hold that is
// still to come. Boundaries are strict: exactly 60% remaining is 0.6.
func (m *Saccade) anticipation(run saccadeRun) float64 {
	if run.step+1 >= len(m.config.Waypoints) {
		return 1
	}
	hold := m.config.Waypoints[run.step].Hold
	if hold <= 0 {
		return 0.3
	}
	remaining := float64(run.timeUntilNextJump()) / float64(hold)
	switch {
	case remaining > 0.6:
		return 1
	case remaining > 0.3:
		return 0.6
	default:
		return 0.3
	}
}

// updateHint shows the waypoint after step, or clears the hint when step
// is the last one.
func (m *Saccade) updateHint(run *saccadeRun, step int) {
	if step+1 < len(m.config.Waypoints) {
		run.hint = m.position(step + 1)
		run.hasHint = true
		return
	}
	run.hasHint = false
}

// position maps waypoint i from grid coordinates onto the canvas.
func (m *Saccade) position(i int) display.Point {
	waypoint := m.config.Waypoints[i]
	frame := m.config.Frame
	return display.Point{
		X: (waypoint.X-m.config.GridWidth/2)*(frame.BoxWidth/m.config.GridWidth) + frame.Center.X,
		Y: (waypoint.Y-m.config.GridHeight/2)*(frame.BoxHeight/m.config.GridHeight) + frame.Center.Y,
	}
}

func (r *saccadeRun) timeUntilNextJump() time.Duration {
	return r.sumHold - (r.elapsed - r.moveStart)
}

func (r *saccadeRun) stop(update *Update) {
	r.setState(update, StateStopped)
	r.scale = 1
}

func (r *saccadeRun) setPoint(update *Update, point display.Point) {
	r.point = point
	update.Points = append(update.Points, point)
}

func (r *saccadeRun) setState(update *Update, state State) {
	r.state = state
	update.States = append(update.States, state)
}

func (r *saccadeRun) setStep(update *Update, step int) {
	r.step = step
	update.Steps = append(update.Steps, step)
}
