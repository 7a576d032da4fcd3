// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the two time operations the presentation loop needs.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// NewTicker returns a Ticker delivering ticks every d. Panics if
	// d <= 0, like time.NewTicker.
	NewTicker(d time.Duration) *Ticker
}

// Ticker delivers periodic ticks on C. The channel has capacity 1;
// ticks that arrive while a previous one is still unread are dropped.
type Ticker struct {
	C <-chan time.Time

	stopFunc  func()
	resetFunc func(time.Duration)
}

// Stop turns off the ticker. C is not closed.
func (t *Ticker) Stop() { t.stopFunc() }

// Reset changes the period and restarts the cycle from now.
func (t *Ticker) Reset(d time.Duration) { t.resetFunc(d) }

// Interval converts a tick rate in ticks per second to a ticker period.
// Rates that would produce a period shorter than a nanosecond are
// clamped to one nanosecond.
func Interval(ticksPerSecond float64) time.Duration {
	period := time.Duration(float64(time.Second) / ticksPerSecond)
	if period < 1 {
		return 1
	}
	return period
}
