// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

// Package trajectory implements the stimulus state machines: Saccade,
// which jumps a target between grid waypoints, and SmoothPursuit, which
// moves it along closed-form harmonic curves.
//
// A Machine is pure. It never reads a clock and never performs I/O. The
// caller feeds it the wall-clock time elapsed since the previous tick
// and receives an Update listing every point, state and step the tick
// assigned, in order. Deciding what to do with those (publish samples,
// send status lines, redraw) is the caller's business.
//
// Tick delivery jitter is absorbed by scaling every countdown with the
// actual elapsed time instead of counting calls. A long stall is caught
// up on the next tick: the saccade machine walks forward through every
// waypoint whose hold time has passed, reporting each of them, and the
// pursuit machine evaluates its curve at the progress the elapsed time
// implies.
//
// A tick either commits completely or not at all. If a tick produces a
// non-finite coordinate the machine returns ErrNonFinite and keeps the
// state it had before the call.
package trajectory
