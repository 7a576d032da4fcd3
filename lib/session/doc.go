// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

// Package session runs the presenter side of a session: it owns the
// active trajectory machine, ticks it at the stimulus' rate, executes
// operator commands, and fans each tick's output out to the sample
// streams and back to the operator as status lines.
//
// Everything happens on the goroutine that calls [Controller.Run].
// Commands arrive on the same channel as connection events, so a
// stimulus change can never interleave with a tick: the previous
// machine is stopped and dropped before the next tick is delivered,
// and that tick goes to the new machine.
package session
