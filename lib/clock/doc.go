// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the injectable time source that drives the
// stimulus tick loop.
//
// Production code receives a Clock instead of calling time.Now or
// time.NewTicker directly. Real() wraps the time package. Fake()
// returns a FakeClock that only moves when a test calls Advance, which
// makes tick timing (including delayed and bunched ticks) reproducible.
//
// # Driving a tick loop from a test
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go controller.Run(ctx, events) // registers a ticker
//	c.WaitForTickers(1)            // wait until the ticker exists
//	c.Advance(time.Second / 60)    // deliver exactly one tick
//
// A FakeClock delivers one tick per elapsed interval, but like
// time.Ticker its channel holds a single pending value, so a large
// Advance without a reader in between collapses into one delivered
// tick. That mirrors a stalled presentation loop and is exactly the
// case the trajectory machines have to catch up on.
package clock
