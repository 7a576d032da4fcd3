// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive], [RequireClosed] and [RequireNoReceive] wrap the
// select-with-timeout pattern so tests never block forever on a channel
// that a broken implementation fails to feed. They are the only place
// in the test suite that reads the real wall clock; everything else
// drives time through clock.FakeClock.
//
// All helpers call t.Fatalf on failure rather than returning errors.
package testutil
