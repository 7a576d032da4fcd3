// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

// Package stimulus turns the operator's stimulus-change command into a
// trajectory machine.
//
// A stimulus is named by a kind such as "level-1-saccades" or
// "level-2-smooth". The suffix selects the machine variant; the prefix
// is a free label the operator uses to tell presets apart. The kind is
// resolved once, when the command arrives, into a [Kind] value and is
// never string-matched again.
//
// Settings travel as one flat JSON object. Numeric fields are numbers;
// the waypoint or curve sequence is a single string of semicolon
// separated tuples, each tuple a comma separated list of numbers:
//
//	{"tps": 120, "grid_width": 8, ..., "positions": "4,3,1;0,0,2"}
//
// Keys the selected variant does not use are ignored, so the operator
// can send the same shared settings to every kind. A missing or
// malformed key rejects the whole payload; nothing is defaulted.
package stimulus
