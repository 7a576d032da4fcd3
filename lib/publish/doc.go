// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

// Package publish turns trajectory output into sample-bus streams.
//
// While streams are open a [Publisher] holds two outlets for the active
// stimulus: "<kind>-stimulus", a two-channel float stream of target
// positions in global screen pixels, and "<kind>-markers", a one-channel
// string stream of state names. Both carry the stimulus settings as
// metadata; the position stream also describes the display so a
// recording can be mapped back onto the screen.
//
// Pushing with no streams open does nothing. Marker sinks (such as a
// TTL trigger) see every state pushed while streams are open.
package publish
