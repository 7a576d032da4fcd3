// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

// pursuit-presenter runs the stimulus side of an eye-tracking
// experiment. It connects to pursuit-operator over the control port,
// builds the saccade or smooth-pursuit trajectory the operator selects,
// advances it on a fixed tick and publishes every stimulus position and
// state change as sample streams for the recorder.
//
// The presenter is a client: it dials the operator once at startup and
// again each time it receives SIGHUP. A lost connection stops the
// stimulus, closes the streams and forgets the selection; the operator
// must select a stimulus again after reconnecting.
//
// Configuration comes from the file named by --config or
// PURSUIT_CONFIG; flags override individual values. With no bus
// address, streams are opened as no-ops so a session can be rehearsed
// without a recorder. With a trigger device, every marker is also
// pulsed on a DLP-IO8-G line for EEG alignment.
package main
