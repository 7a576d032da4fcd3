// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

// Package operator is the control-plane side of a session. An
// [Operator] listens for the presenter, sends it commands, and folds
// the status lines it sends back into a [Snapshot] that a console can
// render.
//
// Stimuli are offered as [Preset]s: a kind plus the sequence loaded
// from its CSV file. Selecting a preset stops whatever is running,
// stops the streams, and sends the new kind with the shared settings.
package operator
