// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

// pursuit-operator is the experimenter's control plane. It listens on
// the control port for one pursuit-presenter, loads the stimulus
// presets named in its configuration, and lets the experimenter select
// a preset, start and stop it, and open and close the sample streams.
//
// On a terminal the operator runs a full-screen console; keys 1-9
// select a preset and single letters toggle the run and the streams.
// When stdin is not a terminal (or with --line-mode) it reads one
// command per line instead:
//
//	preset <name|number>    select a preset
//	presets                 list presets
//	start | stop            start or stop the stimulus
//	streams on|off          open or close the sample streams
//	disconnect              stop and drop the presenter
//	reload                  re-read the sequence files
//	quit
//
// On exit the operator tells the presenter to stop the stimulus and the
// streams before closing the connection.
package main
