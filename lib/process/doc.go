// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the entrypoint helpers shared by the pursuit
// binaries: reporting a fatal error before or after the structured
// logger exists, and building that logger.
//
// [NewLogger] picks a text handler when stderr is a terminal and a JSON
// handler otherwise, so an operator watching the presenter reads plain
// lines while a supervisor capturing its output gets records it can
// parse.
package process
