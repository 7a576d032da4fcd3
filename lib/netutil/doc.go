// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil holds the socket helpers shared by the control
// channel and the sample bus.
//
// Connection error helpers (IsExpectedCloseError, IsConnectionLost)
// classify the errors a read or write loop sees when either side tears
// the connection down. ListenReusable binds a TCP listener with
// SO_REUSEADDR so the fixed control port can be rebound immediately
// after the operator restarts.
package netutil
