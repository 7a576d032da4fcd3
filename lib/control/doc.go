// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

// Package control implements the operator/presenter control channel: a
// single persistent TCP connection carrying newline-delimited UTF-8
// text in both directions.
//
// The operator is the [Server]. It listens on [Port] and keeps at most
// one presenter connection; a new connection supersedes the old one,
// which is first told to stop its stimulus and streams and is then
// closed. The presenter is the [Client] and connects to an address the
// operator gives it. Neither side reconnects on its own.
//
// Commands flow from operator to presenter:
//
//	start-stimulus
//	stop-stimulus
//	start-streams
//	stop-streams
//	<kind>:<json settings>
//
// Status lines flow back:
//
//	stimulus-started
//	stimulus-stopped
//	streams-started
//	streams-stopped
//	step:<index>
//	stimulus-changed:<kind>
//	error:<message>
//
// Each [Conn] runs one read loop and one write loop. The read loop
// splits the byte stream into lines with a [LineBuffer] and hands them,
// in order, to an unbounded [Queue] that the owner drains through an
// Events channel. Outgoing lines go through a second queue to the write
// loop, so Send never blocks on the network. When the read loop ends,
// for whatever reason, it delivers exactly one EventLost.
package control
