// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

// Package trigger drives a DLP-IO8-G USB digital I/O board as a TTL
// event marker, so an EEG or eye-tracker amplifier records state
// changes on its own clock.
//
// The board speaks single-byte ASCII commands over a serial port: a
// ping (0x27, answered with 'Q'), binary mode (0x5C), '1'..'8' to raise
// a line and 'Q','W','E','R','T','Y','U','I' to lower it again. A
// [Device] pulses lines from its own goroutine; callers never wait on
// serial I/O.
package trigger
