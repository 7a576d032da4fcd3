// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// IsExpectedCloseError reports whether err is a normal connection
// termination: EOF, a locally closed connection, broken pipe, or a
// reset or aborted connection. Read and write loops treat these as the
// end of the session and do not log them as errors.
func IsExpectedCloseError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	return isPeerGone(err)
}

// IsConnectionLost reports whether err means the peer went away, as
// opposed to this side closing the socket itself. A locally closed
// connection (net.ErrClosed) is not a lost connection.
func IsConnectionLost(err error) bool {
	if err == nil || errors.Is(err, net.ErrClosed) {
		return false
	}
	return errors.Is(err, io.EOF) || isPeerGone(err)
}

func isPeerGone(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EPIPE || errno == syscall.ECONNRESET || errno == syscall.ECONNABORTED
	}
	return false
}
