// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package control

import "bytes"

// Delimiter ends every message on the wire.
const Delimiter = '\n'

// LineBuffer reassembles newline-delimited messages from reads that
// split the stream at arbitrary points. The zero value is ready to
// use.
type LineBuffer struct {
	pending []byte
}

// Feed appends data and returns every message completed by it, without
// delimiters. Bytes after the last delimiter are kept for the next
// call.
func (b *LineBuffer) Feed(data []byte) []string {
	var lines []string
	for {
		index := bytes.IndexByte(data, Delimiter)
		if index < 0 {
			break
		}
		if len(b.pending) > 0 {
			b.pending = append(b.pending, data[:index]...)
			lines = append(lines, string(b.pending))
			b.pending = b.pending[:0]
		} else {
			lines = append(lines, string(data[:index]))
		}
		data = data[index+1:]
	}
	b.pending = append(b.pending, data...)
	return lines
}

// Pending returns the incomplete trailing message, if any.
func (b *LineBuffer) Pending() string {
	return string(b.pending)
}
