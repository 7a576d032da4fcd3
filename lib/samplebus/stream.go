// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package samplebus

import (
	"context"
	"time"
)

// ChannelFormat is the value type of a stream's channels.
type ChannelFormat string

const (
	FormatFloat64 ChannelFormat = "float64"
	FormatString  ChannelFormat = "string"
)

// IrregularRate is the nominal rate of a stream whose samples arrive
// whenever something changes.
const IrregularRate = 0

// Entry is one static metadata key/value pair. Keys are dotted paths
// such as "display.canvas.width".
type Entry struct {
	Key   string `cbor:"key"`
	Value string `cbor:"value"`
}

// StreamInfo describes a stream. It is sent once, before the first
// sample.
type StreamInfo struct {
	Name         string        `cbor:"name"`
	Type         string        `cbor:"type"`
	ChannelCount int           `cbor:"channel_count"`
	Format       ChannelFormat `cbor:"format"`
	NominalRate  float64       `cbor:"nominal_rate"`
	SourceID     string        `cbor:"source_id"`
	Metadata     []Entry       `cbor:"metadata"`
}

// Lookup returns the value of the first metadata entry named key.
func (info StreamInfo) Lookup(key string) (string, bool) {
	for _, entry := range info.Metadata {
		if entry.Key == key {
			return entry.Value, true
		}
	}
	return "", false
}

// Sample is one stream record. Exactly one of Values and Strings is
// set, matching the stream's Format; its length is the channel count.
type Sample struct {
	// Timestamp is Unix time in nanoseconds at the moment of the push.
	Timestamp int64     `cbor:"t"`
	Values    []float64 `cbor:"v,omitempty"`
	Strings   []string  `cbor:"s,omitempty"`
}

// Time returns Timestamp as a time.Time.
func (s Sample) Time() time.Time {
	return time.Unix(0, s.Timestamp)
}

// NumericSample returns a float sample stamped at now.
func NumericSample(now time.Time, values ...float64) Sample {
	return Sample{Timestamp: now.UnixNano(), Values: values}
}

// StringSample returns a string sample stamped at now.
func StringSample(now time.Time, values ...string) Sample {
	return Sample{Timestamp: now.UnixNano(), Strings: values}
}

// Bus opens outlets.
type Bus interface {
	// Open starts a stream. It does not wait for the destination; the
	// returned outlet is usable at once even if the destination turns
	// out to be unreachable.
	Open(ctx context.Context, info StreamInfo) Outlet
}

// Outlet is the sending end of one stream. Push and Close may be called
// from one goroutine while Dropped is read from another.
type Outlet interface {
	// Push queues a sample. It never blocks.
	Push(sample Sample)

	// Dropped returns the number of samples discarded because the
	// queue was full.
	Dropped() uint64

	// Close flushes queued samples and ends the stream. Pushes after
	// Close are ignored.
	Close()
}

// NopBus opens outlets that discard everything.
type NopBus struct{}

// Open returns a discarding outlet.
func (NopBus) Open(context.Context, StreamInfo) Outlet { return nopOutlet{} }

type nopOutlet struct{}

func (nopOutlet) Push(Sample)     {}
func (nopOutlet) Dropped() uint64 { return 0 }
func (nopOutlet) Close()          {}
