// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package samplebus

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gazelab/pursuit/lib/codec"
	"github.com/gazelab/pursuit/lib/netutil"
)

// DefaultQueueSize is the per-outlet queue length. At 120 samples per
// second it covers a few seconds of stalled network.
const DefaultQueueSize = 512

// dialTimeout bounds how long an outlet waits for the recorder before
// it gives up and discards.
const dialTimeout = 2 * time.Second

// flushTimeout bounds how long an outlet keeps flushing queued samples
// to a slow recorder after Close before the connection is cut.
const flushTimeout = time.Second

// StreamBus opens outlets that stream to a recorder over TCP.
type StreamBus struct {
	address     string
	compression codec.CompressionTag
	queueSize   int
	logger      *slog.Logger
}

// NewStreamBus returns a bus that sends every outlet to address.
func NewStreamBus(address string, compression codec.CompressionTag, logger *slog.Logger) *StreamBus {
	return &StreamBus{
		address:     address,
		compression: compression,
		queueSize:   DefaultQueueSize,
		logger:      logger,
	}
}

// Open starts a writer goroutine for the stream. The dial happens on
// that goroutine; samples pushed meanwhile wait in the queue.
func (b *StreamBus) Open(ctx context.Context, info StreamInfo) Outlet {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	outlet := &streamOutlet{
		queue:   make(chan Sample, b.queueSize),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
		cancel:  cancel,

		flushTimeout: flushTimeout,
	}
	logger := b.logger.With("stream", info.Name, "recorder", b.address)
	go outlet.run(ctx, b.address, b.compression, info, logger)
	return outlet
}

type streamOutlet struct {
	queue   chan Sample
	closing chan struct{}
	done    chan struct{}
	cancel  context.CancelFunc

	flushTimeout time.Duration

	dropped   atomic.Uint64
	closeOnce sync.Once
}

func (o *streamOutlet) Push(sample Sample) {
	select {
	case <-o.closing:
		return
	default:
	}
	select {
	case o.queue <- sample:
	default:
		o.dropped.Add(1)
	}
}

func (o *streamOutlet) Dropped() uint64 { return o.dropped.Load() }

// Close stops accepting samples and returns at once, so closing a
// stream never holds up the tick. The writer goroutine flushes what is
// queued and is cut off after flushTimeout.
func (o *streamOutlet) Close() {
	o.closeOnce.Do(func() {
		close(o.closing)
		time.AfterFunc(o.flushTimeout, o.cancel)
	})
}

func (o *streamOutlet) run(ctx context.Context, address string, compression codec.CompressionTag, info StreamInfo, logger *slog.Logger) {
	defer close(o.done)
	defer o.cancel()

	dialer := net.Dialer{Timeout: dialTimeout}
	connection, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		logger.Debug("recorder unreachable, discarding samples", "error", err)
		o.discard()
		return
	}
	defer connection.Close()
	// Cancellation unblocks a write stuck on a recorder that stopped
	// reading.
	stop := context.AfterFunc(ctx, func() { connection.Close() })
	defer stop()

	writer := NewFrameWriter(connection, compression)
	if err := writer.WriteRecord(info); err != nil {
		o.writeFailed(logger, err)
		return
	}
	logger.Debug("stream opened")

	for {
		select {
		case sample := <-o.queue:
			if err := writer.WriteRecord(sample); err != nil {
				o.writeFailed(logger, err)
				return
			}
		case <-o.closing:
			// Flush what was pushed before Close.
			for {
				select {
				case sample := <-o.queue:
					if err := writer.WriteRecord(sample); err != nil {
						o.writeFailed(logger, err)
						return
					}
				default:
					logger.Debug("stream closed", "dropped", o.dropped.Load())
					return
				}
			}
		}
	}
}

// discard empties the queue until Close.
func (o *streamOutlet) discard() {
	for {
		select {
		case <-o.queue:
		case <-o.closing:
			return
		}
	}
}

func (o *streamOutlet) writeFailed(logger *slog.Logger, err error) {
	if netutil.IsExpectedCloseError(err) {
		logger.Debug("recorder went away, discarding samples", "error", err)
	} else {
		logger.Warn("stream write failed, discarding samples", "error", err)
	}
	o.discard()
}
