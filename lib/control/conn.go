// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/gazelab/pursuit/lib/netutil"
)

// ErrNotConnected is returned by Send when there is no live connection.
var ErrNotConnected = errors.New("control: not connected")

// readSize is the size of a single socket read.
const readSize = 1024

// EventType distinguishes the entries of an Events channel.
type EventType int

const (
	// EventConnected precedes every line of a new connection.
	EventConnected EventType = iota + 1

	// EventLine carries one received message.
	EventLine

	// EventLost follows the last line of a connection. It is delivered
	// exactly once per connection, whether the peer went away or this
	// side closed the socket.
	EventLost
)

func (t EventType) String() string {
	switch t {
	case EventConnected:
		return "connected"
	case EventLine:
		return "line"
	case EventLost:
		return "lost"
	default:
		return "unknown"
	}
}

// Event is one entry on an Events channel.
type Event struct {
	Type EventType

	// Line is the received message for EventLine.
	Line string

	// Remote is the peer address.
	Remote string

	// Err is why the connection ended, for EventLost. It is nil when
	// the connection was closed locally or the peer closed it cleanly.
	Err error
}

// Conn is one live control connection. The owner (Server or Client)
// creates it, reads its events from a shared queue, and closes it.
type Conn struct {
	connection net.Conn
	remote     string
	logger     *slog.Logger

	events   *Queue[Event]
	outgoing *Queue[string]

	readDone  chan struct{}
	writeDone chan struct{}
	closeOnce sync.Once
}

// newConn starts the read and write loops. Received lines and the
// final EventLost are pushed to events.
func newConn(connection net.Conn, events *Queue[Event], logger *slog.Logger) *Conn {
	remote := connection.RemoteAddr().String()
	conn := &Conn{
		connection: connection,
		remote:     remote,
		logger:     logger.With("remote", remote),
		events:     events,
		outgoing:   NewQueue[string](),
		readDone:   make(chan struct{}),
		writeDone:  make(chan struct{}),
	}
	go conn.readLoop()
	go conn.writeLoop()
	return conn
}

// Remote returns the peer address.
func (c *Conn) Remote() string { return c.remote }

// Send queues line for writing. It returns ErrNotConnected once the
// connection has been closed. A write failure after queueing shows up
// as EventLost, not as an error here.
func (c *Conn) Send(line string) error {
	if !c.outgoing.Push(line) {
		return ErrNotConnected
	}
	return nil
}

// Done is closed when the read loop has exited and its EventLost has
// been queued.
func (c *Conn) Done() <-chan struct{} { return c.readDone }

// Close flushes lines already passed to Send, closes the socket, and
// waits for both loops to exit. It is safe to call from several
// goroutines; every call returns only after the connection is fully
// torn down.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		c.outgoing.Close()
		<-c.writeDone
		c.connection.Close()
		<-c.readDone
	})
}

func (c *Conn) readLoop() {
	defer close(c.readDone)

	var lines LineBuffer
	buffer := make([]byte, readSize)
	for {
		count, err := c.connection.Read(buffer)
		if count > 0 {
			for _, line := range lines.Feed(buffer[:count]) {
				c.events.Push(Event{Type: EventLine, Line: line, Remote: c.remote})
			}
		}
		if err != nil {
			lost := Event{Type: EventLost, Remote: c.remote}
			if !netutil.IsExpectedCloseError(err) {
				lost.Err = err
				c.logger.Warn("control connection failed", "error", err)
			} else {
				c.logger.Debug("control connection closed", "reason", err)
			}
			if pending := lines.Pending(); pending != "" {
				c.logger.Debug("discarding unterminated message", "bytes", len(pending))
			}
			c.events.Push(lost)
			return
		}
	}
}

// writeLoop writes queued lines until the queue is closed and drained.
// After a failed write it closes the socket, so the read loop ends and
// reports the loss, and discards whatever is still queued.
func (c *Conn) writeLoop() {
	defer close(c.writeDone)

	failed := false
	for line := range c.outgoing.Out() {
		if failed {
			continue
		}
		if _, err := c.connection.Write([]byte(line + string(Delimiter))); err != nil {
			failed = true
			if !netutil.IsExpectedCloseError(err) {
				c.logger.Warn("control write failed", "error", err)
			}
			c.connection.Close()
			continue
		}
		c.logger.Debug("control line sent", "line", truncate(line))
	}
}
