// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
)

// ErrSuperseded is returned by a Connect whose dial was overtaken by
// Disconnect, Close or a later Connect.
var ErrSuperseded = errors.New("control: connection attempt superseded")

// Client is the presenter end of the control channel. Connect may be
// called again to reconnect; the Events channel stays the same across
// connections.
type Client struct {
	logger *slog.Logger
	dialer net.Dialer
	events *Queue[Event]

	mutex   sync.Mutex
	current *Conn
	closed  bool

	// generation counts Connect and Disconnect calls so a dial that
	// finishes after a newer one began can tell it lost.
	generation uint64

	watchers sync.WaitGroup
}

// NewClient returns a disconnected client.
func NewClient(logger *slog.Logger) *Client {
	return &Client{
		logger: logger,
		events: NewQueue[Event](),
	}
}

// WithDefaultPort appends Port to address if it has none.
func WithDefaultPort(address string) string {
	if _, _, err := net.SplitHostPort(address); err == nil {
		return address
	}
	return net.JoinHostPort(address, strconv.Itoa(Port))
}

// Events delivers connection events and received commands, in order.
// It is closed after Close.
func (c *Client) Events() <-chan Event { return c.events.Out() }

// Connect dials the operator. A previous connection is shut down first
// (see Disconnect) and its EventLost is queued before the new
// connection's EventConnected. Send is not held up by the dial: until
// the new connection is installed it returns ErrNotConnected. A dial
// overtaken by Disconnect, Close or another Connect is discarded.
func (c *Client) Connect(ctx context.Context, address string) error {
	address = WithDefaultPort(address)

	c.mutex.Lock()
	if c.closed {
		c.mutex.Unlock()
		return fmt.Errorf("connecting to %s: client is closed", address)
	}
	c.disconnectLocked()
	c.generation++
	generation := c.generation
	c.mutex.Unlock()

	connection, err := c.dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", address, err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.closed || c.generation != generation {
		connection.Close()
		return fmt.Errorf("connecting to %s: %w", address, ErrSuperseded)
	}

	c.events.Push(Event{Type: EventConnected, Remote: connection.RemoteAddr().String()})
	conn := newConn(connection, c.events, c.logger)
	c.current = conn
	c.logger.Info("connected to operator", "remote", conn.Remote())

	c.watchers.Add(1)
	go func() {
		defer c.watchers.Done()
		<-conn.Done()
		c.mutex.Lock()
		if c.current == conn {
			c.current = nil
		}
		c.mutex.Unlock()
		conn.Close()
	}()
	return nil
}

// Send writes one line to the operator.
func (c *Client) Send(line string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.current == nil {
		return ErrNotConnected
	}
	return c.current.Send(line)
}

// SendStatus writes status to the operator.
func (c *Client) SendStatus(status Status) error {
	return c.Send(FormatStatus(status))
}

// Connected reports whether the client has a live connection.
func (c *Client) Connected() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.current != nil
}

// Disconnect tells the operator the stimulus and streams are stopped
// and closes the connection.
func (c *Client) Disconnect() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.generation++
	c.disconnectLocked()
}

// Close disconnects and closes Events once the last EventLost has been
// delivered.
func (c *Client) Close() {
	c.mutex.Lock()
	c.disconnectLocked()
	c.closed = true
	c.mutex.Unlock()

	c.watchers.Wait()
	c.events.Close()
}

func (c *Client) disconnectLocked() {
	if c.current == nil {
		return
	}
	for _, status := range []StatusKind{StatusStimulusStopped, StatusStreamsStopped} {
		if err := c.current.Send(string(status)); err != nil {
			c.logger.Debug("stop status not sent", "error", err)
		}
	}
	c.current.Close()
	c.current = nil
}
