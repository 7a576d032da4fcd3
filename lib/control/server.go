// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
)

// Server is the operator end of the control channel. It keeps at most
// one presenter connection.
type Server struct {
	listener net.Listener
	logger   *slog.Logger
	events   *Queue[Event]

	// mutex serializes everything that touches current: Send,
	// Disconnect and the supersession of one connection by the next.
	mutex   sync.Mutex
	current *Conn

	watchers sync.WaitGroup
}

// NewServer wraps a bound listener. Call Serve to start accepting.
func NewServer(listener net.Listener, logger *slog.Logger) *Server {
	return &Server{
		listener: listener,
		logger:   logger,
		events:   NewQueue[Event](),
	}
}

// Addr returns the listener's address, useful when bound to port 0.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Events delivers connection events and received status lines, in
// order, across all connections the server has had. It is closed after
// Serve returns.
func (s *Server) Events() <-chan Event { return s.events.Out() }

// Serve accepts connections until ctx is cancelled. On return the
// listener and any live connection are closed.
func (s *Server) Serve(ctx context.Context) error {
	defer s.events.Close()

	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	s.logger.Info("control server listening", "address", s.listener.Addr().String())

	var serveErr error
	for {
		connection, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				serveErr = err
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}
		s.adopt(connection)
	}

	s.mutex.Lock()
	if s.current != nil {
		s.current.Close()
		s.current = nil
	}
	s.mutex.Unlock()
	s.watchers.Wait()
	return serveErr
}

// adopt makes connection the current one, superseding any previous
// connection. The previous presenter is told to stop its stimulus and
// streams before it is closed, and its EventLost is queued before the
// new EventConnected, so the two generations never interleave.
func (s *Server) adopt(connection net.Conn) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if previous := s.current; previous != nil {
		s.logger.Info("superseding control connection",
			"previous", previous.Remote(),
			"remote", connection.RemoteAddr().String(),
		)
		s.stopRemote(previous)
		previous.Close()
	}

	s.events.Push(Event{Type: EventConnected, Remote: connection.RemoteAddr().String()})
	conn := newConn(connection, s.events, s.logger)
	s.current = conn
	s.logger.Info("presenter connected", "remote", conn.Remote())

	s.watchers.Add(1)
	go func() {
		defer s.watchers.Done()
		<-conn.Done()
		s.mutex.Lock()
		if s.current == conn {
			s.current = nil
		}
		s.mutex.Unlock()
		conn.Close()
	}()
}

// Send writes one line to the current presenter.
func (s *Server) Send(line string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.current == nil {
		return ErrNotConnected
	}
	return s.current.Send(line)
}

// SendCommand writes command to the current presenter.
func (s *Server) SendCommand(command Command) error {
	return s.Send(FormatCommand(command))
}

// SendCommands writes commands to the current presenter as one batch.
// A supersession cannot land inside the batch, so every command goes to
// the same presenter.
func (s *Server) SendCommands(commands ...Command) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.current == nil {
		return ErrNotConnected
	}
	for _, command := range commands {
		if err := s.current.Send(FormatCommand(command)); err != nil {
			return err
		}
	}
	return nil
}

// Connected reports whether a presenter is connected, and its address.
func (s *Server) Connected() (string, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.current == nil {
		return "", false
	}
	return s.current.Remote(), true
}

// Disconnect stops the current presenter's stimulus and streams and
// closes its connection. The server keeps listening.
func (s *Server) Disconnect() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.current == nil {
		return
	}
	s.stopRemote(s.current)
	s.current.Close()
	s.current = nil
}

func (s *Server) stopRemote(conn *Conn) {
	for _, verb := range []Verb{VerbStopStimulus, VerbStopStreams} {
		if err := conn.Send(string(verb)); err != nil {
			s.logger.Debug("stop command not sent", "remote", conn.Remote(), "error", err)
		}
	}
}
