// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/gazelab/pursuit/lib/testutil"
)

const testTimeout = 5 * time.Second

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startServer serves on a loopback port until the test ends.
func startServer(t *testing.T) *Server {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	server := NewServer(listener, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		if err := testutil.RequireReceive(t, done, testTimeout, "server shutdown"); err != nil {
			t.Errorf("Serve: %v", err)
		}
	})
	return server
}

// peer is a raw TCP connection standing in for the other process.
type peer struct {
	connection net.Conn
	reader     *bufio.Reader
}

func dialPeer(t *testing.T, address string) *peer {
	t.Helper()
	connection, err := net.Dial("tcp", address)
	if err != nil {
		t.Fatalf("dial %s: %v", address, err)
	}
	t.Cleanup(func() { connection.Close() })
	return &peer{connection: connection, reader: bufio.NewReader(connection)}
}

func (p *peer) write(t *testing.T, data string) {
	t.Helper()
	if _, err := p.connection.Write([]byte(data)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func (p *peer) readLine(t *testing.T) string {
	t.Helper()
	p.connection.SetReadDeadline(time.Now().Add(testTimeout)) //nolint:realclock test hang prevention
	line, err := p.reader.ReadString('\n')
	if err != nil {
		t.Fatalf("reading line: %v", err)
	}
	return strings.TrimSuffix(line, "\n")
}

func (p *peer) requireEOF(t *testing.T) {
	t.Helper()
	p.connection.SetReadDeadline(time.Now().Add(testTimeout)) //nolint:realclock test hang prevention
	line, err := p.reader.ReadString('\n')
	if err == nil {
		t.Fatalf("read %q, want connection closed", line)
	}
	if err != io.EOF && !strings.Contains(err.Error(), "reset") {
		t.Fatalf("read error = %v, want EOF", err)
	}
}

func requireEvent(t *testing.T, events <-chan Event, want EventType) Event {
	t.Helper()
	event := testutil.RequireReceive(t, events, testTimeout, "waiting for %s event", want)
	if event.Type != want {
		t.Fatalf("event = %s %q, want %s", event.Type, event.Line, want)
	}
	return event
}

func TestServerReceivesLinesAcrossSplitWrites(t *testing.T) {
	t.Parallel()
	server := startServer(t)
	presenter := dialPeer(t, server.Addr().String())
	requireEvent(t, server.Events(), EventConnected)

	presenter.write(t, "stimulus-sta")
	presenter.write(t, "rted\nstep:1\nst")
	presenter.write(t, "ep:2\n")

	for _, want := range []string{"stimulus-started", "step:1", "step:2"} {
		event := requireEvent(t, server.Events(), EventLine)
		if event.Line != want {
			t.Errorf("line = %q, want %q", event.Line, want)
		}
	}
}

func TestServerSendsToCurrentPresenter(t *testing.T) {
	t.Parallel()
	server := startServer(t)
	if err := server.Send("start-stimulus"); err != ErrNotConnected {
		t.Errorf("Send without a presenter = %v, want ErrNotConnected", err)
	}

	presenter := dialPeer(t, server.Addr().String())
	requireEvent(t, server.Events(), EventConnected)

	if err := server.SendCommand(StimulusChange("level-1-smooth", []byte(`{"tps":60}`))); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	if err := server.Send("start-stimulus"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := presenter.readLine(t); got != `level-1-smooth:{"tps":60}` {
		t.Errorf("first line = %q", got)
	}
	if got := presenter.readLine(t); got != "start-stimulus" {
		t.Errorf("second line = %q", got)
	}
}

func TestServerSupersedesPreviousConnection(t *testing.T) {
	t.Parallel()
	server := startServer(t)

	first := dialPeer(t, server.Addr().String())
	requireEvent(t, server.Events(), EventConnected)
	first.write(t, "stimulus-started\n")
	requireEvent(t, server.Events(), EventLine)

	second := dialPeer(t, server.Addr().String())

	// The first presenter is told to stop, then dropped.
	if got := first.readLine(t); got != "stop-stimulus" {
		t.Errorf("first presenter line 1 = %q, want stop-stimulus", got)
	}
	if got := first.readLine(t); got != "stop-streams" {
		t.Errorf("first presenter line 2 = %q, want stop-streams", got)
	}
	first.requireEOF(t)

	// The old generation ends before the new one begins.
	requireEvent(t, server.Events(), EventLost)
	connected := requireEvent(t, server.Events(), EventConnected)
	if connected.Remote != second.connection.LocalAddr().String() {
		t.Errorf("connected remote = %s, want %s", connected.Remote, second.connection.LocalAddr())
	}

	if err := server.Send("start-streams"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := second.readLine(t); got != "start-streams" {
		t.Errorf("second presenter line = %q, want start-streams", got)
	}

	second.write(t, "streams-started\n")
	if event := requireEvent(t, server.Events(), EventLine); event.Line != "streams-started" {
		t.Errorf("line = %q", event.Line)
	}
}

func TestServerPresenterHangsUp(t *testing.T) {
	t.Parallel()
	server := startServer(t)
	presenter := dialPeer(t, server.Addr().String())
	requireEvent(t, server.Events(), EventConnected)

	presenter.write(t, "step:3\nstep:")
	presenter.connection.Close()

	if event := requireEvent(t, server.Events(), EventLine); event.Line != "step:3" {
		t.Errorf("line = %q, want step:3", event.Line)
	}
	lost := requireEvent(t, server.Events(), EventLost)
	if lost.Err != nil {
		t.Errorf("clean hang-up reported error %v", lost.Err)
	}
	testutil.RequireNoReceive(t, server.Events(), 50*time.Millisecond, "second lost event")

	// The watcher clears the connection asynchronously after the loss.
	deadline := time.Now().Add(testTimeout) //nolint:realclock test hang prevention
	for {
		if _, connected := server.Connected(); !connected {
			break
		}
		if time.Now().After(deadline) { //nolint:realclock test hang prevention
			t.Fatal("server still reports a connection after hang-up")
		}
		time.Sleep(time.Millisecond) //nolint:realclock polling a background goroutine
	}
	if err := server.Send("start-stimulus"); err != ErrNotConnected {
		t.Errorf("Send after hang-up = %v, want ErrNotConnected", err)
	}
}

func TestServerDisconnect(t *testing.T) {
	t.Parallel()
	server := startServer(t)
	presenter := dialPeer(t, server.Addr().String())
	requireEvent(t, server.Events(), EventConnected)

	server.Disconnect()
	if got := presenter.readLine(t); got != "stop-stimulus" {
		t.Errorf("line 1 = %q", got)
	}
	if got := presenter.readLine(t); got != "stop-streams" {
		t.Errorf("line 2 = %q", got)
	}
	presenter.requireEOF(t)
	requireEvent(t, server.Events(), EventLost)
	if _, connected := server.Connected(); connected {
		t.Error("still connected after Disconnect")
	}
}

func TestServerSendCommandsKeepsBatchTogether(t *testing.T) {
	t.Parallel()
	server := startServer(t)
	batch := []Command{
		{Verb: VerbStopStimulus},
		{Verb: VerbStopStreams},
		StimulusChange("level-2-saccades", []byte(`{"tps":120}`)),
	}
	if err := server.SendCommands(batch...); err != ErrNotConnected {
		t.Errorf("SendCommands without a presenter = %v, want ErrNotConnected", err)
	}

	first := dialPeer(t, server.Addr().String())
	requireEvent(t, server.Events(), EventConnected)

	// Batches race a second presenter; the first presenter sees whole
	// batches followed by the supersession stop pair, and the second
	// sees only whole batches.
	sent := make(chan int, 1)
	go func() {
		count := 0
		for range 20 {
			if server.SendCommands(batch...) == nil {
				count++
			}
		}
		sent <- count
	}()
	second := dialPeer(t, server.Addr().String())
	count := testutil.RequireReceive(t, sent, testTimeout, "batches sent")
	requireEvent(t, server.Events(), EventLost)
	requireEvent(t, server.Events(), EventConnected)

	received := 0
	for _, presenter := range []*peer{first, second} {
		for {
			presenter.connection.SetReadDeadline(time.Now().Add(200 * time.Millisecond)) //nolint:realclock test hang prevention
			line, err := presenter.reader.ReadString('\n')
			if err != nil {
				break
			}
			line = strings.TrimSuffix(line, "\n")
			if line != FormatCommand(batch[0]) {
				t.Fatalf("batch starts with %q", line)
			}
			next, err := presenter.reader.ReadString('\n')
			if err != nil {
				// The supersession stop pair is two lines, not three.
				break
			}
			last, err := presenter.reader.ReadString('\n')
			if err != nil {
				if strings.TrimSuffix(next, "\n") != FormatCommand(batch[1]) {
					t.Fatalf("stop pair ends with %q", next)
				}
				break
			}
			if strings.TrimSuffix(next, "\n") != FormatCommand(batch[1]) || strings.TrimSuffix(last, "\n") != FormatCommand(batch[2]) {
				t.Fatalf("split batch: %q, %q, %q", line, next, last)
			}
			received++
		}
	}
	if received != count {
		t.Errorf("presenters received %d whole batches, server sent %d", received, count)
	}
}
