// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"bufio"
	"context"
	"errors"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/gazelab/pursuit/lib/testutil"
)

// acceptPeers listens on loopback and hands each accepted connection to
// the returned channel.
func acceptPeers(t *testing.T) (string, <-chan *peer) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	peers := make(chan *peer, 4)
	go func() {
		for {
			connection, err := listener.Accept()
			if err != nil {
				return
			}
			peers <- &peer{connection: connection, reader: bufio.NewReader(connection)}
		}
	}()
	return listener.Addr().String(), peers
}

func TestWithDefaultPort(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"192.168.1.20":      "192.168.1.20:49152",
		"operator.lab":      "operator.lab:49152",
		"10.0.0.1:7000":     "10.0.0.1:7000",
		"::1":               "[::1]:49152",
		"[fe80::1]:49152":   "[fe80::1]:49152",
		"localhost:http":    "localhost:http",
		"presenter-host:22": "presenter-host:22",
	}
	for input, want := range tests {
		if got := WithDefaultPort(input); got != want {
			t.Errorf("WithDefaultPort(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestClientExchangesLines(t *testing.T) {
	t.Parallel()
	address, peers := acceptPeers(t)
	client := NewClient(testLogger())
	t.Cleanup(client.Close)

	if err := client.Send("stimulus-started"); err != ErrNotConnected {
		t.Errorf("Send before Connect = %v, want ErrNotConnected", err)
	}
	if err := client.Connect(context.Background(), address); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	operator := testutil.RequireReceive(t, peers, testTimeout, "accept")
	t.Cleanup(func() { operator.connection.Close() })
	requireEvent(t, client.Events(), EventConnected)

	operator.write(t, "level-1-saccades:{}\nstart-stimulus\n")
	for _, want := range []string{"level-1-saccades:{}", "start-stimulus"} {
		if event := requireEvent(t, client.Events(), EventLine); event.Line != want {
			t.Errorf("line = %q, want %q", event.Line, want)
		}
	}

	if err := client.SendStatus(StepStatus(4)); err != nil {
		t.Fatalf("SendStatus: %v", err)
	}
	if got := operator.readLine(t); got != "step:4" {
		t.Errorf("operator read %q, want step:4", got)
	}
}

func TestClientReconnectTearsDownPrevious(t *testing.T) {
	t.Parallel()
	address, peers := acceptPeers(t)
	client := NewClient(testLogger())
	t.Cleanup(client.Close)

	if err := client.Connect(context.Background(), address); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	first := testutil.RequireReceive(t, peers, testTimeout, "first accept")
	t.Cleanup(func() { first.connection.Close() })
	requireEvent(t, client.Events(), EventConnected)

	if err := client.Connect(context.Background(), address); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	second := testutil.RequireReceive(t, peers, testTimeout, "second accept")
	t.Cleanup(func() { second.connection.Close() })

	if got := first.readLine(t); got != "stimulus-stopped" {
		t.Errorf("first operator line 1 = %q", got)
	}
	if got := first.readLine(t); got != "streams-stopped" {
		t.Errorf("first operator line 2 = %q", got)
	}
	first.requireEOF(t)

	requireEvent(t, client.Events(), EventLost)
	requireEvent(t, client.Events(), EventConnected)

	if err := client.Send("stimulus-started"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := second.readLine(t); got != "stimulus-started" {
		t.Errorf("second operator read %q", got)
	}
}

func TestClientOperatorGoesAway(t *testing.T) {
	t.Parallel()
	address, peers := acceptPeers(t)
	client := NewClient(testLogger())

	if err := client.Connect(context.Background(), address); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	operator := testutil.RequireReceive(t, peers, testTimeout, "accept")
	requireEvent(t, client.Events(), EventConnected)

	operator.connection.Close()
	requireEvent(t, client.Events(), EventLost)

	client.Close()
	testutil.RequireClosed(t, client.Events(), testTimeout, "events after Close")
	if err := client.Connect(context.Background(), address); err == nil {
		t.Error("Connect succeeded on a closed client")
	}
}

func TestClientConnectRefused(t *testing.T) {
	t.Parallel()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	address := listener.Addr().String()
	listener.Close()

	client := NewClient(testLogger())
	t.Cleanup(client.Close)
	if err := client.Connect(context.Background(), address); err == nil {
		t.Fatal("Connect to a closed port succeeded")
	}
	if client.Connected() {
		t.Error("client reports a connection after a failed dial")
	}
}

// holdDial makes every dial by client wait in Control until release is
// closed. Each dial announces itself on the returned channel.
func holdDial(client *Client) (dialing <-chan struct{}, release chan struct{}) {
	started := make(chan struct{}, 4)
	release = make(chan struct{})
	client.dialer.Control = func(network, address string, raw syscall.RawConn) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	}
	return started, release
}

func TestClientSendDoesNotWaitForDial(t *testing.T) {
	t.Parallel()
	address, peers := acceptPeers(t)
	client := NewClient(testLogger())
	t.Cleanup(client.Close)
	dialing, release := holdDial(client)

	connected := make(chan error, 1)
	go func() { connected <- client.Connect(context.Background(), address) }()
	testutil.RequireReceive(t, dialing, testTimeout, "dial start")

	sent := make(chan error, 1)
	go func() { sent <- client.SendStatus(StepStatus(3)) }()
	if err := testutil.RequireReceive(t, sent, 500*time.Millisecond, "SendStatus during dial"); err != ErrNotConnected {
		t.Errorf("SendStatus during dial = %v, want ErrNotConnected", err)
	}

	close(release)
	if err := testutil.RequireReceive(t, connected, testTimeout, "Connect"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	operator := testutil.RequireReceive(t, peers, testTimeout, "accept")
	t.Cleanup(func() { operator.connection.Close() })
	requireEvent(t, client.Events(), EventConnected)

	if err := client.SendStatus(StepStatus(3)); err != nil {
		t.Fatalf("SendStatus: %v", err)
	}
	if got := operator.readLine(t); got != "step:3" {
		t.Errorf("operator read %q, want step:3", got)
	}
}

func TestClientDisconnectDuringDialDiscardsConnection(t *testing.T) {
	t.Parallel()
	address, peers := acceptPeers(t)
	client := NewClient(testLogger())
	t.Cleanup(client.Close)
	dialing, release := holdDial(client)

	connected := make(chan error, 1)
	go func() { connected <- client.Connect(context.Background(), address) }()
	testutil.RequireReceive(t, dialing, testTimeout, "dial start")

	client.Disconnect()
	close(release)
	if err := testutil.RequireReceive(t, connected, testTimeout, "Connect"); !errors.Is(err, ErrSuperseded) {
		t.Fatalf("Connect = %v, want ErrSuperseded", err)
	}
	if client.Connected() {
		t.Error("client installed a connection dialed before Disconnect")
	}

	operator := testutil.RequireReceive(t, peers, testTimeout, "accept")
	t.Cleanup(func() { operator.connection.Close() })
	operator.requireEOF(t)
	testutil.RequireNoReceive(t, client.Events(), 50*time.Millisecond, "events for a discarded dial")
}
