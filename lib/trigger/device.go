// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package trigger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/gazelab/pursuit/lib/trajectory"
)

// Command bytes.
const (
	commandPing   byte = 0x27
	commandBinary byte = 0x5C
	pingReply     byte = 'Q'
)

// DefaultBaud is the board's factory baud rate.
const DefaultBaud = 9600

// pulseQueueSize bounds the pulses waiting for the port. A state change
// arriving while it is full is dropped.
const pulseQueueSize = 16

// handshakeTimeout bounds the wait for the ping reply.
const handshakeTimeout = time.Second

// ErrNoReply is returned when the board does not answer the ping.
var ErrNoReply = errors.New("trigger: device did not answer ping")

// Config selects the port and maps states to lines.
type Config struct {
	// Device is the serial device path, e.g. /dev/ttyUSB0 or COM3.
	Device string

	// Baud is the serial speed. Zero means DefaultBaud.
	Baud int

	// Lines maps each state to the lines to pulse, as a string of
	// digits '1'..'8'. States without an entry are not marked.
	Lines map[trajectory.State]string

	// Pulse is how long lines stay high.
	Pulse time.Duration
}

// Validate checks the line map and pulse width.
func (c Config) Validate() error {
	if c.Pulse < 0 {
		return fmt.Errorf("trigger pulse must not be negative, got %s", c.Pulse)
	}
	for state, lines := range c.Lines {
		if err := validateLines(lines); err != nil {
			return fmt.Errorf("trigger lines for %s: %w", state, err)
		}
	}
	return nil
}

func validateLines(lines string) error {
	if lines == "" {
		return errors.New("no lines given")
	}
	for _, line := range lines {
		if line < '1' || line > '8' {
			return fmt.Errorf("line %q is not in 1..8", line)
		}
	}
	return nil
}

// Port is the serial connection. go.bug.st/serial ports satisfy it.
type Port interface {
	io.ReadWriteCloser
	SetReadTimeout(timeout time.Duration) error
}

// Device is an open board.
type Device struct {
	port   Port
	config Config
	logger *slog.Logger

	pulses    chan string
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// Open opens config.Device and performs the handshake.
func Open(config Config, logger *slog.Logger) (*Device, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	baud := config.Baud
	if baud == 0 {
		baud = DefaultBaud
	}
	port, err := serial.Open(config.Device, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("opening trigger device %s: %w", config.Device, err)
	}
	device, err := NewDevice(port, config, logger)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("trigger device %s: %w", config.Device, err)
	}
	return device, nil
}

// NewDevice performs the handshake on an already open port and starts
// the pulse goroutine. The caller keeps ownership of port on error.
func NewDevice(port Port, config Config, logger *slog.Logger) (*Device, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := handshake(port); err != nil {
		return nil, err
	}

	device := &Device{
		port:   port,
		config: config,
		logger: logger,
		pulses: make(chan string, pulseQueueSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go device.run()
	return device, nil
}

func handshake(port Port) error {
	if err := port.SetReadTimeout(handshakeTimeout); err != nil {
		return fmt.Errorf("setting read timeout: %w", err)
	}
	if _, err := port.Write([]byte{commandPing}); err != nil {
		return fmt.Errorf("sending ping: %w", err)
	}
	reply := make([]byte, 1)
	count, err := port.Read(reply)
	if err != nil {
		return fmt.Errorf("reading ping reply: %w", err)
	}
	if count != 1 || reply[0] != pingReply {
		return ErrNoReply
	}
	if _, err := port.Write([]byte{commandBinary}); err != nil {
		return fmt.Errorf("selecting binary mode: %w", err)
	}
	return nil
}

// Pulse raises lines for the configured pulse width and lowers them
// again. It returns at once; the pulse is dropped if too many are
// already waiting.
func (d *Device) Pulse(lines string) {
	select {
	case <-d.stop:
		return
	default:
	}
	select {
	case d.pulses <- lines:
	default:
		d.logger.Warn("trigger queue full, pulse dropped", "lines", lines)
	}
}

// Mark pulses the lines configured for state.
func (d *Device) Mark(state trajectory.State) {
	if lines, ok := d.config.Lines[state]; ok {
		d.Pulse(lines)
	}
}

// Close lowers every line, stops the pulse goroutine, and closes the
// port.
func (d *Device) Close() error {
	var err error
	d.closeOnce.Do(func() {
		close(d.stop)
		<-d.done
		if _, writeErr := d.port.Write([]byte(unsetCommand("12345678"))); writeErr != nil {
			d.logger.Debug("lowering trigger lines on close", "error", writeErr)
		}
		err = d.port.Close()
	})
	return err
}

func (d *Device) run() {
	defer close(d.done)
	for {
		select {
		case <-d.stop:
			return
		case lines := <-d.pulses:
			if !d.pulse(lines) {
				return
			}
		}
	}
}

// pulse returns false when the device is closing.
func (d *Device) pulse(lines string) bool {
	if _, err := d.port.Write([]byte(lines)); err != nil {
		d.logger.Warn("raising trigger lines", "lines", lines, "error", err)
		return true
	}
	timer := time.NewTimer(d.config.Pulse)
	defer timer.Stop()
	stopping := false
	select {
	case <-timer.C:
	case <-d.stop:
		stopping = true
	}
	if _, err := d.port.Write([]byte(unsetCommand(lines))); err != nil {
		d.logger.Warn("lowering trigger lines", "lines", lines, "error", err)
	}
	return !stopping
}

// unsetKeys maps line '1'..'8' to the byte that lowers it.
const unsetKeys = "QWERTYUI"

func unsetCommand(lines string) string {
	var builder strings.Builder
	for _, line := range []byte(lines) {
		builder.WriteByte(unsetKeys[line-'1'])
	}
	return builder.String()
}
