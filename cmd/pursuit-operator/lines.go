// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gazelab/pursuit/lib/operator"
)

// errQuit ends the line console.
var errQuit = errors.New("quit")

const lineHelp = `commands:
  preset <name|number>  select a preset
  presets               list presets
  start | stop          start or stop the stimulus
  streams on|off        open or close the sample streams
  disconnect            stop and drop the presenter
  reload                re-read the sequence files
  quit`

// lineConsole executes one text command per line.
type lineConsole struct {
	operator *operator.Operator
	reload   func() error
	output   io.Writer
}

// runLines reads commands from input until quit, end of input or ctx
// is cancelled, and prints the presenter's state whenever it changes.
func runLines(ctx context.Context, input io.Reader, output io.Writer, op *operator.Operator, reload func() error) error {
	console := &lineConsole{operator: op, reload: reload, output: output}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readDone := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(input)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readDone <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readDone:
			if err != nil {
				return fmt.Errorf("reading commands: %w", err)
			}
			return nil
		case <-op.Updates():
			fmt.Fprintln(output, describe(op.Snapshot()))
		case line := <-lines:
			err := console.execute(line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintf(output, "error: %v\n", err)
			}
		}
	}
}

func (c *lineConsole) execute(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	verb, arguments := strings.ToLower(fields[0]), fields[1:]

	switch verb {
	case "preset":
		if len(arguments) != 1 {
			return errors.New("usage: preset <name|number>")
		}
		return c.selectPreset(arguments[0])
	case "presets":
		c.listPresets()
		return nil
	case "start":
		return c.operator.StartStimulus()
	case "stop":
		return c.operator.StopStimulus()
	case "streams":
		if len(arguments) != 1 {
			return errors.New("usage: streams on|off")
		}
		switch strings.ToLower(arguments[0]) {
		case "on":
			return c.operator.StartStreams()
		case "off":
			return c.operator.StopStreams()
		}
		return fmt.Errorf("streams: want on or off, got %q", arguments[0])
	case "disconnect":
		c.operator.Disconnect()
		return nil
	case "reload":
		if err := c.reload(); err != nil {
			return err
		}
		c.listPresets()
		return nil
	case "status":
		fmt.Fprintln(c.output, describe(c.operator.Snapshot()))
		return nil
	case "help", "?":
		fmt.Fprintln(c.output, lineHelp)
		return nil
	case "quit", "exit":
		return errQuit
	}
	return fmt.Errorf("unknown command %q (try help)", verb)
}

// selectPreset accepts a preset name or its 1-based number.
func (c *lineConsole) selectPreset(argument string) error {
	if number, err := strconv.Atoi(argument); err == nil {
		presets := c.operator.Presets()
		if number < 1 || number > len(presets) {
			return fmt.Errorf("no preset %d (have %d)", number, len(presets))
		}
		return c.operator.ChangeStimulus(presets[number-1])
	}
	return c.operator.Select(argument)
}

func (c *lineConsole) listPresets() {
	for i, preset := range c.operator.Presets() {
		fmt.Fprintf(c.output, "%d %s (%d %s)\n", i+1, preset.Kind.Name, preset.Len, preset.Kind.SequenceKey())
	}
}

// describe renders a snapshot on one line.
func describe(snapshot operator.Snapshot) string {
	if !snapshot.Connected {
		line := "presenter: waiting"
		if snapshot.LastError != "" {
			line += " | last error: " + snapshot.LastError
		}
		return line
	}

	parts := []string{"presenter: " + snapshot.Remote}
	if snapshot.Stimulus == "" {
		parts = append(parts, "stimulus: none")
	} else {
		stimulus := "stimulus: " + snapshot.Stimulus
		if !snapshot.Confirmed {
			stimulus += " (pending)"
		}
		parts = append(parts, stimulus)
	}
	parts = append(parts,
		"run: "+onOff(snapshot.StimulusRunning, "running", "stopped"),
		"streams: "+onOff(snapshot.StreamsRunning, "on", "off"),
		fmt.Sprintf("step: %d/%d", snapshot.Step, snapshot.Total),
	)
	if snapshot.LastError != "" {
		parts = append(parts, "error: "+snapshot.LastError)
	}
	return strings.Join(parts, " | ")
}

func onOff(value bool, on, off string) string {
	if value {
		return on
	}
	return off
}
