// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package control

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Port is the well-known control port the operator listens on.
const Port = 49152

var (
	// ErrUnknownCommand is returned by ParseCommand for a line that is
	// not in the command vocabulary.
	ErrUnknownCommand = errors.New("control: unknown command")

	// ErrUnknownStatus is returned by ParseStatus for a line that is not
	// in the status vocabulary.
	ErrUnknownStatus = errors.New("control: unknown status")
)

// Separator divides a message's name from its argument.
const Separator = ':'

// Verb is what a Command asks the presenter to do.
type Verb string

const (
	VerbStartStimulus  Verb = "start-stimulus"
	VerbStopStimulus   Verb = "stop-stimulus"
	VerbStartStreams   Verb = "start-streams"
	VerbStopStreams    Verb = "stop-streams"
	VerbChangeStimulus Verb = "change-stimulus"
)

// Command is one operator-to-presenter message.
type Command struct {
	Verb Verb

	// Kind and Settings are set for VerbChangeStimulus only. Settings is
	// the raw JSON payload; the presenter parses it against the kind.
	Kind     string
	Settings []byte
}

// StimulusChange builds the command that switches the presenter to
// kind with the given JSON settings.
func StimulusChange(kind string, settings []byte) Command {
	return Command{Verb: VerbChangeStimulus, Kind: kind, Settings: settings}
}

// ParseCommand decodes one line. Any line with a separator is a
// stimulus change; the kind is everything before the first separator
// and is not validated here.
func ParseCommand(line string) (Command, error) {
	if kind, settings, found := strings.Cut(line, string(Separator)); found {
		if kind == "" {
			return Command{}, fmt.Errorf("%w: empty stimulus kind in %q", ErrUnknownCommand, truncate(line))
		}
		return StimulusChange(kind, []byte(settings)), nil
	}
	switch verb := Verb(line); verb {
	case VerbStartStimulus, VerbStopStimulus, VerbStartStreams, VerbStopStreams:
		return Command{Verb: verb}, nil
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, truncate(line))
	}
}

// FormatCommand encodes command as a line, without the delimiter.
func FormatCommand(command Command) string {
	if command.Verb == VerbChangeStimulus {
		return command.Kind + string(Separator) + string(command.Settings)
	}
	return string(command.Verb)
}

func (c Command) String() string { return FormatCommand(c) }

// StatusKind is what a Status reports.
type StatusKind string

const (
	StatusStimulusStarted StatusKind = "stimulus-started"
	StatusStimulusStopped StatusKind = "stimulus-stopped"
	StatusStreamsStarted  StatusKind = "streams-started"
	StatusStreamsStopped  StatusKind = "streams-stopped"
	StatusStep            StatusKind = "step"
	StatusStimulusChanged StatusKind = "stimulus-changed"
	StatusError           StatusKind = "error"
)

// Status is one presenter-to-operator message.
type Status struct {
	Kind StatusKind

	// Step is set for StatusStep.
	Step int

	// Stimulus is set for StatusStimulusChanged.
	Stimulus string

	// Message is set for StatusError.
	Message string
}

// StepStatus reports the current step index.
func StepStatus(step int) Status { return Status{Kind: StatusStep, Step: step} }

// ChangedStatus acknowledges a stimulus change.
func ChangedStatus(kind string) Status { return Status{Kind: StatusStimulusChanged, Stimulus: kind} }

// ErrorStatus reports a rejected command or a failed run.
func ErrorStatus(err error) Status { return Status{Kind: StatusError, Message: err.Error()} }

// ParseStatus decodes one line.
func ParseStatus(line string) (Status, error) {
	name, argument, hasArgument := strings.Cut(line, string(Separator))
	kind := StatusKind(name)
	switch kind {
	case StatusStimulusStarted, StatusStimulusStopped, StatusStreamsStarted, StatusStreamsStopped:
		if hasArgument {
			break
		}
		return Status{Kind: kind}, nil
	case StatusStep:
		if !hasArgument {
			break
		}
		step, err := strconv.Atoi(argument)
		if err != nil || step < 0 {
			return Status{}, fmt.Errorf("%w: bad step index %q", ErrUnknownStatus, truncate(argument))
		}
		return StepStatus(step), nil
	case StatusStimulusChanged:
		if !hasArgument {
			break
		}
		return ChangedStatus(argument), nil
	case StatusError:
		if !hasArgument {
			break
		}
		return Status{Kind: StatusError, Message: argument}, nil
	}
	return Status{}, fmt.Errorf("%w: %q", ErrUnknownStatus, truncate(line))
}

// FormatStatus encodes status as a line, without the delimiter. Line
// breaks in an error message are flattened so the message stays one
// line.
func FormatStatus(status Status) string {
	switch status.Kind {
	case StatusStep:
		return string(StatusStep) + string(Separator) + strconv.Itoa(status.Step)
	case StatusStimulusChanged:
		return string(StatusStimulusChanged) + string(Separator) + status.Stimulus
	case StatusError:
		message := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(status.Message)
		return string(StatusError) + string(Separator) + message
	default:
		return string(status.Kind)
	}
}

func (s Status) String() string { return FormatStatus(s) }

// truncate shortens a line for use in an error message.
func truncate(line string) string {
	const limit = 80
	if len(line) <= limit {
		return line
	}
	return line[:limit] + "..."
}
