// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package operator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/gazelab/pursuit/lib/control"
	"github.com/gazelab/pursuit/lib/stimulus"
)

// ErrUnknownPreset is returned by Select for a name no preset has.
var ErrUnknownPreset = errors.New("operator: unknown preset")

// Snapshot is the operator's view of the presenter.
type Snapshot struct {
	// Connected is true while a presenter is attached.
	Connected bool
	Remote    string

	// Stimulus is the kind most recently sent. Confirmed turns true
	// when the presenter acknowledges it.
	Stimulus  string
	Confirmed bool

	StimulusRunning bool
	StreamsRunning  bool

	// Step is the presenter's last reported step; Total is the length
	// of the selected preset's sequence.
	Step  int
	Total int

	// LastError is the most recent error reported by the presenter.
	LastError string
}

// Operator drives one presenter through a control.Server.
type Operator struct {
	server *control.Server
	logger *slog.Logger

	mutex    sync.Mutex
	shared   map[string]any
	presets  []Preset
	snapshot Snapshot

	updates chan struct{}
}

// New returns an Operator sending shared settings with every stimulus.
func New(server *control.Server, shared map[string]any, presets []Preset, logger *slog.Logger) *Operator {
	return &Operator{
		server:  server,
		logger:  logger,
		shared:  maps.Clone(shared),
		presets: slices.Clone(presets),
		updates: make(chan struct{}, 1),
	}
}

// Serve runs the control server and processes presenter events until
// ctx is cancelled.
func (o *Operator) Serve(ctx context.Context) error {
	serveDone := make(chan error, 1)
	go func() { serveDone <- o.server.Serve(ctx) }()

	for event := range o.server.Events() {
		o.handleEvent(event)
	}
	return <-serveDone
}

// Updates signals after every snapshot change. Signals coalesce: one
// pending signal stands for any number of changes.
func (o *Operator) Updates() <-chan struct{} { return o.updates }

// Snapshot returns the current view.
func (o *Operator) Snapshot() Snapshot {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return o.snapshot
}

// Presets returns the selectable presets in order.
func (o *Operator) Presets() []Preset {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return slices.Clone(o.presets)
}

// SetPresets replaces the presets, e.g. after the sequence files were
// edited.
func (o *Operator) SetPresets(presets []Preset) {
	o.mutex.Lock()
	o.presets = slices.Clone(presets)
	o.mutex.Unlock()
	o.notify()
}

// Select changes to the preset called name.
func (o *Operator) Select(name string) error {
	for _, preset := range o.Presets() {
		if preset.Kind.Name == name {
			return o.ChangeStimulus(preset)
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}

// ChangeStimulus stops the presenter's stimulus and streams and then
// sends preset with the shared settings. The step display restarts at
// zero.
func (o *Operator) ChangeStimulus(preset Preset) error {
	o.mutex.Lock()
	payload, err := stimulus.BuildPayload(preset.Kind, o.shared, preset.Sequence)
	o.mutex.Unlock()
	if err != nil {
		return err
	}

	// The acknowledgement can arrive before SendCommand returns.
	o.update(func(s *Snapshot) {
		s.Stimulus = preset.Kind.Name
		s.Confirmed = false
		s.Step = 0
		s.Total = preset.Len
	})

	err = o.server.SendCommands(
		control.Command{Verb: control.VerbStopStimulus},
		control.Command{Verb: control.VerbStopStreams},
		control.StimulusChange(preset.Kind.Name, payload),
	)
	if err != nil {
		return fmt.Errorf("changing stimulus to %s: %w", preset.Kind, err)
	}
	o.logger.Info("stimulus selected", "stimulus", preset.Kind.Name, "steps", preset.Len)
	return nil
}

// StartStimulus asks the presenter to start the selected stimulus.
func (o *Operator) StartStimulus() error { return o.send(control.VerbStartStimulus) }

// StopStimulus asks the presenter to stop the stimulus.
func (o *Operator) StopStimulus() error { return o.send(control.VerbStopStimulus) }

// StartStreams asks the presenter to open its sample streams.
func (o *Operator) StartStreams() error { return o.send(control.VerbStartStreams) }

// StopStreams asks the presenter to close its sample streams.
func (o *Operator) StopStreams() error { return o.send(control.VerbStopStreams) }

// Disconnect stops and drops the current presenter.
func (o *Operator) Disconnect() {
	o.server.Disconnect()
}

func (o *Operator) send(verb control.Verb) error {
	if err := o.server.SendCommand(control.Command{Verb: verb}); err != nil {
		return fmt.Errorf("%s: %w", verb, err)
	}
	return nil
}

func (o *Operator) handleEvent(event control.Event) {
	switch event.Type {
	case control.EventConnected:
		o.logger.Info("presenter connected", "remote", event.Remote)
		o.update(func(s *Snapshot) {
			*s = Snapshot{Connected: true, Remote: event.Remote}
		})
	case control.EventLost:
		if event.Err != nil {
			o.logger.Warn("presenter connection lost", "remote", event.Remote, "error", event.Err)
		} else {
			o.logger.Info("presenter disconnected", "remote", event.Remote)
		}
		o.update(func(s *Snapshot) {
			*s = Snapshot{LastError: s.LastError}
		})
	case control.EventLine:
		status, err := control.ParseStatus(event.Line)
		if err != nil {
			o.logger.Warn("ignoring status", "line", event.Line, "error", err)
			return
		}
		o.logger.Debug("status", "line", event.Line)
		o.update(func(s *Snapshot) { apply(s, status) })
	}
}

func apply(s *Snapshot, status control.Status) {
	switch status.Kind {
	case control.StatusStimulusStarted:
		s.StimulusRunning = true
	case control.StatusStimulusStopped:
		s.StimulusRunning = false
	case control.StatusStreamsStarted:
		s.StreamsRunning = true
	case control.StatusStreamsStopped:
		s.StreamsRunning = false
	case control.StatusStep:
		s.Step = status.Step
	case control.StatusStimulusChanged:
		if status.Stimulus != s.Stimulus {
			s.Stimulus = status.Stimulus
			s.Total = 0
		}
		s.Confirmed = true
		s.LastError = ""
	case control.StatusError:
		s.LastError = status.Message
	}
}

func (o *Operator) update(change func(*Snapshot)) {
	o.mutex.Lock()
	change(&o.snapshot)
	o.mutex.Unlock()
	o.notify()
}

func (o *Operator) notify() {
	select {
	case o.updates <- struct{}{}:
	default:
	}
}
