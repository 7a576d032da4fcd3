// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gazelab/pursuit/lib/clock"
	"github.com/gazelab/pursuit/lib/control"
	"github.com/gazelab/pursuit/lib/display"
	"github.com/gazelab/pursuit/lib/publish"
	"github.com/gazelab/pursuit/lib/stimulus"
	"github.com/gazelab/pursuit/lib/trajectory"
)

var errNoStimulus = errors.New("no stimulus selected")

// StatusSender delivers status lines to the operator. control.Client
// implements it.
type StatusSender interface {
	SendStatus(status control.Status) error
}

// MachineFactory builds the trajectory machine for validated settings.
type MachineFactory func(settings stimulus.Settings, geometry display.Geometry) (trajectory.Machine, error)

// Config holds a Controller's collaborators.
type Config struct {
	Geometry  display.Geometry
	Clock     clock.Clock
	Publisher *publish.Publisher
	Status    StatusSender
	Logger    *slog.Logger

	// NewMachine defaults to stimulus.NewMachine.
	NewMachine MachineFactory
}

// Controller is the presenter's session state. Its methods must be
// called from a single goroutine: the one running Run, or any one
// goroutine while Run is not running.
type Controller struct {
	geometry   display.Geometry
	clock      clock.Clock
	publisher  *publish.Publisher
	status     StatusSender
	logger     *slog.Logger
	newMachine MachineFactory

	settings stimulus.Settings
	machine  trajectory.Machine
	ticker   *clock.Ticker
	lastTick time.Time
}

// New returns a Controller with no stimulus selected.
func New(config Config) *Controller {
	newMachine := config.NewMachine
	if newMachine == nil {
		newMachine = stimulus.NewMachine
	}
	return &Controller{
		geometry:   config.Geometry,
		clock:      config.Clock,
		publisher:  config.Publisher,
		status:     config.Status,
		logger:     config.Logger,
		newMachine: newMachine,
	}
}

// Run processes connection events and ticks until ctx is cancelled or
// events is closed. Either way the session is reset before Run
// returns.
func (c *Controller) Run(ctx context.Context, events <-chan control.Event) error {
	defer c.Reset()
	for {
		var ticks <-chan time.Time
		if c.ticker != nil {
			ticks = c.ticker.C
		}

		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			c.handleEvent(ctx, event)
		case <-ticks:
			c.tick()
		}
	}
}

func (c *Controller) handleEvent(ctx context.Context, event control.Event) {
	switch event.Type {
	case control.EventConnected:
		c.logger.Info("operator connected", "remote", event.Remote)
	case control.EventLost:
		if event.Err != nil {
			c.logger.Warn("operator connection lost", "remote", event.Remote, "error", event.Err)
		} else {
			c.logger.Info("operator disconnected", "remote", event.Remote)
		}
		c.Reset()
	case control.EventLine:
		command, err := control.ParseCommand(event.Line)
		if err != nil {
			c.logger.Warn("ignoring command", "line", event.Line, "error", err)
			c.send(control.ErrorStatus(err))
			return
		}
		c.Handle(ctx, command)
	}
}

// Handle executes one operator command.
func (c *Controller) Handle(ctx context.Context, command control.Command) {
	c.logger.Debug("command", "verb", command.Verb, "stimulus", command.Kind)
	switch command.Verb {
	case control.VerbStartStimulus:
		if c.machine == nil {
			c.send(control.ErrorStatus(fmt.Errorf("start-stimulus: %w", errNoStimulus)))
			return
		}
		c.lastTick = c.clock.Now()
		c.apply(c.machine.Start())
		c.logger.Info("stimulus started", "stimulus", c.settings.Kind.Name)

	case control.VerbStopStimulus:
		if c.machine == nil {
			c.send(control.Status{Kind: control.StatusStimulusStopped})
			return
		}
		c.apply(c.machine.Stop())

	case control.VerbStartStreams:
		if c.machine == nil {
			c.send(control.ErrorStatus(fmt.Errorf("start-streams: %w", errNoStimulus)))
			return
		}
		c.publisher.Open(ctx, c.settings, c.geometry)
		c.send(control.Status{Kind: control.StatusStreamsStarted})

	case control.VerbStopStreams:
		c.publisher.Close()
		c.send(control.Status{Kind: control.StatusStreamsStopped})

	case control.VerbChangeStimulus:
		c.change(command)
	}
}

// change replaces the active machine. A rejected command leaves the
// current machine, run and streams untouched.
func (c *Controller) change(command control.Command) {
	kind, err := stimulus.ParseKind(command.Kind)
	if err != nil {
		c.reject(command, err)
		return
	}
	settings, err := stimulus.ParseSettings(kind, command.Settings)
	if err != nil {
		c.reject(command, err)
		return
	}
	machine, err := c.newMachine(settings, c.geometry)
	if err != nil {
		c.reject(command, err)
		return
	}

	c.dispose()
	c.settings = settings
	c.machine = machine
	c.lastTick = c.clock.Now()
	c.armTicker(clock.Interval(settings.TicksPerSecond))

	c.logger.Info("stimulus changed",
		"stimulus", kind.Name,
		"variant", kind.Variant,
		"steps", machine.Len(),
		"tps", settings.TicksPerSecond,
		"digest", settings.Digest(),
	)
	c.send(control.ChangedStatus(kind.Name))
}

func (c *Controller) reject(command control.Command, err error) {
	c.logger.Warn("stimulus change rejected", "stimulus", command.Kind, "error", err)
	c.send(control.ErrorStatus(err))
}

// Reset stops the run, closes the streams and drops the machine. The
// presenter calls it when the operator goes away.
func (c *Controller) Reset() {
	c.dispose()
	c.settings = stimulus.Settings{}
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
}

// dispose stops a running machine and closes its streams.
func (c *Controller) dispose() {
	if c.machine == nil {
		return
	}
	if c.machine.State() != trajectory.StateStopped {
		c.apply(c.machine.Stop())
	}
	if c.publisher.Active() {
		c.publisher.Close()
		c.send(control.Status{Kind: control.StatusStreamsStopped})
	}
	c.machine = nil
}

// Active returns the current machine, if a stimulus is selected.
func (c *Controller) Active() (trajectory.Machine, bool) {
	return c.machine, c.machine != nil
}

// Settings returns the settings of the selected stimulus.
func (c *Controller) Settings() stimulus.Settings { return c.settings }

func (c *Controller) armTicker(period time.Duration) {
	if c.ticker == nil {
		c.ticker = c.clock.NewTicker(period)
		return
	}
	c.ticker.Reset(period)
	// A tick already buffered was meant for the previous machine.
	select {
	case <-c.ticker.C:
	default:
	}
}

func (c *Controller) tick() {
	if c.machine == nil {
		return
	}
	now := c.clock.Now()
	elapsed := now.Sub(c.lastTick)
	c.lastTick = now
	if elapsed < 0 {
		elapsed = 0
	}

	update, err := c.safeTick(elapsed)
	if err != nil {
		c.logger.Error("tick failed, stopping run",
			"stimulus", c.settings.Kind.Name,
			"step", c.machine.Step(),
			"error", err,
		)
		c.send(control.ErrorStatus(err))
		c.apply(c.machine.Stop())
		return
	}
	c.apply(update)
}

// safeTick turns a panic inside the machine into an error. Machines
// commit state only on success, so the machine is unchanged either way.
func (c *Controller) safeTick(elapsed time.Duration) (update trajectory.Update, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("tick panicked: %v", recovered)
		}
	}()
	return c.machine.Tick(elapsed)
}

// apply fans an update out to the streams and the operator.
func (c *Controller) apply(update trajectory.Update) {
	if update.Empty() {
		return
	}
	c.publisher.PushUpdate(update)
	for _, step := range update.Steps {
		c.send(control.StepStatus(step))
	}
	for _, state := range update.States {
		switch state {
		case trajectory.StateStarting:
			c.send(control.Status{Kind: control.StatusStimulusStarted})
		case trajectory.StateStopped:
			c.send(control.Status{Kind: control.StatusStimulusStopped})
			c.logger.Info("stimulus stopped", "stimulus", c.settings.Kind.Name, "step", c.machine.Step())
		}
	}
}

func (c *Controller) send(status control.Status) {
	if err := c.status.SendStatus(status); err != nil {
		c.logger.Debug("status not sent", "status", status.Kind, "error", err)
	}
}
