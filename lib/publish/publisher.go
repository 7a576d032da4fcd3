// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package publish

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gazelab/pursuit/lib/clock"
	"github.com/gazelab/pursuit/lib/display"
	"github.com/gazelab/pursuit/lib/samplebus"
	"github.com/gazelab/pursuit/lib/stimulus"
	"github.com/gazelab/pursuit/lib/trajectory"
)

// MarkerSink receives every state published on the marker stream.
// Mark must not block.
type MarkerSink interface {
	Mark(state trajectory.State)
}

// Publisher owns the outlets of the active stimulus. It is not safe for
// concurrent use; the session controller calls it from its own
// goroutine.
type Publisher struct {
	bus    samplebus.Bus
	clock  clock.Clock
	logger *slog.Logger
	sinks  []MarkerSink

	geometry  display.Geometry
	kind      string
	positions samplebus.Outlet
	markers   samplebus.Outlet
}

// New returns a Publisher with no streams open.
func New(bus samplebus.Bus, clk clock.Clock, logger *slog.Logger, sinks ...MarkerSink) *Publisher {
	return &Publisher{bus: bus, clock: clk, logger: logger, sinks: sinks}
}

// Open starts the position and marker streams for settings, closing
// any streams already open.
func (p *Publisher) Open(ctx context.Context, settings stimulus.Settings, geometry display.Geometry) {
	p.Close()

	kind := settings.Kind.Name
	id := uuid.NewString()
	p.positions = p.bus.Open(ctx, samplebus.StreamInfo{
		Name:         kind + "-stimulus",
		Type:         "Stimulus",
		ChannelCount: 2,
		Format:       samplebus.FormatFloat64,
		NominalRate:  samplebus.IrregularRate,
		SourceID:     kind + "-stimulus-" + id,
		Metadata:     PositionMetadata(settings, geometry),
	})
	p.markers = p.bus.Open(ctx, samplebus.StreamInfo{
		Name:         kind + "-markers",
		Type:         "Markers",
		ChannelCount: 1,
		Format:       samplebus.FormatString,
		NominalRate:  samplebus.IrregularRate,
		SourceID:     kind + "-markers-" + id,
		Metadata:     MarkerMetadata(settings, geometry),
	})
	p.geometry = geometry
	p.kind = kind
	p.logger.Info("streams opened", "stimulus", kind, "source_id", id)
}

// Close ends both streams. It is a no-op when none are open.
func (p *Publisher) Close() {
	if p.positions == nil {
		return
	}
	dropped := p.positions.Dropped() + p.markers.Dropped()
	p.positions.Close()
	p.markers.Close()
	p.positions = nil
	p.markers = nil
	p.logger.Info("streams closed", "stimulus", p.kind, "dropped", dropped)
	p.kind = ""
}

// Active reports whether streams are open.
func (p *Publisher) Active() bool { return p.positions != nil }

// Kind returns the stimulus the open streams belong to, or "" when
// none are open.
func (p *Publisher) Kind() string { return p.kind }

// PushPoint publishes a canvas-local point in global screen
// coordinates.
func (p *Publisher) PushPoint(point display.Point) {
	if p.positions == nil {
		return
	}
	global := p.geometry.Global(point)
	p.positions.Push(samplebus.NumericSample(p.clock.Now(), global.X, global.Y))
}

// PushState publishes a state change and forwards it to the marker
// sinks.
func (p *Publisher) PushState(state trajectory.State) {
	if p.markers == nil {
		return
	}
	p.markers.Push(samplebus.StringSample(p.clock.Now(), string(state)))
	for _, sink := range p.sinks {
		sink.Mark(state)
	}
}

// PushUpdate publishes every point and state an update assigned, in
// order.
func (p *Publisher) PushUpdate(update trajectory.Update) {
	if p.positions == nil {
		return
	}
	for _, point := range update.Points {
		p.PushPoint(point)
	}
	for _, state := range update.States {
		p.PushState(state)
	}
}
