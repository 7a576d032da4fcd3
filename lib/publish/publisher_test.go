// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package publish

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gazelab/pursuit/lib/clock"
	"github.com/gazelab/pursuit/lib/display"
	"github.com/gazelab/pursuit/lib/samplebus"
	"github.com/gazelab/pursuit/lib/stimulus"
	"github.com/gazelab/pursuit/lib/trajectory"
	"github.com/gazelab/pursuit/lib/version"
)

// recordingBus keeps every outlet it opens.
type recordingBus struct {
	outlets []*recordingOutlet
}

func (b *recordingBus) Open(_ context.Context, info samplebus.StreamInfo) samplebus.Outlet {
	outlet := &recordingOutlet{info: info}
	b.outlets = append(b.outlets, outlet)
	return outlet
}

type recordingOutlet struct {
	info    samplebus.StreamInfo
	samples []samplebus.Sample
	closed  bool
}

func (o *recordingOutlet) Push(sample samplebus.Sample) {
	if !o.closed {
		o.samples = append(o.samples, sample)
	}
}
func (o *recordingOutlet) Dropped() uint64 { return 0 }
func (o *recordingOutlet) Close()          { o.closed = true }

type recordingSink struct {
	states []trajectory.State
}

func (s *recordingSink) Mark(state trajectory.State) { s.states = append(s.states, state) }

var testGeometry = display.Geometry{
	Canvas:            display.Rect{X: 1920, Y: 0, Width: 1920, Height: 1080},
	Resolution:        display.Size{Width: 1920, Height: 1080},
	VirtualResolution: display.Size{Width: 3840, Height: 1080},
	WidthMM:           480,
	HeightMM:          270,
	RefreshRate:       60,
	Monitors:          2,
}

func testSettings(t *testing.T) stimulus.Settings {
	t.Helper()
	kind, err := stimulus.ParseKind("level-1-saccades")
	if err != nil {
		t.Fatal(err)
	}
	settings, err := stimulus.ParseSettings(kind, []byte(`{
		"tps": 120, "bounding_box_width": 300, "bounding_box_height": 200,
		"start_countdown": 3, "grid_width": 8, "grid_height": 4,
		"positions": "4,3,1;0,0,2.5"}`))
	if err != nil {
		t.Fatal(err)
	}
	return settings
}

func newTestPublisher() (*Publisher, *recordingBus, *recordingSink, *clock.FakeClock) {
	bus := &recordingBus{}
	sink := &recordingSink{}
	clk := clock.Fake(time.Unix(1700000000, 0))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(bus, clk, logger, sink), bus, sink, clk
}

func lookup(t *testing.T, info samplebus.StreamInfo, key string) string {
	t.Helper()
	value, ok := info.Lookup(key)
	if !ok {
		t.Fatalf("%s: metadata %q missing", info.Name, key)
	}
	return value
}

func TestOpenDescribesStreams(t *testing.T) {
	t.Parallel()
	publisher, bus, _, _ := newTestPublisher()
	settings := testSettings(t)
	publisher.Open(context.Background(), settings, testGeometry)

	if len(bus.outlets) != 2 {
		t.Fatalf("opened %d outlets, want 2", len(bus.outlets))
	}
	positions, markers := bus.outlets[0].info, bus.outlets[1].info

	if positions.Name != "level-1-saccades-stimulus" || positions.ChannelCount != 2 || positions.Format != samplebus.FormatFloat64 {
		t.Errorf("position stream = %+v", positions)
	}
	if markers.Name != "level-1-saccades-markers" || markers.ChannelCount != 1 || markers.Format != samplebus.FormatString {
		t.Errorf("marker stream = %+v", markers)
	}
	if !strings.HasPrefix(positions.SourceID, "level-1-saccades-stimulus-") || !strings.HasPrefix(markers.SourceID, "level-1-saccades-markers-") {
		t.Errorf("source ids = %q, %q", positions.SourceID, markers.SourceID)
	}
	// Both streams of one opening share the same suffix.
	if strings.TrimPrefix(positions.SourceID, "level-1-saccades-stimulus-") != strings.TrimPrefix(markers.SourceID, "level-1-saccades-markers-") {
		t.Errorf("source id suffixes differ: %q, %q", positions.SourceID, markers.SourceID)
	}

	checks := map[string]string{
		"channels.0.label":                        "x",
		"channels.1.unit":                         "pixels",
		"display.monitors":                        "2",
		"display.resolution_primary.X":            "1920",
		"display.resolution_primary.x_dpi":        "101.6",
		"display.resolution_primary.pixel_aspect": "1",
		"display.resolution_virtual.X":            "3840",
		"display.refresh_rate":                    "60",
		"display.origin":                          "top-left",
		"display.canvas.x":                        "1920",
		"experiment.settings.tps":                 "120",
		"experiment.settings.positions":           "4,3,1;0,0,2.5",
	}
	for key, want := range checks {
		if got := lookup(t, positions, key); got != want {
			t.Errorf("position metadata %s = %q, want %q", key, got, want)
		}
	}
	if got := lookup(t, markers, "channels.0.label"); got != "state" {
		t.Errorf("marker channel label = %q", got)
	}
	for _, key := range []string{"display.monitors", "display.resolution_primary.x_dpi", "display.canvas.x", "display.origin"} {
		if got, want := lookup(t, markers, key), lookup(t, positions, key); got != want {
			t.Errorf("marker metadata %s = %q, position stream has %q", key, got, want)
		}
	}
	if lookup(t, markers, KeySettingsDigest) != settings.Digest() || lookup(t, positions, KeySettingsDigest) != settings.Digest() {
		t.Error("settings digest missing or wrong")
	}
	if lookup(t, markers, KeyVersion) != version.Short() {
		t.Error("presenter version missing from marker metadata")
	}
}

func TestPushesAreGlobalAndForwarded(t *testing.T) {
	t.Parallel()
	publisher, bus, sink, clk := newTestPublisher()

	// Nothing happens before Open.
	publisher.PushPoint(display.Point{X: 1, Y: 1})
	publisher.PushState(trajectory.StateMoving)
	if len(sink.states) != 0 {
		t.Fatalf("sink saw %v before Open", sink.states)
	}

	publisher.Open(context.Background(), testSettings(t), testGeometry)
	clk.Advance(10 * time.Millisecond)
	publisher.PushUpdate(trajectory.Update{
		Points: []display.Point{{X: 960, Y: 540}},
		States: []trajectory.State{trajectory.StateStarting},
		Steps:  []int{0},
	})

	positions, markers := bus.outlets[0], bus.outlets[1]
	if len(positions.samples) != 1 || !slices.Equal(positions.samples[0].Values, []float64{2880, 540}) {
		t.Errorf("position samples = %+v, want one at (2880, 540)", positions.samples)
	}
	if positions.samples[0].Timestamp != clk.Now().UnixNano() {
		t.Errorf("timestamp = %d, want %d", positions.samples[0].Timestamp, clk.Now().UnixNano())
	}
	if len(markers.samples) != 1 || !slices.Equal(markers.samples[0].Strings, []string{"starting"}) {
		t.Errorf("marker samples = %+v", markers.samples)
	}
	if !slices.Equal(sink.states, []trajectory.State{trajectory.StateStarting}) {
		t.Errorf("sink states = %v", sink.states)
	}
}

func TestReopenClosesPreviousStreams(t *testing.T) {
	t.Parallel()
	publisher, bus, _, _ := newTestPublisher()
	publisher.Open(context.Background(), testSettings(t), testGeometry)
	publisher.Open(context.Background(), testSettings(t), testGeometry)

	if len(bus.outlets) != 4 {
		t.Fatalf("opened %d outlets, want 4", len(bus.outlets))
	}
	if !bus.outlets[0].closed || !bus.outlets[1].closed {
		t.Error("first pair still open after reopening")
	}
	if bus.outlets[2].closed || bus.outlets[3].closed {
		t.Error("second pair closed")
	}

	publisher.Close()
	if publisher.Active() || publisher.Kind() != "" {
		t.Error("publisher still active after Close")
	}
	if !bus.outlets[2].closed || !bus.outlets[3].closed {
		t.Error("second pair still open after Close")
	}
	publisher.PushPoint(display.Point{})
	if len(bus.outlets[2].samples) != 0 {
		t.Error("push after Close reached an outlet")
	}
}
