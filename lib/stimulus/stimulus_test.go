// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package stimulus

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gazelab/pursuit/lib/display"
	"github.com/gazelab/pursuit/lib/trajectory"
)

const saccadePayload = `{
	"tps": 120,
	"bounding_box_width": 300,
	"bounding_box_height": 200,
	"start_countdown": 3,
	"grid_width": 8,
	"grid_height": 4,
	"pre_move_seconds": 1,
	"positions": "4,3,1;0,0,2.5;"
}`

const smoothPayload = `{
	"tps": 60,
	"bounding_box_width": 300,
	"bounding_box_height": 200,
	"start_countdown": 2,
	"pre_move_seconds": 1,
	"pre_move_countdown": 2,
	"hint_past_seconds": 0.5,
	"hint_future_seconds": 1.5,
	"curves": "1,2,3,4,0.5,-0.5,10"
}`

func mustKind(t *testing.T, name string) Kind {
	t.Helper()
	kind, err := ParseKind(name)
	if err != nil {
		t.Fatalf("ParseKind(%q): %v", name, err)
	}
	return kind
}

func TestParseKind(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		variant trajectory.Variant
		wantErr bool
	}{
		{"level-1-saccades", trajectory.VariantSaccade, false},
		{"level-2-saccades", trajectory.VariantSaccade, false},
		{"level-1-smooth", trajectory.VariantSmoothPursuit, false},
		{"calibration-smooth", trajectory.VariantSmoothPursuit, false},
		{"-smooth", 0, true},
		{"-saccades", 0, true},
		{"level-1-fixation", 0, true},
		{"", 0, true},
		{"bad:name-smooth", 0, true},
	}
	for _, test := range tests {
		kind, err := ParseKind(test.name)
		if test.wantErr {
			if !errors.Is(err, ErrUnknownKind) {
				t.Errorf("ParseKind(%q) error = %v, want ErrUnknownKind", test.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseKind(%q): %v", test.name, err)
			continue
		}
		if kind.Variant != test.variant || kind.Name != test.name {
			t.Errorf("ParseKind(%q) = %+v", test.name, kind)
		}
	}
}

func TestParseSettingsSaccade(t *testing.T) {
	t.Parallel()
	settings, err := ParseSettings(mustKind(t, "level-1-saccades"), []byte(saccadePayload))
	if err != nil {
		t.Fatalf("ParseSettings: %v", err)
	}
	if settings.TicksPerSecond != 120 || settings.GridWidth != 8 || settings.GridHeight != 4 {
		t.Errorf("settings = %+v", settings)
	}
	want := []trajectory.Waypoint{
		{X: 4, Y: 3, Hold: time.Second},
		{X: 0, Y: 0, Hold: 2500 * time.Millisecond},
	}
	if !slices.Equal(settings.Waypoints, want) {
		t.Errorf("waypoints = %+v, want %+v", settings.Waypoints, want)
	}

	// Keys the saccade variant ignores are still recorded for metadata.
	pairs := settings.Pairs()
	index := slices.IndexFunc(pairs, func(p Pair) bool { return p.Key == KeyPreMoveSeconds })
	if index < 0 || pairs[index].Value != "1" {
		t.Errorf("pairs = %v, want pre_move_seconds=1", pairs)
	}
	if !slices.IsSortedFunc(pairs, func(a, b Pair) int { return strings.Compare(a.Key, b.Key) }) {
		t.Errorf("pairs not sorted: %v", pairs)
	}
	index = slices.IndexFunc(pairs, func(p Pair) bool { return p.Key == KeyPositions })
	if index < 0 || pairs[index].Value != "4,3,1;0,0,2.5;" {
		t.Errorf("positions pair = %v, want the unquoted string", pairs)
	}
}

func TestParseSettingsSmooth(t *testing.T) {
	t.Parallel()
	settings, err := ParseSettings(mustKind(t, "level-1-smooth"), []byte(smoothPayload))
	if err != nil {
		t.Fatalf("ParseSettings: %v", err)
	}
	want := []trajectory.CurveSegment{{A: 1, B: 2, C: 3, D: 4, E: 0.5, F: -0.5, Duration: 10 * time.Second}}
	if !slices.Equal(settings.Curves, want) {
		t.Errorf("curves = %+v, want %+v", settings.Curves, want)
	}
	if settings.HintPastSeconds != 0.5 || settings.HintFutureSeconds != 1.5 {
		t.Errorf("hint window = %v, %v", settings.HintPastSeconds, settings.HintFutureSeconds)
	}
}

func TestParseSettingsRejects(t *testing.T) {
	t.Parallel()
	saccades := mustKind(t, "level-1-saccades")
	smooth := mustKind(t, "level-1-smooth")

	tests := []struct {
		name    string
		kind    Kind
		payload string
		missing bool
	}{
		{"invalid json", saccades, `{"tps":`, false},
		{"not an object", saccades, `[1, 2]`, false},
		{"null", saccades, `null`, false},
		{"missing tps", saccades, strings.Replace(saccadePayload, `"tps": 120,`, "", 1), true},
		{"missing positions", saccades, strings.Replace(saccadePayload, `"positions"`, `"other"`, 1), true},
		{"missing curves", smooth, saccadePayload, true},
		{"string number", saccades, strings.Replace(saccadePayload, `120`, `"120"`, 1), false},
		{"zero tps", saccades, strings.Replace(saccadePayload, `120`, `0`, 1), false},
		{"zero grid", saccades, strings.Replace(saccadePayload, `"grid_width": 8`, `"grid_width": 0`, 1), false},
		{"short tuple", saccades, strings.Replace(saccadePayload, `0,0,2.5`, `0,0`, 1), false},
		{"bad number", saccades, strings.Replace(saccadePayload, `0,0,2.5`, `0,x,2.5`, 1), false},
		{"negative hold", saccades, strings.Replace(saccadePayload, `0,0,2.5`, `0,0,-1`, 1), false},
		{"empty sequence", saccades, strings.Replace(saccadePayload, `4,3,1;0,0,2.5;`, ``, 1), false},
		{"zero T", smooth, strings.Replace(smoothPayload, `-0.5,10`, `-0.5,0`, 1), false},
	}
	for _, test := range tests {
		_, err := ParseSettings(test.kind, []byte(test.payload))
		if err == nil {
			t.Errorf("%s: ParseSettings accepted the payload", test.name)
			continue
		}
		if test.missing && !errors.Is(err, ErrMissingField) {
			t.Errorf("%s: error = %v, want ErrMissingField", test.name, err)
		}
	}
}

func TestDigestIgnoresKeyOrder(t *testing.T) {
	t.Parallel()
	kind := mustKind(t, "level-1-saccades")
	first, err := ParseSettings(kind, []byte(saccadePayload))
	if err != nil {
		t.Fatal(err)
	}
	reordered := `{"positions": "4,3,1;0,0,2.5;", "grid_height": 4, "grid_width": 8,
		"start_countdown": 3, "bounding_box_height": 200, "bounding_box_width": 300,
		"pre_move_seconds": 1, "tps": 120}`
	second, err := ParseSettings(kind, []byte(reordered))
	if err != nil {
		t.Fatal(err)
	}
	if first.Digest() != second.Digest() {
		t.Errorf("digest depends on key order: %s != %s", first.Digest(), second.Digest())
	}
	if len(first.Digest()) != 64 {
		t.Errorf("digest %q is not 32 hex bytes", first.Digest())
	}

	changed, err := ParseSettings(kind, []byte(strings.Replace(saccadePayload, `120`, `60`, 1)))
	if err != nil {
		t.Fatal(err)
	}
	if changed.Digest() == first.Digest() {
		t.Error("digest did not change with the settings")
	}
}

func TestSequenceEncoding(t *testing.T) {
	t.Parallel()
	waypoints := []trajectory.Waypoint{{X: 1.5, Y: -2, Hold: 750 * time.Millisecond}, {X: 0, Y: 0, Hold: 0}}
	encoded := EncodeWaypoints(waypoints)
	if encoded != "1.5,-2,0.75;0,0,0" {
		t.Errorf("EncodeWaypoints = %q", encoded)
	}
	decoded, err := ParseWaypoints(encoded)
	if err != nil || !slices.Equal(decoded, waypoints) {
		t.Errorf("ParseWaypoints(%q) = %v, %v", encoded, decoded, err)
	}

	curves := []trajectory.CurveSegment{{A: 1, B: 2, C: 3, D: 4, E: 5, F: 6, Duration: 7 * time.Second}}
	if got := EncodeCurves(curves); got != "1,2,3,4,5,6,7" {
		t.Errorf("EncodeCurves = %q", got)
	}
}

func TestLoadCSV(t *testing.T) {
	t.Parallel()
	positions := "dt,x,y\n1,4,3\n2.5, 0, 0\n"
	waypoints, err := LoadWaypointsCSV(strings.NewReader(positions))
	if err != nil {
		t.Fatalf("LoadWaypointsCSV: %v", err)
	}
	want := []trajectory.Waypoint{{X: 4, Y: 3, Hold: time.Second}, {X: 0, Y: 0, Hold: 2500 * time.Millisecond}}
	if !slices.Equal(waypoints, want) {
		t.Errorf("waypoints = %v, want %v", waypoints, want)
	}

	curvesFile := "T,a,b,c,d,e,f\n10,1,2,3,4,0.5,-0.5\n"
	curves, err := LoadCurvesCSV(strings.NewReader(curvesFile))
	if err != nil {
		t.Fatalf("LoadCurvesCSV: %v", err)
	}
	if len(curves) != 1 || curves[0].Duration != 10*time.Second || curves[0].F != -0.5 {
		t.Errorf("curves = %+v", curves)
	}

	if _, err := LoadWaypointsCSV(strings.NewReader("")); err == nil {
		t.Error("accepted a file without a header")
	}
	if _, err := LoadWaypointsCSV(strings.NewReader("dt,x,y\n1,2\n")); err == nil {
		t.Error("accepted a short row")
	}
	if _, err := LoadCurvesCSV(strings.NewReader("T,a,b,c,d,e,f\n1,2,3,4,5,6,x\n")); err == nil {
		t.Error("accepted a non-numeric value")
	}
}

func TestNewMachine(t *testing.T) {
	t.Parallel()
	geometry := display.Geometry{
		Canvas:   display.Rect{Width: 1200, Height: 800},
		WidthMM:  600,
		HeightMM: 400,
	}

	settings, err := ParseSettings(mustKind(t, "level-1-saccades"), []byte(saccadePayload))
	if err != nil {
		t.Fatal(err)
	}
	machine, err := NewMachine(settings, geometry)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	if machine.Variant() != trajectory.VariantSaccade || machine.Len() != 2 {
		t.Errorf("machine = %v with %d waypoints", machine.Variant(), machine.Len())
	}
	if machine.Point() != (display.Point{X: 600, Y: 400}) {
		t.Errorf("initial point = %v, want canvas centre", machine.Point())
	}

	// Waypoint (0,0) on an 8x4 grid is the box corner: 300x200 mm is
	// 600x400 px at 2 px/mm.
	machine.Start()
	if _, err := machine.Tick(3 * time.Second); err != nil {
		t.Fatal(err)
	}
	update, err := machine.Tick(1500 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if want := []display.Point{{X: 300, Y: 200}}; !slices.Equal(update.Points, want) {
		t.Errorf("points = %v, want %v", update.Points, want)
	}

	smooth, err := ParseSettings(mustKind(t, "level-1-smooth"), []byte(smoothPayload))
	if err != nil {
		t.Fatal(err)
	}
	machine, err = NewMachine(smooth, geometry)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	if machine.Variant() != trajectory.VariantSmoothPursuit {
		t.Errorf("variant = %v, want smooth pursuit", machine.Variant())
	}
}

func TestBuildPayloadRoundTrip(t *testing.T) {
	t.Parallel()
	kind := mustKind(t, "level-2-smooth")
	shared := map[string]any{
		"tps": 60, "bounding_box_width": 300, "bounding_box_height": 200, "start_countdown": 2,
		"pre_move_seconds": 1, "pre_move_countdown": 2, "hint_past_seconds": 0.5, "hint_future_seconds": 1.5,
		"grid_width": 8,
	}
	payload, err := BuildPayload(kind, shared, "1,2,3,4,5,6,7")
	if err != nil {
		t.Fatalf("BuildPayload: %v", err)
	}
	settings, err := ParseSettings(kind, payload)
	if err != nil {
		t.Fatalf("ParseSettings(BuildPayload): %v", err)
	}
	if len(settings.Curves) != 1 || settings.Curves[0].Duration != 7*time.Second {
		t.Errorf("curves = %+v", settings.Curves)
	}
}
