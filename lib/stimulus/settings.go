// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package stimulus

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/gazelab/pursuit/lib/trajectory"
)

// ErrMissingField is returned by ParseSettings when a key the kind
// requires is absent.
var ErrMissingField = errors.New("stimulus: missing settings field")

// Settings payload keys.
const (
	KeyTicksPerSecond    = "tps"
	KeyBoundingBoxWidth  = "bounding_box_width"
	KeyBoundingBoxHeight = "bounding_box_height"
	KeyStartCountdown    = "start_countdown"

	KeyGridWidth  = "grid_width"
	KeyGridHeight = "grid_height"
	KeyPositions  = "positions"

	KeyPreMoveSeconds    = "pre_move_seconds"
	KeyPreMoveCountdown  = "pre_move_countdown"
	KeyHintPastSeconds   = "hint_past_seconds"
	KeyHintFutureSeconds = "hint_future_seconds"
	KeyCurves            = "curves"
)

// Settings is a parsed and validated stimulus payload. Lengths are in
// millimetres and durations in seconds, as on the wire.
type Settings struct {
	Kind Kind

	TicksPerSecond    float64
	BoundingBoxWidth  float64
	BoundingBoxHeight float64
	StartCountdown    float64

	// Saccade only.
	GridWidth  float64
	GridHeight float64
	Waypoints  []trajectory.Waypoint

	// Smooth pursuit only.
	PreMoveSeconds    float64
	PreMoveCountdown  float64
	HintPastSeconds   float64
	HintFutureSeconds float64
	Curves            []trajectory.CurveSegment

	// pairs is every key of the payload, including ones this kind
	// ignores, in key order.
	pairs []Pair
}

// Pair is one settings entry in text form.
type Pair struct {
	Key   string
	Value string
}

// ParseSettings decodes and validates a settings payload for kind.
func ParseSettings(kind Kind, payload []byte) (Settings, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return Settings{}, fmt.Errorf("parsing %s settings: %w", kind, err)
	}
	if fields == nil {
		return Settings{}, fmt.Errorf("parsing %s settings: payload is not an object", kind)
	}

	decoder := fieldDecoder{fields: fields}
	settings := Settings{
		Kind:              kind,
		TicksPerSecond:    decoder.number(KeyTicksPerSecond),
		BoundingBoxWidth:  decoder.number(KeyBoundingBoxWidth),
		BoundingBoxHeight: decoder.number(KeyBoundingBoxHeight),
		StartCountdown:    decoder.number(KeyStartCountdown),
	}

	switch kind.Variant {
	case trajectory.VariantSaccade:
		settings.GridWidth = decoder.number(KeyGridWidth)
		settings.GridHeight = decoder.number(KeyGridHeight)
		if encoded, ok := decoder.text(KeyPositions); ok {
			waypoints, err := ParseWaypoints(encoded)
			if err != nil {
				decoder.fail(err)
			}
			settings.Waypoints = waypoints
		}
	case trajectory.VariantSmoothPursuit:
		settings.PreMoveSeconds = decoder.number(KeyPreMoveSeconds)
		settings.PreMoveCountdown = decoder.number(KeyPreMoveCountdown)
		settings.HintPastSeconds = decoder.number(KeyHintPastSeconds)
		settings.HintFutureSeconds = decoder.number(KeyHintFutureSeconds)
		if encoded, ok := decoder.text(KeyCurves); ok {
			curves, err := ParseCurves(encoded)
			if err != nil {
				decoder.fail(err)
			}
			settings.Curves = curves
		}
	default:
		return Settings{}, fmt.Errorf("parsing settings: %w: %s", ErrUnknownKind, kind.Variant)
	}
	if decoder.err != nil {
		return Settings{}, fmt.Errorf("parsing %s settings: %w", kind, decoder.err)
	}

	settings.pairs = textPairs(fields)
	if err := settings.Validate(); err != nil {
		return Settings{}, fmt.Errorf("parsing %s settings: %w", kind, err)
	}
	return settings, nil
}

// Validate checks value ranges. ParseSettings calls it; callers that
// build Settings by hand should too.
func (s Settings) Validate() error {
	if s.TicksPerSecond <= 0 {
		return fmt.Errorf("%s must be positive, got %g", KeyTicksPerSecond, s.TicksPerSecond)
	}
	if s.BoundingBoxWidth <= 0 || s.BoundingBoxHeight <= 0 {
		return fmt.Errorf("bounding box must be positive, got %gx%g mm", s.BoundingBoxWidth, s.BoundingBoxHeight)
	}
	if s.StartCountdown < 0 {
		return fmt.Errorf("%s must not be negative, got %g", KeyStartCountdown, s.StartCountdown)
	}

	switch s.Kind.Variant {
	case trajectory.VariantSaccade:
		if s.GridWidth <= 0 || s.GridHeight <= 0 {
			return fmt.Errorf("grid must be positive, got %gx%g", s.GridWidth, s.GridHeight)
		}
		if len(s.Waypoints) == 0 {
			return fmt.Errorf("%s is empty", KeyPositions)
		}
		for i, waypoint := range s.Waypoints {
			if waypoint.Hold < 0 {
				return fmt.Errorf("position %d: hold must not be negative, got %v", i, waypoint.Hold)
			}
		}
	case trajectory.VariantSmoothPursuit:
		windows := []struct {
			key   string
			value float64
		}{
			{KeyPreMoveSeconds, s.PreMoveSeconds},
			{KeyPreMoveCountdown, s.PreMoveCountdown},
			{KeyHintPastSeconds, s.HintPastSeconds},
			{KeyHintFutureSeconds, s.HintFutureSeconds},
		}
		for _, window := range windows {
			if window.value < 0 {
				return fmt.Errorf("%s must not be negative, got %g", window.key, window.value)
			}
		}
		if len(s.Curves) == 0 {
			return fmt.Errorf("%s is empty", KeyCurves)
		}
		for i, curve := range s.Curves {
			if curve.Duration <= 0 {
				return fmt.Errorf("curve %d: T must be positive, got %v", i, curve.Duration)
			}
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKind, s.Kind.Variant)
	}
	return nil
}

// Pairs returns every payload entry as text, sorted by key, for stream
// metadata. String values are unquoted; numbers keep their JSON
// spelling.
func (s Settings) Pairs() []Pair {
	return slices.Clone(s.pairs)
}

// digestKey domain-separates settings digests from any other BLAKE3
// use of the same bytes.
var digestKey = [32]byte{
	'p', 'u', 'r', 's', 'u', 'i', 't', '.', 's', 't', 'i', 'm', 'u', 'l', 'u', 's',
	'.', 's', 'e', 't', 't', 'i', 'n', 'g', 's', 0, 0, 0, 0, 0, 0, 0,
}

// Digest is a hex BLAKE3 keyed hash over the kind and the sorted
// payload pairs. Two payloads with the same entries in a different key
// order have the same digest.
func (s Settings) Digest() string {
	hasher, err := blake3.NewKeyed(digestKey[:])
	if err != nil {
		panic("stimulus: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	var buffer bytes.Buffer
	buffer.WriteString(s.Kind.Name)
	buffer.WriteByte('\n')
	for _, pair := range s.pairs {
		buffer.WriteString(strconv.Quote(pair.Key))
		buffer.WriteByte('=')
		buffer.WriteString(strconv.Quote(pair.Value))
		buffer.WriteByte('\n')
	}
	hasher.Write(buffer.Bytes())
	return hex.EncodeToString(hasher.Sum(nil))
}

// BuildPayload is the operator side of ParseSettings: the shared
// settings plus the kind's encoded sequence, as one JSON object.
func BuildPayload(kind Kind, shared map[string]any, sequence string) ([]byte, error) {
	fields := make(map[string]any, len(shared)+1)
	for key, value := range shared {
		fields[key] = value
	}
	fields[kind.SequenceKey()] = sequence
	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding %s settings: %w", kind, err)
	}
	return payload, nil
}

// fieldDecoder reads typed fields out of a raw JSON object and keeps
// the first error.
type fieldDecoder struct {
	fields map[string]json.RawMessage
	err    error
}

func (d *fieldDecoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *fieldDecoder) number(key string) float64 {
	raw, ok := d.fields[key]
	if !ok {
		d.fail(fmt.Errorf("%w: %s", ErrMissingField, key))
		return 0
	}
	var value float64
	if err := json.Unmarshal(raw, &value); err != nil {
		d.fail(fmt.Errorf("%s: expected a number, got %s", key, raw))
		return 0
	}
	return value
}

func (d *fieldDecoder) text(key string) (string, bool) {
	raw, ok := d.fields[key]
	if !ok {
		d.fail(fmt.Errorf("%w: %s", ErrMissingField, key))
		return "", false
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		d.fail(fmt.Errorf("%s: expected a string, got %s", key, raw))
		return "", false
	}
	return value, true
}

func textPairs(fields map[string]json.RawMessage) []Pair {
	pairs := make([]Pair, 0, len(fields))
	for key, raw := range fields {
		value := string(raw)
		var text string
		if json.Unmarshal(raw, &text) == nil {
			value = text
		} else {
			var compact bytes.Buffer
			if json.Compact(&compact, raw) == nil {
				value = compact.String()
			}
		}
		pairs = append(pairs, Pair{Key: key, Value: value})
	}
	slices.SortFunc(pairs, func(a, b Pair) int { return strings.Compare(a.Key, b.Key) })
	return pairs
}
