// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package stimulus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gazelab/pursuit/lib/trajectory"
)

const (
	tupleSeparator = ";"
	fieldSeparator = ","
)

// ParseWaypoints decodes "x,y,hold;x,y,hold;..." with hold in seconds.
// Blank tuples, such as the one after a trailing separator, are
// skipped.
func ParseWaypoints(encoded string) ([]trajectory.Waypoint, error) {
	tuples, err := parseTuples(encoded, 3)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyPositions, err)
	}
	waypoints := make([]trajectory.Waypoint, 0, len(tuples))
	for _, tuple := range tuples {
		waypoints = append(waypoints, trajectory.Waypoint{
			X:    tuple[0],
			Y:    tuple[1],
			Hold: seconds(tuple[2]),
		})
	}
	return waypoints, nil
}

// EncodeWaypoints is the inverse of ParseWaypoints.
func EncodeWaypoints(waypoints []trajectory.Waypoint) string {
	tuples := make([][]float64, 0, len(waypoints))
	for _, waypoint := range waypoints {
		tuples = append(tuples, []float64{waypoint.X, waypoint.Y, waypoint.Hold.Seconds()})
	}
	return formatTuples(tuples)
}

// ParseCurves decodes "a,b,c,d,e,f,T;..." with T in seconds.
func ParseCurves(encoded string) ([]trajectory.CurveSegment, error) {
	tuples, err := parseTuples(encoded, 7)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyCurves, err)
	}
	curves := make([]trajectory.CurveSegment, 0, len(tuples))
	for _, tuple := range tuples {
		curves = append(curves, trajectory.CurveSegment{
			A: tuple[0], B: tuple[1], C: tuple[2], D: tuple[3], E: tuple[4], F: tuple[5],
			Duration: seconds(tuple[6]),
		})
	}
	return curves, nil
}

// EncodeCurves is the inverse of ParseCurves.
func EncodeCurves(curves []trajectory.CurveSegment) string {
	tuples := make([][]float64, 0, len(curves))
	for _, curve := range curves {
		tuples = append(tuples, []float64{curve.A, curve.B, curve.C, curve.D, curve.E, curve.F, curve.Duration.Seconds()})
	}
	return formatTuples(tuples)
}

// LoadWaypointsCSV reads a positions file. The first row is a header;
// every other row is dt,x,y.
func LoadWaypointsCSV(r io.Reader) ([]trajectory.Waypoint, error) {
	rows, err := readCSV(r, 3)
	if err != nil {
		return nil, fmt.Errorf("reading positions: %w", err)
	}
	waypoints := make([]trajectory.Waypoint, 0, len(rows))
	for _, row := range rows {
		waypoints = append(waypoints, trajectory.Waypoint{
			X:    row[1],
			Y:    row[2],
			Hold: seconds(row[0]),
		})
	}
	return waypoints, nil
}

// LoadCurvesCSV reads a curves file. The first row is a header; every
// other row is T,a,b,c,d,e,f.
func LoadCurvesCSV(r io.Reader) ([]trajectory.CurveSegment, error) {
	rows, err := readCSV(r, 7)
	if err != nil {
		return nil, fmt.Errorf("reading curves: %w", err)
	}
	curves := make([]trajectory.CurveSegment, 0, len(rows))
	for _, row := range rows {
		curves = append(curves, trajectory.CurveSegment{
			A: row[1], B: row[2], C: row[3], D: row[4], E: row[5], F: row[6],
			Duration: seconds(row[0]),
		})
	}
	return curves, nil
}

// seconds converts to a Duration rounded to the nearest nanosecond, so
// that sums of holds do not pick up float error.
func seconds(value float64) time.Duration {
	return time.Duration(math.Round(value * float64(time.Second)))
}

func parseTuples(encoded string, width int) ([][]float64, error) {
	var tuples [][]float64
	for i, tuple := range strings.Split(encoded, tupleSeparator) {
		if strings.TrimSpace(tuple) == "" {
			continue
		}
		fields := strings.Split(tuple, fieldSeparator)
		if len(fields) != width {
			return nil, fmt.Errorf("tuple %d: expected %d values, got %d", i, width, len(fields))
		}
		values, err := parseFloats(fields)
		if err != nil {
			return nil, fmt.Errorf("tuple %d: %w", i, err)
		}
		tuples = append(tuples, values)
	}
	return tuples, nil
}

func formatTuples(tuples [][]float64) string {
	var builder strings.Builder
	for i, tuple := range tuples {
		if i > 0 {
			builder.WriteString(tupleSeparator)
		}
		for j, value := range tuple {
			if j > 0 {
				builder.WriteString(fieldSeparator)
			}
			builder.WriteString(strconv.FormatFloat(value, 'g', -1, 64))
		}
	}
	return builder.String()
}

func readCSV(r io.Reader, width int) ([][]float64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = width
	reader.TrimLeadingSpace = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("missing header row")
		}
		return nil, err
	}
	var rows [][]float64
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		values, err := parseFloats(record)
		if err != nil {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, values)
	}
	return rows, nil
}

func parseFloats(fields []string) ([]float64, error) {
	values := make([]float64, len(fields))
	for i, field := range fields {
		value, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		values[i] = value
	}
	return values, nil
}
