// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

// Package display describes the presentation screen: the canvas the
// stimulus is drawn on, the monitor it sits on, and the physical size
// used to turn millimetres into pixels.
//
// All coordinates are pixels with the origin at the top-left corner.
package display

import "fmt"

// millimetresPerInch is exact by definition.
const millimetresPerInch = 25.4

// Point is a screen position in pixels.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add returns p translated by other.
func (p Point) Add(other Point) Point {
	return Point{X: p.X + other.X, Y: p.Y + other.Y}
}

// Size is a pixel extent.
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Rect is a pixel rectangle in global screen coordinates.
type Rect struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Geometry is the static description of the presentation screen.
//
// The physical size is the canvas' size in millimetres. DPI and the
// mm-to-pixel ratio are derived from it rather than from whatever DPI
// the operating system reports, which is frequently rounded or wrong.
type Geometry struct {
	// Canvas is where the stimulus is drawn, in global coordinates.
	Canvas Rect `json:"canvas" yaml:"canvas"`

	// Resolution is the primary monitor resolution.
	Resolution Size `json:"resolution" yaml:"resolution"`

	// VirtualResolution spans every attached monitor.
	VirtualResolution Size `json:"virtual_resolution" yaml:"virtual_resolution"`

	// WidthMM and HeightMM are the canvas' physical dimensions.
	WidthMM  float64 `json:"width_mm" yaml:"width_mm"`
	HeightMM float64 `json:"height_mm" yaml:"height_mm"`

	// RefreshRate is the monitor refresh rate in Hz.
	RefreshRate float64 `json:"refresh_rate" yaml:"refresh_rate"`

	// Monitors is the number of attached monitors.
	Monitors int `json:"monitors" yaml:"monitors"`
}

// Validate checks that the geometry can be used for unit conversion.
func (g Geometry) Validate() error {
	if g.Canvas.Width <= 0 || g.Canvas.Height <= 0 {
		return fmt.Errorf("canvas size must be positive, got %dx%d", g.Canvas.Width, g.Canvas.Height)
	}
	if g.WidthMM <= 0 || g.HeightMM <= 0 {
		return fmt.Errorf("physical size must be positive, got %gx%g mm", g.WidthMM, g.HeightMM)
	}
	return nil
}

// Center returns the canvas centre in canvas-local coordinates.
func (g Geometry) Center() Point {
	return Point{X: float64(g.Canvas.Width) / 2, Y: float64(g.Canvas.Height) / 2}
}

// MMToPixelsX converts a horizontal length in millimetres to pixels.
func (g Geometry) MMToPixelsX(millimetres float64) float64 {
	return millimetres * float64(g.Canvas.Width) / g.WidthMM
}

// MMToPixelsY converts a vertical length in millimetres to pixels.
func (g Geometry) MMToPixelsY(millimetres float64) float64 {
	return millimetres * float64(g.Canvas.Height) / g.HeightMM
}

// DPIX is the horizontal pixel density derived from the physical size.
func (g Geometry) DPIX() float64 {
	return float64(g.Canvas.Width) * millimetresPerInch / g.WidthMM
}

// DPIY is the vertical pixel density derived from the physical size.
func (g Geometry) DPIY() float64 {
	return float64(g.Canvas.Height) * millimetresPerInch / g.HeightMM
}

// PixelAspect is the ratio of a pixel's physical width to its height.
func (g Geometry) PixelAspect() float64 {
	pixelWidthMM := g.WidthMM / float64(g.Canvas.Width)
	pixelHeightMM := g.HeightMM / float64(g.Canvas.Height)
	return pixelWidthMM / pixelHeightMM
}

// Global maps a canvas-local point to global screen coordinates.
func (g Geometry) Global(local Point) Point {
	return local.Add(Point{X: float64(g.Canvas.X), Y: float64(g.Canvas.Y)})
}
