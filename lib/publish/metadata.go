// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package publish

import (
	"strconv"

	"github.com/gazelab/pursuit/lib/display"
	"github.com/gazelab/pursuit/lib/samplebus"
	"github.com/gazelab/pursuit/lib/stimulus"
	"github.com/gazelab/pursuit/lib/version"
)

// Metadata keys shared by both streams.
const (
	KeySettingsPrefix = "experiment.settings."
	KeySettingsDigest = "experiment.settings_digest"
	KeyVersion        = "experiment.presenter_version"
)

// metadataBuilder accumulates entries in insertion order.
type metadataBuilder struct {
	entries []samplebus.Entry
}

func (b *metadataBuilder) add(key, value string) {
	b.entries = append(b.entries, samplebus.Entry{Key: key, Value: value})
}

func (b *metadataBuilder) addInt(key string, value int) {
	b.add(key, strconv.Itoa(value))
}

func (b *metadataBuilder) addFloat(key string, value float64) {
	b.add(key, strconv.FormatFloat(value, 'g', -1, 64))
}

// positionChannels are the labels of the two position channels.
var positionChannels = []struct {
	label string
	kind  string
}{
	{"x", "ScreenX"},
	{"y", "ScreenY"},
}

// PositionMetadata describes the position stream: its channels, the
// display it was recorded on, and the settings.
func PositionMetadata(settings stimulus.Settings, geometry display.Geometry) []samplebus.Entry {
	var b metadataBuilder
	for i, channel := range positionChannels {
		prefix := "channels." + strconv.Itoa(i) + "."
		b.add(prefix+"label", channel.label)
		b.add(prefix+"eye", "both")
		b.add(prefix+"type", channel.kind)
		b.add(prefix+"unit", "pixels")
		b.add(prefix+"coordinate_system", "image-space")
	}

	addDisplay(&b, geometry)
	addSettings(&b, settings)
	return b.entries
}

// MarkerMetadata describes the marker stream. It carries the same
// display and settings entries as the position stream, so either
// stream alone describes the session.
func MarkerMetadata(settings stimulus.Settings, geometry display.Geometry) []samplebus.Entry {
	var b metadataBuilder
	b.add("channels.0.label", "state")
	addDisplay(&b, geometry)
	addSettings(&b, settings)
	return b.entries
}

func addDisplay(b *metadataBuilder, geometry display.Geometry) {
	b.addInt("display.monitors", geometry.Monitors)
	b.addInt("display.resolution_primary.X", geometry.Resolution.Width)
	b.addInt("display.resolution_primary.Y", geometry.Resolution.Height)
	b.addFloat("display.resolution_primary.pixel_aspect", geometry.PixelAspect())
	b.addFloat("display.resolution_primary.x_dpi", geometry.DPIX())
	b.addFloat("display.resolution_primary.y_dpi", geometry.DPIY())
	b.addInt("display.resolution_virtual.X", geometry.VirtualResolution.Width)
	b.addInt("display.resolution_virtual.Y", geometry.VirtualResolution.Height)
	b.addFloat("display.refresh_rate", geometry.RefreshRate)
	b.add("display.origin", "top-left")
	b.addInt("display.canvas.x", geometry.Canvas.X)
	b.addInt("display.canvas.y", geometry.Canvas.Y)
	b.addInt("display.canvas.width", geometry.Canvas.Width)
	b.addInt("display.canvas.height", geometry.Canvas.Height)
}

func addSettings(b *metadataBuilder, settings stimulus.Settings) {
	for _, pair := range settings.Pairs() {
		b.add(KeySettingsPrefix+pair.Key, pair.Value)
	}
	b.add(KeySettingsDigest, settings.Digest())
	b.add(KeyVersion, version.Short())
}
