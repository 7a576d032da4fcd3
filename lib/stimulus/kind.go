// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package stimulus

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gazelab/pursuit/lib/trajectory"
)

// ErrUnknownKind is returned by ParseKind for names without a known
// variant suffix.
var ErrUnknownKind = errors.New("stimulus: unknown kind")

const (
	saccadeSuffix = "-saccades"
	smoothSuffix  = "-smooth"
)

// Kind is a resolved stimulus name.
type Kind struct {
	// Name is the full kind as sent on the wire, e.g. "level-1-smooth".
	Name string

	Variant trajectory.Variant
}

// ParseKind resolves a stimulus name. The label before the variant
// suffix must be non-empty, and the name must not contain characters
// that would break the line protocol.
func ParseKind(name string) (Kind, error) {
	if strings.ContainsAny(name, ":\n\r") {
		return Kind{}, fmt.Errorf("%w: %q contains a reserved character", ErrUnknownKind, name)
	}
	switch {
	case len(name) > len(saccadeSuffix) && strings.HasSuffix(name, saccadeSuffix):
		return Kind{Name: name, Variant: trajectory.VariantSaccade}, nil
	case len(name) > len(smoothSuffix) && strings.HasSuffix(name, smoothSuffix):
		return Kind{Name: name, Variant: trajectory.VariantSmoothPursuit}, nil
	default:
		return Kind{}, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
}

// String returns the wire name.
func (k Kind) String() string { return k.Name }

// SequenceKey is the settings key that carries the kind's waypoint or
// curve sequence.
func (k Kind) SequenceKey() string {
	if k.Variant == trajectory.VariantSmoothPursuit {
		return KeyCurves
	}
	return KeyPositions
}
