// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"bytes"
	"strings"
	"testing"
)

func TestInfoMarksDirtyBuilds(t *testing.T) {
	// Mutates package variables; not parallel.
	saved := []string{GitCommit, GitDirty, BuildTime, Version}
	t.Cleanup(func() {
		GitCommit, GitDirty, BuildTime, Version = saved[0], saved[1], saved[2], saved[3]
	})

	GitCommit, GitDirty, BuildTime, Version = "a1b2c3d", "false", "2026-10-19T08:00:00Z", "1.4.0"
	if got, want := Info(), "1.4.0 (a1b2c3d, 2026-10-19T08:00:00Z)"; got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
	GitDirty = "true"
	if got, want := Info(), "1.4.0 (a1b2c3d-dirty, 2026-10-19T08:00:00Z)"; got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}

	var output bytes.Buffer
	Print(&output, "pursuit-presenter")
	if !strings.HasPrefix(output.String(), "pursuit-presenter 1.4.0 (a1b2c3d-dirty") {
		t.Errorf("Print wrote %q", output.String())
	}
	if !strings.Contains(output.String(), "Go: ") {
		t.Errorf("Print omitted the toolchain: %q", output.String())
	}
}
