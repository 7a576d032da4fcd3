// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the pursuit binaries.
//
// The variables are injected at build time with -ldflags -X:
//
//	go build -ldflags "-X github.com/gazelab/pursuit/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// Development builds and test runs see the defaults ("unknown",
// "0.1.0-dev"). Experiment recordings store [Short] in their stream
// metadata so a dataset can be traced back to the presenter build that
// produced it.
package version
