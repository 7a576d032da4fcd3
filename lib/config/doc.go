// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the presenter and operator configuration files.
//
// Configuration comes from a single file named by a --config flag or,
// failing that, the PURSUIT_CONFIG environment variable (see [Path]).
// There is no ~/.config discovery and no automatic file search. With
// neither set, the built-in defaults apply and command-line flags
// supply the rest.
//
// Files ending in .yaml or .yml are YAML. Files ending in .json or
// .jsonc are JSON, with // and /* */ comments and trailing commas
// allowed. Unknown keys are an error in both formats.
//
// ${HOME} and ${VAR:-default} patterns are expanded in path fields.
// Relative sequence file paths resolve against the directory of the
// config file.
//
// Key exports:
//
//   - [PresenterConfig] and [LoadPresenter] for pursuit-presenter
//   - [OperatorConfig] and [LoadOperator] for pursuit-operator
package config
