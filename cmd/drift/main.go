// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Drift Contributors

// Command drift is the drift chat client CLI. Only the plugin tooling lives
// here; the interactive client wires the same packages through its own UI.
package main

import (
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
