// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Drift Contributors

package main

import (
	"github.com/spf13/cobra"
)

// version is set by the build; "dev" for local builds.
var version = "dev"

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the drift CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drift",
		Short: "Drift - a scriptable terminal chat client",
		Long: `Drift is a terminal chat client extensible through sandboxed
Lua plugins that register custom commands and event callbacks.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewPluginsCmd())

	return cmd
}
