// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Drift Contributors

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/driftchat/drift/internal/command"
	"github.com/driftchat/drift/internal/logging"
	"github.com/driftchat/drift/internal/observability"
	"github.com/driftchat/drift/internal/plugin"
	"github.com/driftchat/drift/internal/plugin/capability"
	"github.com/driftchat/drift/internal/plugin/hostfunc"
	luahost "github.com/driftchat/drift/internal/plugin/lua"
	"github.com/driftchat/drift/pkg/errutil"
)

// NewPluginsCmd creates the plugins subcommand group.
func NewPluginsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "Inspect and exercise drift plugins",
	}

	cmd.AddCommand(newPluginsListCmd())
	cmd.AddCommand(newPluginsCheckCmd())
	cmd.AddCommand(newPluginsSchemaCmd())
	cmd.AddCommand(newPluginsRunCmd())

	return cmd
}

// addConfigFlags registers the shared plugin tooling flags.
func addConfigFlags(cmd *cobra.Command) {
	defaults := defaultConfig()
	cmd.Flags().String("plugins-dir", defaults.PluginsDir, "plugins directory")
	cmd.Flags().String("state-file", defaults.StateFile, "plugin enabled-state file")
	cmd.Flags().String("log-format", defaults.LogFormat, "log format (json or text)")
	cmd.Flags().Duration("call-timeout", defaults.CallTimeout, "per-call script budget")
}

func newPluginsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered plugins and their state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			logging.SetDefault("drift", version, cfg.LogFormat)

			runtime, err := buildRuntime(cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer runtime.close(cmd.Context())

			discovered, err := runtime.manager.Discover(cmd.Context())
			if err != nil {
				return err
			}
			for _, dp := range discovered {
				state := "enabled"
				if !runtime.states.IsEnabled(dp.Manifest.Name) {
					state = "disabled"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n",
					dp.Manifest.Name, dp.Manifest.Version, state, dp.Manifest.Description)
			}
			return nil
		},
	}
	addConfigFlags(cmd)
	return cmd
}

func newPluginsCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <plugin-dir>",
		Short: "Validate a plugin manifest against the schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifestPath := filepath.Join(args[0], plugin.ManifestFile)
			data, err := os.ReadFile(filepath.Clean(manifestPath))
			if err != nil {
				return fmt.Errorf("read manifest: %w", err)
			}

			if err := plugin.ValidateSchema(data); err != nil {
				return fmt.Errorf("schema: %s", plugin.FormatSchemaError(err))
			}
			manifest, err := plugin.ParseManifest(data)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: OK\n", manifest.Name, manifest.Version)
			return nil
		},
	}
}

func newPluginsSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the plugin manifest JSON Schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := plugin.GenerateSchema()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newPluginsRunCmd() *cobra.Command {
	var (
		channel     string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load enabled plugins and dispatch stdin lines as commands",
		Long: `Load all enabled plugins and read lines from stdin, dispatching
each as a tokenized command invocation. A development harness for plugin
authors; messages are printed to stdout.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			logging.SetDefault("drift", version, cfg.LogFormat)

			runtime, err := buildRuntime(cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer runtime.close(cmd.Context())

			if metricsAddr != "" {
				obs := observability.NewServer(metricsAddr, func() bool { return true })
				if _, err := obs.Start(); err != nil {
					return err
				}
				defer func() {
					if err := obs.Stop(cmd.Context()); err != nil {
						errutil.LogError(slog.Default(), "failed to stop metrics server", err)
					}
				}()
			}

			if err := runtime.manager.LoadAll(cmd.Context()); err != nil {
				return err
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				words := command.SplitLine(scanner.Text())
				if words == nil {
					continue
				}
				if err := runtime.dispatcher.Dispatch(cmd.Context(), words, channel); err != nil {
					errutil.LogError(slog.Default(), "dispatch failed", err)
					fmt.Fprintf(cmd.OutOrStdout(), "[%s] ! %s\n", channel, err.Error())
				}
			}
			return scanner.Err()
		},
	}
	addConfigFlags(cmd)
	cmd.Flags().StringVar(&channel, "channel", "general", "channel name for dispatched commands")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics and health probes on this address")
	return cmd
}

// runtime bundles the wired plugin subsystem for CLI use.
type runtime struct {
	manager    *plugin.Manager
	dispatcher *command.Dispatcher
	states     *plugin.FileStateStore
}

// buildRuntime wires the plugin host the same way the interactive client
// does, with a stdout messenger standing in for the chat connection.
func buildRuntime(cfg *config, out io.Writer) (*runtime, error) {
	registry := command.NewRegistry()
	enforcer := capability.NewEnforcer()
	messenger := &stdoutMessenger{out: out}

	funcs := hostfunc.New(messenger, enforcer)
	host := luahost.NewHost(funcs, registry, enforcer,
		luahost.WithCallTimeout(cfg.CallTimeout))

	states, err := plugin.NewFileStateStore(cfg.StateFile)
	if err != nil {
		return nil, fmt.Errorf("open state file: %w", err)
	}

	manager := plugin.NewManager(cfg.PluginsDir, host, plugin.WithStateStore(states))

	dispatcher, err := command.NewDispatcher(registry, messenger)
	if err != nil {
		return nil, err
	}

	return &runtime{
		manager:    manager,
		dispatcher: dispatcher,
		states:     states,
	}, nil
}

func (r *runtime) close(ctx context.Context) {
	if err := r.manager.Close(ctx); err != nil {
		errutil.LogError(slog.Default(), "failed to close plugin manager", err)
	}
}

// stdoutMessenger prints messages to the writer, standing in for the chat
// connection during development runs.
type stdoutMessenger struct {
	out io.Writer
}

// SendMessage prints a channel message.
func (m *stdoutMessenger) SendMessage(_ context.Context, channel, text string) error {
	_, err := fmt.Fprintf(m.out, "[%s] %s\n", channel, text)
	return err
}

// SystemMessage prints a system notice.
func (m *stdoutMessenger) SystemMessage(_ context.Context, channel, text string) error {
	_, err := fmt.Fprintf(m.out, "[%s] * %s\n", channel, text)
	return err
}
