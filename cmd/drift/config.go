// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Drift Contributors

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/driftchat/drift/internal/xdg"
)

// config holds the plugin tooling configuration. Values come from the
// config file first, then flags.
type config struct {
	PluginsDir  string        `koanf:"plugins-dir"`
	StateFile   string        `koanf:"state-file"`
	LogFormat   string        `koanf:"log-format"`
	CallTimeout time.Duration `koanf:"call-timeout"`
}

// defaultConfig returns the XDG-based defaults.
func defaultConfig() config {
	return config{
		PluginsDir:  filepath.Join(xdg.ConfigDir(), "plugins"),
		StateFile:   filepath.Join(xdg.StateDir(), "plugins.yaml"),
		LogFormat:   "json",
		CallTimeout: 5 * time.Second,
	}
}

// Validate checks that the configuration is valid.
func (cfg *config) Validate() error {
	if cfg.PluginsDir == "" {
		return fmt.Errorf("plugins-dir is required")
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return fmt.Errorf("log-format must be 'json' or 'text', got %q", cfg.LogFormat)
	}
	if cfg.CallTimeout <= 0 {
		return fmt.Errorf("call-timeout must be positive")
	}
	return nil
}

// loadConfig merges defaults, the optional config file, and flags.
func loadConfig(path string, flags *pflag.FlagSet) (*config, error) {
	cfg := defaultConfig()

	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("load config file: %w", err)
			}
		}
	}
	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
