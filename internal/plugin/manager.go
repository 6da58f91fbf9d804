// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Drift Contributors

package plugin

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Manager discovers plugins and drives their lifecycle through a Host.
// Enabled/disabled state is read from and persisted to an external
// StateStore; the manager itself owns no script state.
type Manager struct {
	pluginsDir string
	host       Host
	states     StateStore
	discovered map[string]*DiscoveredPlugin
	mu         sync.RWMutex
}

// StateStore persists per-plugin enabled state. Implementations live
// outside this subsystem; FileStateStore is the default adapter.
type StateStore interface {
	// IsEnabled reports whether the plugin should be enabled. Unknown
	// plugins default to enabled.
	IsEnabled(name string) bool

	// SetEnabled records the plugin's enabled state.
	SetEnabled(name string, enabled bool) error
}

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithStateStore sets the external enabled-state store.
func WithStateStore(s StateStore) ManagerOption {
	return func(m *Manager) {
		m.states = s
	}
}

// NewManager creates a plugin manager over the given plugins directory and
// host. Panics if host is nil.
func NewManager(pluginsDir string, host Host, opts ...ManagerOption) *Manager {
	if host == nil {
		panic("plugin.NewManager: host is required")
	}
	m := &Manager{
		pluginsDir: pluginsDir,
		host:       host,
		discovered: make(map[string]*DiscoveredPlugin),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DiscoveredPlugin contains a parsed manifest and its directory.
type DiscoveredPlugin struct {
	Manifest *Manifest
	Dir      string
}

// Discover finds all valid plugins in the plugins directory. A failure for
// one candidate never stops scanning of the others: invalid plugins are
// logged and skipped, one diagnostic per plugin.
func (m *Manager) Discover(_ context.Context) ([]*DiscoveredPlugin, error) {
	entries, err := os.ReadDir(m.pluginsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No plugins directory
		}
		return nil, ErrManifestInvalid("", "failed to read plugins directory", err)
	}

	var plugins []*DiscoveredPlugin
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		pluginDir := filepath.Join(m.pluginsDir, entry.Name())
		manifestPath := filepath.Join(pluginDir, ManifestFile)

		data, err := os.ReadFile(manifestPath) //nolint:gosec // manifestPath is constructed from ReadDir entries
		if err != nil {
			slog.Warn("skipping plugin without manifest",
				"dir", entry.Name(),
				"error", err)
			continue
		}

		manifest, err := ParseManifest(data)
		if err != nil {
			slog.Warn("skipping plugin with invalid manifest",
				"dir", entry.Name(),
				"error", err)
			continue
		}

		plugins = append(plugins, &DiscoveredPlugin{
			Manifest: manifest,
			Dir:      pluginDir,
		})
	}

	m.mu.Lock()
	for _, dp := range plugins {
		m.discovered[dp.Manifest.Name] = dp
	}
	m.mu.Unlock()

	return plugins, nil
}

// LoadAll discovers plugins and creates an instance for every plugin the
// state store marks enabled. Individual load failures are contained per
// plugin: the failed instance is recorded, a diagnostic is logged, and the
// remaining plugins still load.
func (m *Manager) LoadAll(ctx context.Context) error {
	discovered, err := m.Discover(ctx)
	if err != nil {
		return err
	}

	for _, dp := range discovered {
		name := dp.Manifest.Name
		if m.states != nil && !m.states.IsEnabled(name) {
			slog.Info("plugin disabled by settings, skipping",
				"plugin", name)
			continue
		}
		if err := m.host.Create(ctx, dp.Manifest, dp.Dir); err != nil {
			recordLifecycle(lifecycleFailed)
			slog.Error("failed to load plugin",
				"plugin", name,
				"error", err)
			continue
		}
		recordLifecycle(lifecycleLoaded)
		slog.Info("loaded plugin",
			"plugin", name,
			"version", dp.Manifest.Version)
	}

	return nil
}

// Enable routes commands to the plugin again and persists the state. A
// plugin that has no live instance yet (disabled at startup) is created
// first.
func (m *Manager) Enable(ctx context.Context, name string) error {
	if _, ok := m.host.Status(name); !ok {
		m.mu.RLock()
		dp, known := m.discovered[name]
		m.mu.RUnlock()
		if !known {
			return ErrPluginNotFound(name)
		}
		if err := m.host.Create(ctx, dp.Manifest, dp.Dir); err != nil {
			recordLifecycle(lifecycleFailed)
			return err
		}
		recordLifecycle(lifecycleLoaded)
	} else if err := m.host.Enable(ctx, name); err != nil {
		return err
	}

	return m.persist(name, true)
}

// Disable stops routing to the plugin and persists the state. The instance
// is kept so a later Enable is cheap.
func (m *Manager) Disable(ctx context.Context, name string) error {
	if err := m.host.Disable(ctx, name); err != nil {
		return err
	}
	return m.persist(name, false)
}

// Reload destroys the instance and creates a fresh one from re-read
// manifest and files, picking up on-disk edits.
func (m *Manager) Reload(ctx context.Context, name string) error {
	m.mu.RLock()
	dp, known := m.discovered[name]
	m.mu.RUnlock()
	if !known {
		return ErrPluginNotFound(name)
	}

	if _, ok := m.host.Status(name); ok {
		if err := m.host.Destroy(ctx, name); err != nil {
			return err
		}
	}

	data, err := os.ReadFile(filepath.Join(dp.Dir, ManifestFile)) //nolint:gosec // dir recorded at discovery
	if err != nil {
		return ErrManifestInvalid(name, "failed to re-read manifest", err)
	}
	manifest, err := ParseManifest(data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.discovered[name] = &DiscoveredPlugin{Manifest: manifest, Dir: dp.Dir}
	m.mu.Unlock()

	if err := m.host.Create(ctx, manifest, dp.Dir); err != nil {
		recordLifecycle(lifecycleFailed)
		return err
	}
	recordLifecycle(lifecycleReloaded)
	return nil
}

// Destroy tears down the plugin's instance, if any.
func (m *Manager) Destroy(ctx context.Context, name string) error {
	return m.host.Destroy(ctx, name)
}

// Status reports the instance state for a plugin.
func (m *Manager) Status(name string) (Status, bool) {
	return m.host.Status(name)
}

// ListPlugins returns the names of all discovered plugins, sorted.
func (m *Manager) ListPlugins() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.discovered))
	for name := range m.discovered {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close shuts down the host and all instances.
func (m *Manager) Close(ctx context.Context) error {
	return m.host.Close(ctx)
}

func (m *Manager) persist(name string, enabled bool) error {
	if m.states == nil {
		return nil
	}
	if err := m.states.SetEnabled(name, enabled); err != nil {
		slog.Error("failed to persist plugin state",
			"plugin", name,
			"enabled", enabled,
			"error", err)
		return err
	}
	return nil
}
