// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Drift Contributors

package lua

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/driftchat/drift/internal/command"
	plugins "github.com/driftchat/drift/internal/plugin"
	"github.com/driftchat/drift/internal/plugin/capability"
	"github.com/driftchat/drift/internal/plugin/hostfunc"
)

// Compile-time interface check.
var _ plugins.Host = (*Host)(nil)

// DefaultCallTimeout bounds one script call (entry run or handler
// invocation) unless the host configures otherwise.
const DefaultCallTimeout = 5 * time.Second

// Host manages Lua plugin instances: creation, enable/disable, destruction.
// Each instance gets a fresh sandboxed state with the bridge table and a
// resolver bound to its own directory; no state is ever aliased between
// instances.
type Host struct {
	factory     *StateFactory
	funcs       *hostfunc.Functions
	registry    *command.Registry
	enforcer    *capability.Enforcer
	callTimeout time.Duration

	instances map[string]*Instance
	mu        sync.RWMutex
	closed    bool
}

// Option configures the Host.
type Option func(*Host)

// WithCallTimeout sets the per-call wall-clock budget for script execution.
func WithCallTimeout(d time.Duration) Option {
	return func(h *Host) {
		h.callTimeout = d
	}
}

// NewHost creates a Lua plugin host. Panics if any dependency is nil.
func NewHost(funcs *hostfunc.Functions, registry *command.Registry, enforcer *capability.Enforcer, opts ...Option) *Host {
	if funcs == nil {
		panic("lua.NewHost: funcs is required")
	}
	if registry == nil {
		panic("lua.NewHost: registry is required")
	}
	if enforcer == nil {
		panic("lua.NewHost: enforcer is required")
	}
	h := &Host{
		factory:     NewStateFactory(),
		funcs:       funcs,
		registry:    registry,
		enforcer:    enforcer,
		callTimeout: DefaultCallTimeout,
		instances:   make(map[string]*Instance),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Create allocates a fresh isolated context for the plugin and runs its
// entry script once, synchronously. A load-time failure — unreadable entry,
// parse error, or runtime error — is contained: partial registrations are
// rolled back, the instance is recorded in the failed state, and the
// returned error carries PLUGIN_LOAD_FAILED. The host is unaffected.
func (h *Host) Create(ctx context.Context, manifest *plugins.Manifest, dir string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return plugins.ErrHostClosed("create")
	}

	name := manifest.Name
	if _, ok := h.instances[name]; ok {
		return plugins.ErrDuplicatePlugin(name)
	}

	entryPath := filepath.Join(dir, plugins.EntryFile)
	code, err := os.ReadFile(filepath.Clean(entryPath))
	if err != nil {
		h.instances[name] = h.failedInstance(manifest, dir)
		return plugins.ErrPluginLoadFailed(name, err)
	}

	state, err := h.factory.NewState(ctx)
	if err != nil {
		h.instances[name] = h.failedInstance(manifest, dir)
		return plugins.ErrPluginLoadFailed(name, err)
	}

	// Grants persist across reloads; only seed defaults for new plugins.
	if h.enforcer.GetGrants(name) == nil {
		if err := h.enforcer.SetGrants(name, capability.DefaultGrants); err != nil {
			state.Close()
			return plugins.ErrPluginLoadFailed(name, err)
		}
	}

	inst := newInstance(manifest, dir, state, h.registry, h.callTimeout)
	inst.resolver.install(state)
	h.funcs.Register(state, inst)

	if err := inst.runEntry(ctx, string(code)); err != nil {
		h.registry.RemoveByPlugin(name)
		inst.close()
		inst.status = plugins.StatusFailed
		h.instances[name] = inst
		return plugins.ErrPluginLoadFailed(name, err)
	}

	inst.status = plugins.StatusEnabled
	h.instances[name] = inst

	slog.Debug("created plugin instance",
		"plugin", name,
		"instance_id", inst.ID().String(),
		"dir", dir)
	return nil
}

// Enable resumes routing to the instance, re-inserting its retained
// registrations. Names taken by another plugin in the meantime are skipped
// with a warning; the other plugin's registration is untouched.
func (h *Host) Enable(_ context.Context, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	inst, ok := h.instances[name]
	if !ok {
		return plugins.ErrPluginNotFound(name)
	}
	if inst.status == plugins.StatusFailed {
		return plugins.ErrPluginFailed(name)
	}
	if inst.status == plugins.StatusEnabled {
		return nil
	}

	for cmdName, c := range inst.retainedCommands() {
		if err := h.registry.Register(command.Entry{
			Name:    cmdName,
			Plugin:  name,
			Handler: c,
		}); err != nil {
			slog.Warn("command taken while plugin was disabled",
				"plugin", name,
				"command", cmdName,
				"error", err)
		}
	}
	inst.status = plugins.StatusEnabled
	return nil
}

// Disable stops routing to the instance and removes its registrations. The
// execution context is kept so re-enable is cheap. Safe to call while other
// instances are dispatching; it takes effect for all future dispatches
// immediately.
func (h *Host) Disable(_ context.Context, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	inst, ok := h.instances[name]
	if !ok {
		return plugins.ErrPluginNotFound(name)
	}
	if inst.status != plugins.StatusEnabled {
		return nil
	}

	h.registry.RemoveByPlugin(name)
	inst.status = plugins.StatusDisabled
	return nil
}

// Destroy releases the instance's execution context. Its registrations are
// unreachable from the registry before this returns, and every outstanding
// callable handle becomes a safe no-op.
func (h *Host) Destroy(_ context.Context, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	inst, ok := h.instances[name]
	if !ok {
		return plugins.ErrPluginNotFound(name)
	}

	h.registry.RemoveByPlugin(name)
	h.enforcer.RemoveGrants(name)
	inst.close()
	delete(h.instances, name)

	slog.Debug("destroyed plugin instance",
		"plugin", name,
		"instance_id", inst.ID().String())
	return nil
}

// Status reports the instance state for a plugin.
func (h *Host) Status(name string) (plugins.Status, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	inst, ok := h.instances[name]
	if !ok {
		return "", false
	}
	return inst.status, true
}

// Plugins returns names of all live instances, sorted.
func (h *Host) Plugins() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.instances))
	for name := range h.instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close destroys all instances and shuts the host down.
func (h *Host) Close(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for name, inst := range h.instances {
		h.registry.RemoveByPlugin(name)
		h.enforcer.RemoveGrants(name)
		inst.close()
	}
	h.instances = make(map[string]*Instance)
	h.closed = true
	return nil
}

// failedInstance records a plugin whose context never came up, so its
// failure stays visible to status listings.
func (h *Host) failedInstance(manifest *plugins.Manifest, dir string) *Instance {
	inst := newInstance(manifest, dir, nil, h.registry, h.callTimeout)
	inst.status = plugins.StatusFailed
	inst.closed = true
	return inst
}
