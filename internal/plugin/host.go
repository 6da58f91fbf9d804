// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Drift Contributors

package plugin

import (
	"context"
)

// Status describes an instance's lifecycle state.
type Status string

// Instance states. Failed instances are never dispatched to.
const (
	StatusEnabled  Status = "enabled"
	StatusDisabled Status = "disabled"
	StatusFailed   Status = "failed"
)

// Host manages isolated script execution contexts, one per plugin. It is
// implemented by the Lua runtime in internal/plugin/lua; the manager holds
// only this interface so the engine never leaks past the boundary.
type Host interface {
	// Create allocates a fresh isolated context for the plugin, installs
	// the host API bridge and the module resolver bound to dir, and runs
	// the entry script once, synchronously. An entry failure is contained:
	// the instance is recorded in the failed state and the error returned
	// carries PLUGIN_LOAD_FAILED.
	Create(ctx context.Context, manifest *Manifest, dir string) error

	// Enable resumes command routing to the instance, re-inserting its
	// retained registrations.
	Enable(ctx context.Context, name string) error

	// Disable stops command routing to the instance and removes its
	// registrations. The context is kept so re-enable is cheap.
	Disable(ctx context.Context, name string) error

	// Destroy releases the execution context and atomically invalidates
	// every registration and handler capability that originated from it.
	Destroy(ctx context.Context, name string) error

	// Status reports the instance state, if the plugin has an instance.
	Status(name string) (Status, bool)

	// Plugins returns the names of all live instances, sorted.
	Plugins() []string

	// Close destroys all instances and shuts the host down.
	Close(ctx context.Context) error
}
