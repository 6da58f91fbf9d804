// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Drift Contributors

package plugin

import (
	"github.com/samber/oops"
)

// Error codes for plugin lifecycle failures.
const (
	CodeManifestInvalid  = "MANIFEST_INVALID"
	CodePluginLoadFailed = "PLUGIN_LOAD_FAILED"
	CodePluginNotFound   = "PLUGIN_NOT_FOUND"
	CodePluginFailed     = "PLUGIN_FAILED"
	CodeDuplicatePlugin  = "DUPLICATE_PLUGIN"
	CodeHostClosed       = "HOST_CLOSED"
)

// ErrManifestInvalid creates an error for bad plugin metadata. The plugin is
// excluded from the load set; discovery of other plugins continues.
func ErrManifestInvalid(name, reason string, cause error) error {
	builder := oops.Code(CodeManifestInvalid).
		With("plugin", name).
		With("reason", reason)
	if cause != nil {
		return builder.Wrapf(cause, "invalid manifest: %s", reason)
	}
	return builder.Errorf("invalid manifest: %s", reason)
}

// ErrPluginLoadFailed creates an error for an entry script that failed to
// parse or run. The instance is marked failed and never dispatched to.
func ErrPluginLoadFailed(name string, cause error) error {
	return oops.Code(CodePluginLoadFailed).
		With("plugin", name).
		Wrapf(cause, "plugin %s failed to load", name)
}

// ErrPluginNotFound creates an error for an operation on an unknown plugin.
func ErrPluginNotFound(name string) error {
	return oops.Code(CodePluginNotFound).
		With("plugin", name).
		Errorf("plugin not found: %s", name)
}

// ErrPluginFailed creates an error for an operation that requires a healthy
// instance but found one in the failed state.
func ErrPluginFailed(name string) error {
	return oops.Code(CodePluginFailed).
		With("plugin", name).
		Errorf("plugin %s is in failed state; reload it", name)
}

// ErrDuplicatePlugin creates an error for a second live instance of a name.
func ErrDuplicatePlugin(name string) error {
	return oops.Code(CodeDuplicatePlugin).
		With("plugin", name).
		Errorf("plugin %s already has a live instance", name)
}

// ErrHostClosed creates an error for operations on a closed host.
func ErrHostClosed(operation string) error {
	return oops.Code(CodeHostClosed).
		With("operation", operation).
		Errorf("plugin host is closed")
}
