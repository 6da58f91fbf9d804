// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Drift Contributors

package command

import (
	"github.com/samber/oops"
)

// Error codes for registry and dispatch failures.
const (
	CodeUnknownCommand  = "UNKNOWN_COMMAND"
	CodeCommandConflict = "COMMAND_CONFLICT"
	CodeHandlerFailed   = "HANDLER_FAILED"
	CodeEmptyDispatch   = "EMPTY_DISPATCH"
)

// ErrUnknownCommand creates an error for a command with no registration.
func ErrUnknownCommand(cmd string) error {
	return oops.Code(CodeUnknownCommand).
		With("command", cmd).
		Errorf("unknown command: %s", cmd)
}

// ErrCommandConflict creates an error for a name already owned by another
// enabled plugin. The existing registration is left untouched.
func ErrCommandConflict(cmd, owner, claimant string) error {
	return oops.Code(CodeCommandConflict).
		With("command", cmd).
		With("owner", owner).
		With("claimant", claimant).
		Errorf("command %s already registered by plugin %s", cmd, owner)
}

// ErrHandlerFailed wraps an error raised inside a dispatched handler.
func ErrHandlerFailed(cmd, plugin string, cause error) error {
	return oops.Code(CodeHandlerFailed).
		With("command", cmd).
		With("plugin", plugin).
		Wrapf(cause, "handler for %s failed", cmd)
}

// ErrEmptyDispatch creates an error for a dispatch with no command token.
func ErrEmptyDispatch() error {
	return oops.Code(CodeEmptyDispatch).Errorf("no command provided")
}
