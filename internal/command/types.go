// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Drift Contributors

// Package command provides the command registry and dispatch system that
// routes host-observed chat input to plugin-registered handlers.
package command

import (
	"context"
)

// Context is the ephemeral value delivered to a handler for a single
// dispatch. Words holds the tokenized input with the command token first;
// ChannelName identifies the originating channel. It is built fresh per
// invocation and never persisted.
type Context struct {
	Words       []string
	ChannelName string
}

// Command returns the command token (the first word), or "" when empty.
func (c Context) Command() string {
	if len(c.Words) == 0 {
		return ""
	}
	return c.Words[0]
}

// Handler is an opaque capability for a script-defined callable. Invoking a
// handler whose owning instance has been destroyed is a no-op, never a fault.
type Handler interface {
	Invoke(ctx context.Context, dctx Context) error
}

// Entry represents a registered command. Plugin names the owning instance;
// entries are removed from the registry before the owner's destroy returns.
type Entry struct {
	Name    string
	Plugin  string
	Handler Handler
}

// Messenger is the host messaging surface the dispatcher reports handler
// diagnostics through. Calls are synchronous and return when delivered.
type Messenger interface {
	SendMessage(ctx context.Context, channel, text string) error
	SystemMessage(ctx context.Context, channel, text string) error
}
