// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Drift Contributors

package lua

import (
	"context"

	lua "github.com/yuin/gopher-lua"

	"github.com/driftchat/drift/internal/command"
)

// Compile-time interface check.
var _ command.Handler = (*Callable)(nil)

// Callable is the opaque capability handed to the command registry for a
// script-defined handler. The native Lua function value never leaves this
// package: the rest of the host only sees the Invoke contract.
type Callable struct {
	inst *Instance
	fn   *lua.LFunction
}

// Invoke runs the handler synchronously on the owning instance's context.
// If the instance has been destroyed the call is a no-op, never a fault.
func (c *Callable) Invoke(ctx context.Context, dctx command.Context) error {
	return c.inst.invoke(ctx, c.fn, dctx)
}
