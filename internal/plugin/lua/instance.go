// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Drift Contributors

package lua

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	lua "github.com/yuin/gopher-lua"

	"github.com/driftchat/drift/internal/command"
	plugins "github.com/driftchat/drift/internal/plugin"
	"github.com/driftchat/drift/internal/plugin/hostfunc"
)

// Compile-time interface check.
var _ hostfunc.Binder = (*Instance)(nil)

// Instance owns one isolated execution context for a plugin: its LState,
// module cache, and retained registrations. Instances never share mutable
// state with each other; the command registry is the only cross-instance
// surface, and it holds only opaque handles.
//
// The mutex serializes every execution in this context — entry run and
// handler invocations alike — which gives the single-flight guarantee:
// exactly one dispatch into a given instance is in flight at a time.
type Instance struct {
	id          ulid.ULID
	manifest    *plugins.Manifest
	dir         string
	status      plugins.Status
	callTimeout time.Duration

	mu       sync.Mutex
	state    *lua.LState
	resolver *resolver
	registry *command.Registry
	// retained keeps the instance's own registrations across disable so a
	// later enable can re-insert them without re-running the entry script.
	retained map[string]*Callable
	closed   bool
}

func newInstance(manifest *plugins.Manifest, dir string, state *lua.LState, registry *command.Registry, callTimeout time.Duration) *Instance {
	return &Instance{
		id:          ulid.Make(),
		manifest:    manifest,
		dir:         dir,
		callTimeout: callTimeout,
		state:       state,
		resolver:    newResolver(dir),
		registry:    registry,
		retained:    make(map[string]*Callable),
	}
}

// ID returns the instance's unique identifier.
func (i *Instance) ID() ulid.ULID {
	return i.id
}

// PluginName names the plugin this instance belongs to.
func (i *Instance) PluginName() string {
	return i.manifest.Name
}

// BindCommand registers a script callable under name, scoped to this
// instance. Only called from inside this instance's own Lua execution, so
// the instance lock is already held by the running entry or handler.
func (i *Instance) BindCommand(name string, fn *lua.LFunction) error {
	c := &Callable{inst: i, fn: fn}
	if err := i.registry.Register(command.Entry{
		Name:    name,
		Plugin:  i.manifest.Name,
		Handler: c,
	}); err != nil {
		return err
	}
	i.retained[name] = c
	return nil
}

// runEntry executes the entry script once, synchronously, under the
// per-call budget.
func (i *Instance) runEntry(ctx context.Context, code string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	done := i.applyBudget(ctx)
	defer done()

	return i.state.DoString(code)
}

// invoke runs a registered handler with a freshly marshaled dispatch
// context. Invoking after the instance has been destroyed is a no-op.
func (i *Instance) invoke(ctx context.Context, fn *lua.LFunction, dctx command.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil
	}

	done := i.applyBudget(ctx)
	defer done()

	dispatch := hostfunc.DispatchTable(i.state, dctx.Words, dctx.ChannelName)
	if err := i.state.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, dispatch); err != nil {
		return command.ErrHandlerFailed(dctx.Command(), i.manifest.Name, err)
	}
	return nil
}

// applyBudget bounds one script call's wall-clock cost by attaching a
// deadline context to the state. The caller must hold the instance lock.
func (i *Instance) applyBudget(ctx context.Context) func() {
	if ctx == nil {
		ctx = context.Background()
	}
	tctx, cancel := context.WithTimeout(ctx, i.callTimeout)
	i.state.SetContext(tctx)
	return func() {
		i.state.RemoveContext()
		cancel()
	}
}

// retainedCommands returns a snapshot of the instance's registrations.
func (i *Instance) retainedCommands() map[string]*Callable {
	i.mu.Lock()
	defer i.mu.Unlock()

	snapshot := make(map[string]*Callable, len(i.retained))
	for name, c := range i.retained {
		snapshot[name] = c
	}
	return snapshot
}

// close releases the execution context. Every callable handle owned by the
// instance is invalidated: a later invoke observes closed and becomes a
// no-op.
func (i *Instance) close() {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return
	}
	i.closed = true
	if i.state != nil {
		i.state.Close()
	}
}
