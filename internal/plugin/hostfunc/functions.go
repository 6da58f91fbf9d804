// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Drift Contributors

// Package hostfunc provides the host API bridge installed into every plugin
// instance's Lua state.
//
// The bridge is a fixed, versioned table of operations. Every argument is
// validated and copied by value at this boundary; a mismatched type raises
// an argument error back into script space naming the parameter and the
// expected shape, and script code can never hold an aliasing reference into
// host-owned memory. The bridge itself is stateless beyond the tables it
// exposes.
package hostfunc

import (
	"context"
	"log/slog"

	"github.com/oklog/ulid/v2"
	lua "github.com/yuin/gopher-lua"

	"github.com/driftchat/drift/internal/plugin/capability"
)

// APIVersion is the bridge contract version exposed as drift.api_version.
const APIVersion = 1

// Messenger is the host messaging surface exposed to plugins. Calls are
// synchronous: they return when the host has accepted the message, with no
// asynchronous continuation visible to script code.
type Messenger interface {
	SendMessage(ctx context.Context, channel, text string) error
	SystemMessage(ctx context.Context, channel, text string) error
}

// Binder registers script callables as command handlers scoped to the
// calling instance. It is implemented by the instance and only ever called
// from inside that instance's own Lua execution.
type Binder interface {
	// PluginName names the owning instance.
	PluginName() string

	// BindCommand registers fn under name. Re-binding the same name from
	// the same instance replaces the prior handler; a name owned by a
	// different enabled instance fails with COMMAND_CONFLICT.
	BindCommand(name string, fn *lua.LFunction) error
}

// Functions provides host functions to Lua plugin instances.
type Functions struct {
	messenger Messenger
	enforcer  *capability.Enforcer
}

// New creates the bridge with its host collaborators. Panics if enforcer is
// nil; messenger may be nil for hosts without a messaging layer.
func New(messenger Messenger, enforcer *capability.Enforcer) *Functions {
	if enforcer == nil {
		panic("hostfunc.New: enforcer is required")
	}
	return &Functions{
		messenger: messenger,
		enforcer:  enforcer,
	}
}

// Register installs the drift.* capability table into a Lua state. The
// table is constructed fresh per instance and never aliased across
// instances.
func (f *Functions) Register(ls *lua.LState, b Binder) {
	name := b.PluginName()
	mod := ls.NewTable()

	ls.SetField(mod, "api_version", lua.LNumber(APIVersion))

	// Registration (no capability required)
	ls.SetField(mod, "register_command", ls.NewFunction(f.registerCommandFn(b)))
	ls.SetField(mod, "new_request_id", ls.NewFunction(f.newRequestIDFn()))

	// Capability-gated operations
	ls.SetField(mod, "log", ls.NewFunction(f.wrap(name, "log.write", f.logFn(name))))
	ls.SetField(mod, "send_msg", ls.NewFunction(f.wrap(name, "chat.send", f.sendMsgFn(name))))
	ls.SetField(mod, "system_msg", ls.NewFunction(f.wrap(name, "chat.system", f.systemMsgFn(name))))

	ls.SetGlobal("drift", mod)
}

func (f *Functions) wrap(plugin, capName string, fn lua.LGFunction) lua.LGFunction {
	return func(L *lua.LState) int {
		if !f.enforcer.Check(plugin, capName) {
			L.RaiseError("capability denied: %s requires %s", plugin, capName)
			return 0
		}
		return fn(L)
	}
}

// registerCommandFn returns the register_command host function.
// Lua signature: drift.register_command(name, handler)
func (f *Functions) registerCommandFn(b Binder) lua.LGFunction {
	return func(L *lua.LState) int {
		name := L.CheckString(1)
		handler := L.CheckFunction(2)

		if name == "" {
			L.ArgError(1, "command name cannot be empty")
			return 0
		}

		if err := b.BindCommand(name, handler); err != nil {
			L.RaiseError("CommandConflictError: %s", err.Error())
			return 0
		}
		return 0
	}
}

// sendMsgFn returns the send_msg host function.
// Lua signature: drift.send_msg(channel, text)
func (f *Functions) sendMsgFn(pluginName string) lua.LGFunction {
	return func(L *lua.LState) int {
		channel := L.CheckString(1)
		text := L.CheckString(2)

		if f.messenger == nil {
			L.RaiseError("messaging not available")
			return 0
		}
		if err := f.messenger.SendMessage(stateContext(L), channel, text); err != nil {
			slog.Error("send_msg failed",
				"plugin", pluginName,
				"channel", channel,
				"error", err)
			L.RaiseError("send_msg: %s", err.Error())
			return 0
		}
		return 0
	}
}

// systemMsgFn returns the system_msg host function.
// Lua signature: drift.system_msg(channel, text)
func (f *Functions) systemMsgFn(pluginName string) lua.LGFunction {
	return func(L *lua.LState) int {
		channel := L.CheckString(1)
		text := L.CheckString(2)

		if f.messenger == nil {
			L.RaiseError("messaging not available")
			return 0
		}
		if err := f.messenger.SystemMessage(stateContext(L), channel, text); err != nil {
			slog.Error("system_msg failed",
				"plugin", pluginName,
				"channel", channel,
				"error", err)
			L.RaiseError("system_msg: %s", err.Error())
			return 0
		}
		return 0
	}
}

// logFn returns the log host function.
// Lua signature: drift.log(level, message[, fields])
// fields is an optional table copied by value into structured log attrs.
func (f *Functions) logFn(pluginName string) lua.LGFunction {
	return func(L *lua.LState) int {
		level := L.CheckString(1)
		message := L.CheckString(2)

		logger := slog.Default().With("plugin", pluginName)
		if L.GetTop() >= 3 {
			fields := L.CheckTable(3)
			for k, v := range luaTableToMap(fields) {
				logger = logger.With(k, v)
			}
		}

		switch level {
		case "debug":
			logger.Debug(message)
		case "info":
			logger.Info(message)
		case "warn":
			logger.Warn(message)
		case "error":
			logger.Error(message)
		default:
			logger.Info(message)
		}
		return 0
	}
}

// newRequestIDFn returns the new_request_id host function.
func (f *Functions) newRequestIDFn() lua.LGFunction {
	return func(L *lua.LState) int {
		id := ulid.Make()
		L.Push(lua.LString(id.String()))
		return 1
	}
}

// stateContext returns the context attached to the Lua state, or Background.
func stateContext(L *lua.LState) context.Context {
	if ctx := L.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
