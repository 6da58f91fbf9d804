// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Drift Contributors

package hostfunc_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"

	"github.com/driftchat/drift/internal/plugin/capability"
	"github.com/driftchat/drift/internal/plugin/hostfunc"
)

// fakeBinder records command bindings for one test plugin.
type fakeBinder struct {
	name    string
	bound   map[string]*lua.LFunction
	bindErr error
}

func (b *fakeBinder) PluginName() string { return b.name }

func (b *fakeBinder) BindCommand(name string, fn *lua.LFunction) error {
	if b.bindErr != nil {
		return b.bindErr
	}
	if b.bound == nil {
		b.bound = make(map[string]*lua.LFunction)
	}
	b.bound[name] = fn
	return nil
}

// fakeMessenger captures bridge messaging calls.
type fakeMessenger struct {
	sent   [][2]string
	system [][2]string
	err    error
}

func (m *fakeMessenger) SendMessage(_ context.Context, channel, text string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, [2]string{channel, text})
	return nil
}

func (m *fakeMessenger) SystemMessage(_ context.Context, channel, text string) error {
	if m.err != nil {
		return m.err
	}
	m.system = append(m.system, [2]string{channel, text})
	return nil
}

// newBridgeState builds a Lua state with the bridge installed for one
// plugin with the given grants.
func newBridgeState(t *testing.T, m hostfunc.Messenger, grants []string) (*lua.LState, *fakeBinder) {
	t.Helper()

	enforcer := capability.NewEnforcer()
	if grants != nil {
		require.NoError(t, enforcer.SetGrants("testplug", grants))
	}

	binder := &fakeBinder{name: "testplug"}
	L := lua.NewState()
	t.Cleanup(L.Close)

	hostfunc.New(m, enforcer).Register(L, binder)
	return L, binder
}

func TestRegister_APIVersion(t *testing.T) {
	L, _ := newBridgeState(t, &fakeMessenger{}, nil)

	require.NoError(t, L.DoString(`v = drift.api_version`))
	assert.Equal(t, lua.LNumber(hostfunc.APIVersion), L.GetGlobal("v"))
}

func TestRegisterCommand(t *testing.T) {
	L, binder := newBridgeState(t, &fakeMessenger{}, nil)

	require.NoError(t, L.DoString(`drift.register_command("/hello", function(ctx) end)`))
	assert.Contains(t, binder.bound, "/hello")
}

func TestRegisterCommand_ArgErrors(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"missing handler", `drift.register_command("/x")`},
		{"handler not a function", `drift.register_command("/x", "nope")`},
		{"name not a string", `drift.register_command({}, function() end)`},
		{"empty name", `drift.register_command("", function() end)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			L, binder := newBridgeState(t, &fakeMessenger{}, nil)
			err := L.DoString(tt.script)
			require.Error(t, err)
			assert.Empty(t, binder.bound)
		})
	}
}

func TestRegisterCommand_ConflictRaises(t *testing.T) {
	L, binder := newBridgeState(t, &fakeMessenger{}, nil)
	binder.bindErr = errors.New("command /x already registered by plugin other")

	err := L.DoString(`drift.register_command("/x", function() end)`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CommandConflictError")
	assert.Contains(t, err.Error(), "other")
}

func TestSendMsg(t *testing.T) {
	m := &fakeMessenger{}
	L, _ := newBridgeState(t, m, []string{"chat.send"})

	require.NoError(t, L.DoString(`drift.send_msg("general", "hello")`))
	require.Len(t, m.sent, 1)
	assert.Equal(t, [2]string{"general", "hello"}, m.sent[0])
}

func TestSendMsg_CapabilityDenied(t *testing.T) {
	m := &fakeMessenger{}
	L, _ := newBridgeState(t, m, []string{"log.**"})

	err := L.DoString(`drift.send_msg("general", "hello")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capability denied")
	assert.Empty(t, m.sent)
}

func TestSendMsg_MessengerFailureRaises(t *testing.T) {
	m := &fakeMessenger{err: errors.New("link down")}
	L, _ := newBridgeState(t, m, []string{"chat.**"})

	err := L.DoString(`drift.send_msg("general", "hello")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "link down")
}

func TestSendMsg_NoMessenger(t *testing.T) {
	L, _ := newBridgeState(t, nil, []string{"chat.**"})

	err := L.DoString(`drift.send_msg("general", "hello")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "messaging not available")
}

func TestSystemMsg(t *testing.T) {
	m := &fakeMessenger{}
	L, _ := newBridgeState(t, m, []string{"chat.**"})

	require.NoError(t, L.DoString(`drift.system_msg("general", "notice")`))
	require.Len(t, m.system, 1)
	assert.Equal(t, [2]string{"general", "notice"}, m.system[0])
}

func TestSystemMsg_RequiresOwnCapability(t *testing.T) {
	m := &fakeMessenger{}
	L, _ := newBridgeState(t, m, []string{"chat.send"})

	err := L.DoString(`drift.system_msg("general", "notice")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat.system")
}

func TestLog(t *testing.T) {
	L, _ := newBridgeState(t, &fakeMessenger{}, []string{"log.**"})

	// Levels and an optional fields table; none of these may error.
	require.NoError(t, L.DoString(`
drift.log("debug", "d")
drift.log("info", "i")
drift.log("warn", "w")
drift.log("error", "e")
drift.log("nonsense", "falls back to info")
drift.log("info", "with fields", { user = "alice", count = 3, nested = { a = 1 } })
`))

	err := L.DoString(`drift.log("info", "bad fields", "not a table")`)
	assert.Error(t, err)
}

func TestLog_CapabilityDenied(t *testing.T) {
	L, _ := newBridgeState(t, &fakeMessenger{}, []string{"chat.**"})

	err := L.DoString(`drift.log("info", "nope")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.write")
}

func TestNewRequestID(t *testing.T) {
	L, _ := newBridgeState(t, &fakeMessenger{}, nil)

	require.NoError(t, L.DoString(`a = drift.new_request_id() b = drift.new_request_id()`))
	a := L.GetGlobal("a").String()
	b := L.GetGlobal("b").String()
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
}

func TestDispatchTable(t *testing.T) {
	L := lua.NewState()
	t.Cleanup(L.Close)

	tbl := hostfunc.DispatchTable(L, []string{"/rot13", "hello", "world"}, "general")
	L.SetGlobal("ctx", tbl)

	require.NoError(t, L.DoString(`
n = #ctx.words
first = ctx.words[1]
last = ctx.words[3]
chan = ctx.channel_name
`))
	assert.Equal(t, lua.LNumber(3), L.GetGlobal("n"))
	assert.Equal(t, "/rot13", L.GetGlobal("first").String())
	assert.Equal(t, "world", L.GetGlobal("last").String())
	assert.Equal(t, "general", L.GetGlobal("chan").String())
}

func TestDispatchTable_Empty(t *testing.T) {
	L := lua.NewState()
	t.Cleanup(L.Close)

	tbl := hostfunc.DispatchTable(L, nil, "")
	L.SetGlobal("ctx", tbl)

	require.NoError(t, L.DoString(`n = #ctx.words`))
	assert.Equal(t, lua.LNumber(0), L.GetGlobal("n"))
}
