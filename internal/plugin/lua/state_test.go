// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Drift Contributors

package lua_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	glua "github.com/yuin/gopher-lua"

	pluginlua "github.com/driftchat/drift/internal/plugin/lua"
)

func newSandboxState(t *testing.T) *glua.LState {
	t.Helper()
	L, err := pluginlua.NewStateFactory().NewState(context.Background())
	require.NoError(t, err)
	t.Cleanup(L.Close)
	return L
}

func TestStateFactory_SafeLibrariesPresent(t *testing.T) {
	L := newSandboxState(t)

	require.NoError(t, L.DoString(`
assert(type(string.upper) == "function")
assert(type(table.concat) == "function")
assert(type(math.floor) == "function")
assert(type(pairs) == "function")
assert(type(tostring) == "function")
`))
}

func TestStateFactory_UnsafeLibrariesAbsent(t *testing.T) {
	L := newSandboxState(t)

	require.NoError(t, L.DoString(`
assert(os == nil, "os must not be available")
assert(io == nil, "io must not be available")
assert(debug == nil, "debug must not be available")
assert(package == nil, "package must not be available")
`))
}

func TestStateFactory_CodeLoadersBlocked(t *testing.T) {
	L := newSandboxState(t)

	require.NoError(t, L.DoString(`
assert(dofile == nil, "dofile must be blocked")
assert(loadfile == nil, "loadfile must be blocked")
assert(loadstring == nil, "loadstring must be blocked")
assert(load == nil, "load must be blocked")
`))
}

func TestStateFactory_StatesAreIndependent(t *testing.T) {
	a := newSandboxState(t)
	b := newSandboxState(t)

	require.NoError(t, a.DoString(`leaked = "from-a"`))
	require.NoError(t, b.DoString(`assert(leaked == nil, "globals must not cross states")`))
}
