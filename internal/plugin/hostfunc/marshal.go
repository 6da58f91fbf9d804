// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Drift Contributors

package hostfunc

import (
	lua "github.com/yuin/gopher-lua"
)

// Conversions between Lua values and host values. Everything crossing the
// bridge is copied; the script side never receives a reference into
// host-owned memory, and the host never retains a live Lua value beyond the
// call. Functions and userdata do not cross: they convert to nil.

// luaValueToGo converts a Lua value to a plain Go value.
func luaValueToGo(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LString:
		return string(val)
	case lua.LNumber:
		return float64(val)
	case lua.LBool:
		return bool(val)
	case *lua.LTable:
		if isArray(val) {
			return luaTableToSlice(val)
		}
		return luaTableToMap(val)
	case *lua.LNilType:
		return nil
	default:
		return nil
	}
}

// luaTableToMap converts a Lua table to a Go map, copying recursively.
func luaTableToMap(tbl *lua.LTable) map[string]any {
	result := make(map[string]any)
	tbl.ForEach(func(k, v lua.LValue) {
		result[k.String()] = luaValueToGo(v)
	})
	return result
}

// luaTableToSlice converts a Lua array table to a Go slice, copying
// recursively. Only integer keys are taken.
func luaTableToSlice(tbl *lua.LTable) []any {
	var result []any
	tbl.ForEach(func(k, v lua.LValue) {
		if _, ok := k.(lua.LNumber); ok {
			result = append(result, luaValueToGo(v))
		}
	})
	return result
}

// isArray checks if a Lua table is an array (integer keys starting from 1).
func isArray(tbl *lua.LTable) bool {
	if tbl.MaxN() > 0 {
		return true
	}
	count := 0
	tbl.ForEach(func(_, _ lua.LValue) {
		count++
	})
	return count == 0
}

// DispatchTable marshals a dispatch context into the table shape handlers
// receive: ctx.words (1-indexed, command token first) and ctx.channel_name.
// The words are copied; mutating the table never reaches the host.
func DispatchTable(ls *lua.LState, words []string, channel string) *lua.LTable {
	wordsTbl := ls.NewTable()
	for i, w := range words {
		wordsTbl.RawSetInt(i+1, lua.LString(w))
	}

	tbl := ls.NewTable()
	ls.SetField(tbl, "words", wordsTbl)
	ls.SetField(tbl, "channel_name", lua.LString(channel))
	return tbl
}
