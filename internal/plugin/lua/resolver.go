// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Drift Contributors

package lua

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

const luaExt = ".lua"

type moduleState int

const (
	modulePending moduleState = iota
	moduleLoaded
)

// moduleEntry records a resolved module: pending while its body executes,
// loaded with the cached return value afterwards.
type moduleEntry struct {
	state moduleState
	value lua.LValue
}

// resolver implements the require(name) primitive, scoped to a single
// instance. Names resolve strictly inside the instance's own directory
// tree; the cache is keyed by canonical path and never shared across
// instances.
//
// Cycle policy: a re-entrant require of a path that is still mid-execution
// fails deterministically with CircularRequireError. No partial value is
// ever observable.
type resolver struct {
	root  string
	cache map[string]*moduleEntry
}

// newResolver creates a resolver rooted at the plugin directory.
func newResolver(root string) *resolver {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = filepath.Clean(root)
	}
	return &resolver{
		root:  abs,
		cache: make(map[string]*moduleEntry),
	}
}

// install replaces the global require with the scoped implementation. The
// sandbox never loads the package library, so this is the only module
// loading path available to scripts.
func (r *resolver) install(L *lua.LState) {
	L.SetGlobal("require", L.NewFunction(r.requireFn))
}

// resolve maps a module name to a canonical path inside the root. Absolute
// paths and parent-directory escapes fail before any file is read.
func (r *resolver) resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("module name cannot be empty")
	}
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("PathEscapeError: absolute path %q is not allowed", name)
	}

	rel := filepath.FromSlash(name)
	if filepath.Ext(rel) == "" {
		rel += luaExt
	}

	path := filepath.Join(r.root, rel)
	inside, err := filepath.Rel(r.root, path)
	if err != nil || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("PathEscapeError: %q escapes the plugin directory", name)
	}
	return path, nil
}

// requireFn is the Lua-facing require implementation.
//
// The first resolution of a path executes the module body and caches its
// return value; later resolutions return the cached value without
// re-executing, so side effects run exactly once. A module that returns
// nothing (or nil) caches true, matching Lua's own require convention.
func (r *resolver) requireFn(L *lua.LState) int {
	name := L.CheckString(1)

	path, err := r.resolve(name)
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}

	if entry, ok := r.cache[path]; ok {
		if entry.state == modulePending {
			L.RaiseError("CircularRequireError: module %q is already loading", name)
			return 0
		}
		L.Push(entry.value)
		return 1
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		L.RaiseError("module %q not found: %s", name, err.Error())
		return 0
	}

	fn, err := L.LoadString(string(data))
	if err != nil {
		L.RaiseError("module %q failed to compile: %s", name, err.Error())
		return 0
	}

	entry := &moduleEntry{state: modulePending}
	r.cache[path] = entry

	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		delete(r.cache, path)
		L.RaiseError("module %q failed: %s", name, err.Error())
		return 0
	}

	ret := L.Get(-1)
	L.Pop(1)
	if ret == lua.LNil {
		ret = lua.LTrue
	}

	entry.state = moduleLoaded
	entry.value = ret

	L.Push(ret)
	return 1
}
