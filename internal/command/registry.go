// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Drift Contributors

package command

import (
	"log/slog"
	"sort"
	"sync"
)

// Registry holds the live name -> (plugin, handler) map. It is the only
// state shared across plugin instances and is safe for concurrent use:
// lookups never observe an entry whose owner has already been torn down,
// because owners remove their entries under the registry lock before the
// teardown returns.
type Registry struct {
	commands map[string]Entry
	mu       sync.RWMutex
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Entry),
	}
}

// Register adds a command to the registry.
//
// Re-registering a name from the same plugin replaces the prior handler.
// Registering a name owned by a different plugin fails with
// COMMAND_CONFLICT and leaves the existing registration untouched.
func (r *Registry) Register(entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.commands[entry.Name]; ok {
		if existing.Plugin != entry.Plugin {
			return ErrCommandConflict(entry.Name, existing.Plugin, entry.Plugin)
		}
		slog.Debug("replacing command registration",
			"command", entry.Name,
			"plugin", entry.Plugin)
	}

	r.commands[entry.Name] = entry
	return nil
}

// Get retrieves a command by name. Lookup is an exact match; no
// case-folding is applied.
func (r *Registry) Get(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.commands[name]
	return entry, ok
}

// RemoveByPlugin removes every registration owned by the named plugin and
// returns how many were removed. The removal is atomic: once it returns, no
// lookup can reach a handler of that plugin.
func (r *Registry) RemoveByPlugin(plugin string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for name, entry := range r.commands {
		if entry.Plugin == plugin {
			delete(r.commands, name)
			removed++
		}
	}
	return removed
}

// All returns all registered commands sorted by name. The returned slice is
// a copy and safe to modify.
func (r *Registry) All() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.commands))
	for _, e := range r.commands {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}
