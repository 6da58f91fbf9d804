// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Drift Contributors

package plugin

import (
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileStateStore is a yaml-file StateStore adapter for the host's settings
// store. Plugins absent from the file default to enabled.
type FileStateStore struct {
	path  string
	mu    sync.Mutex
	known map[string]bool
}

// NewFileStateStore loads (or initializes) the state file at path.
func NewFileStateStore(path string) (*FileStateStore, error) {
	s := &FileStateStore{
		path:  path,
		known: make(map[string]bool),
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, &s.known); err != nil {
		return nil, err
	}
	return s, nil
}

// IsEnabled reports whether the plugin should be enabled.
func (s *FileStateStore) IsEnabled(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	enabled, ok := s.known[name]
	if !ok {
		return true
	}
	return enabled
}

// SetEnabled records and persists the plugin's enabled state.
func (s *FileStateStore) SetEnabled(name string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.known[name] = enabled

	data, err := yaml.Marshal(s.known)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
