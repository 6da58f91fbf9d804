// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Drift Contributors

// Package plugin provides plugin discovery, manifest handling, and
// lifecycle control for drift's embedded Lua plugin host.
package plugin

import (
	"regexp"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// ManifestFile is the metadata file expected in every plugin directory.
const ManifestFile = "plugin.yaml"

// EntryFile is the script executed once when an instance is created.
const EntryFile = "init.lua"

// Manifest represents a plugin.yaml file. Manifests are immutable once
// loaded; an invalid manifest never produces a live instance.
//
// Unknown fields are ignored for forward compatibility. The $schema hint is
// accepted and carries no functional meaning.
type Manifest struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Authors     []string `yaml:"authors" json:"authors"`
	Version     string   `yaml:"version" json:"version"`
	License     string   `yaml:"license" json:"license"`
	Homepage    string   `yaml:"homepage,omitempty" json:"homepage,omitempty"`
	Tags        []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// maxNameLength is the maximum allowed length for plugin names.
const maxNameLength = 64

// namePattern validates plugin names: must start with a lowercase letter,
// followed by lowercase letters, digits, or hyphens. Cannot end with a
// hyphen. Single character names are allowed.
var namePattern = regexp.MustCompile(`^[a-z]([a-z0-9-]*[a-z0-9])?$`)

// ParseManifest parses and validates a plugin.yaml file.
func ParseManifest(data []byte) (*Manifest, error) {
	if len(data) == 0 {
		return nil, ErrManifestInvalid("", "manifest data is empty", nil)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, ErrManifestInvalid("", "invalid YAML", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks manifest constraints.
func (m *Manifest) Validate() error {
	if m.Name == "" || !namePattern.MatchString(m.Name) {
		return ErrManifestInvalid(m.Name,
			"name must start with a-z, contain only a-z, 0-9, hyphens, and not end with a hyphen", nil)
	}
	if len(m.Name) > maxNameLength {
		return ErrManifestInvalid(m.Name, "name exceeds 64 characters", nil)
	}
	if m.Description == "" {
		return ErrManifestInvalid(m.Name, "description is required", nil)
	}
	if len(m.Authors) == 0 {
		return ErrManifestInvalid(m.Name, "at least one author is required", nil)
	}
	for _, a := range m.Authors {
		if a == "" {
			return ErrManifestInvalid(m.Name, "authors must be non-empty strings", nil)
		}
	}
	if m.Version == "" {
		return ErrManifestInvalid(m.Name, "version is required", nil)
	}
	if _, err := semver.NewVersion(m.Version); err != nil {
		return ErrManifestInvalid(m.Name, "version is not valid semver", err)
	}
	if m.License == "" {
		return ErrManifestInvalid(m.Name, "license is required", nil)
	}
	return nil
}
