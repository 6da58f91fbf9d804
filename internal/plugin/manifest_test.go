// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Drift Contributors

package plugin_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftchat/drift/internal/plugin"
	"github.com/driftchat/drift/pkg/errutil"
)

const validManifest = `
name: rot13
description: Rotates messages by 13 letters
authors:
  - Drift Contributors
version: 1.0.0
license: Apache-2.0
homepage: https://github.com/driftchat/drift
tags:
  - fun
`

func TestParseManifest_Valid(t *testing.T) {
	m, err := plugin.ParseManifest([]byte(validManifest))
	require.NoError(t, err)

	assert.Equal(t, "rot13", m.Name)
	assert.Equal(t, "Rotates messages by 13 letters", m.Description)
	assert.Equal(t, []string{"Drift Contributors"}, m.Authors)
	assert.Equal(t, "1.0.0", m.Version)
	assert.Equal(t, "Apache-2.0", m.License)
	assert.Equal(t, "https://github.com/driftchat/drift", m.Homepage)
	assert.Equal(t, []string{"fun"}, m.Tags)
}

func TestParseManifest_UnknownFieldsIgnored(t *testing.T) {
	yaml := validManifest + `
$schema: https://driftchat.dev/schemas/plugin.schema.json
future-field: whatever
`
	m, err := plugin.ParseManifest([]byte(yaml))
	require.NoError(t, err)
	assert.Equal(t, "rot13", m.Name)
}

func TestParseManifest_Empty(t *testing.T) {
	_, err := plugin.ParseManifest(nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, plugin.CodeManifestInvalid)
}

func TestParseManifest_BadYAML(t *testing.T) {
	_, err := plugin.ParseManifest([]byte("name: [unclosed"))
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, plugin.CodeManifestInvalid)
}

func TestManifest_Validate(t *testing.T) {
	base := func() plugin.Manifest {
		return plugin.Manifest{
			Name:        "rot13",
			Description: "desc",
			Authors:     []string{"someone"},
			Version:     "1.0.0",
			License:     "MIT",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*plugin.Manifest)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*plugin.Manifest) {},
		},
		{
			name:    "missing name",
			mutate:  func(m *plugin.Manifest) { m.Name = "" },
			wantErr: "name",
		},
		{
			name:    "uppercase name",
			mutate:  func(m *plugin.Manifest) { m.Name = "Rot13" },
			wantErr: "name",
		},
		{
			name:    "underscore in name",
			mutate:  func(m *plugin.Manifest) { m.Name = "rot_13" },
			wantErr: "name",
		},
		{
			name:    "name ends with hyphen",
			mutate:  func(m *plugin.Manifest) { m.Name = "rot13-" },
			wantErr: "name",
		},
		{
			name:    "name starts with digit",
			mutate:  func(m *plugin.Manifest) { m.Name = "13rot" },
			wantErr: "name",
		},
		{
			name:    "name too long",
			mutate:  func(m *plugin.Manifest) { m.Name = "a" + strings.Repeat("b", 64) },
			wantErr: "64",
		},
		{
			name:   "single character name ok",
			mutate: func(m *plugin.Manifest) { m.Name = "x" },
		},
		{
			name:   "hyphenated name ok",
			mutate: func(m *plugin.Manifest) { m.Name = "my-cool-plugin2" },
		},
		{
			name:    "missing description",
			mutate:  func(m *plugin.Manifest) { m.Description = "" },
			wantErr: "description",
		},
		{
			name:    "no authors",
			mutate:  func(m *plugin.Manifest) { m.Authors = nil },
			wantErr: "author",
		},
		{
			name:    "empty author string",
			mutate:  func(m *plugin.Manifest) { m.Authors = []string{"ok", ""} },
			wantErr: "author",
		},
		{
			name:    "missing version",
			mutate:  func(m *plugin.Manifest) { m.Version = "" },
			wantErr: "version",
		},
		{
			name:    "version not semver",
			mutate:  func(m *plugin.Manifest) { m.Version = "one point oh" },
			wantErr: "semver",
		},
		{
			name:   "prerelease version ok",
			mutate: func(m *plugin.Manifest) { m.Version = "2.0.0-rc.1" },
		},
		{
			name:    "missing license",
			mutate:  func(m *plugin.Manifest) { m.License = "" },
			wantErr: "license",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := base()
			tt.mutate(&m)
			err := m.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, plugin.CodeManifestInvalid)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
