// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Drift Contributors

//go:build integration

// Package plugin provides end-to-end tests for the Lua plugin subsystem:
// discovery, loading, dispatch, and lifecycle against real plugin
// directories on disk.
package plugin

import (
	"testing"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

func TestPluginIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Plugin Integration Suite")
}
