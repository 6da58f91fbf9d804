// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Drift Contributors

package plugin

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Lifecycle status labels.
const (
	lifecycleLoaded   = "loaded"
	lifecycleFailed   = "failed"
	lifecycleReloaded = "reloaded"
)

// Lifecycles is the counter for plugin lifecycle transitions.
// Use RegisterMetrics to register this with a Prometheus registry.
var Lifecycles = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "drift_plugin_lifecycle_total",
		Help: "Total number of plugin lifecycle transitions",
	},
	[]string{"status"},
)

// RegisterMetrics registers plugin package metrics with the given registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Lifecycles)
}

func recordLifecycle(status string) {
	Lifecycles.WithLabelValues(status).Inc()
}
