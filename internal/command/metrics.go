// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Drift Contributors

package command

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status constants for dispatch metrics.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusNotFound = "not_found"
)

// Dispatches is the counter for command dispatches.
// Use RegisterMetrics to register this with a Prometheus registry.
var Dispatches = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "drift_command_dispatches_total",
		Help: "Total number of command dispatches",
	},
	[]string{"command", "plugin", "status"},
)

// DispatchDuration is the histogram for handler execution duration.
// Use RegisterMetrics to register this with a Prometheus registry.
var DispatchDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "drift_command_dispatch_duration_seconds",
		Help:    "Handler execution duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"command", "plugin"},
)

// RegisterMetrics registers command package metrics with the given registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Dispatches)
	reg.MustRegister(DispatchDuration)
}

// recordDispatch updates dispatch metrics for a completed invocation.
func recordDispatch(command, plugin, status string, start time.Time) {
	Dispatches.WithLabelValues(command, plugin, status).Inc()
	if status != StatusNotFound {
		DispatchDuration.WithLabelValues(command, plugin).Observe(time.Since(start).Seconds())
	}
}
