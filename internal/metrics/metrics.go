// Package metrics exposes Prometheus instrumentation for the listener loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Readings counts parsed estimate readings.
	Readings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bac_readings_total",
		Help: "Parsed BAC readings received from the device.",
	})

	// Estimate is the most recently parsed estimate.
	Estimate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bac_estimate",
		Help: "Most recent calibrated BAC estimate.",
	})

	// SkippedLines is the number of non-protocol lines discarded so far.
	SkippedLines = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bac_skipped_lines",
		Help: "Non-protocol serial lines discarded by the parser.",
	})

	// StartDecisions counts emitted start decisions, by trigger path.
	StartDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bac_start_decisions_total",
		Help: "Start decisions emitted, labeled by trigger path.",
	}, []string{"trigger"})

	// StopDecisions counts emitted stop decisions, by trigger path.
	StopDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bac_stop_decisions_total",
		Help: "Stop decisions emitted, labeled by trigger path.",
	}, []string{"trigger"})

	// LaunchFailures counts failed subordinate process launches.
	LaunchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bac_server_launch_failures_total",
		Help: "Subordinate server launch attempts that failed.",
	})

	// ServerRunning reports whether the subordinate process is held.
	ServerRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bac_server_running",
		Help: "1 while the subordinate server process is running.",
	})
)

// Trigger labels for decision counters.
const (
	TriggerDebounce = "debounce"
	TriggerDevice   = "device"
)

// Handler serves the default registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
