// Package metrics defines and registers all custom Prometheus metrics for the
// Autobridge client. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry at package init;
// embedders expose them alongside the rest of their telemetry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "autobridge"

// ── Transport metrics ─────────────────────────────────────────────────────────

// RequestsTotal counts API calls made through the transport.
// Labels:
//   - method: HTTP method (e.g. "GET")
//   - outcome: "ok", "error" (non-2xx), or "transport" (no response at all)
var RequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_total",
		Help:      "Total number of API requests, by method and outcome.",
	},
	[]string{"method", "outcome"},
)

// UnauthorizedTotal counts 401/403 responses, which force a local logout.
var UnauthorizedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unauthorized_responses_total",
		Help:      "Total number of 401/403 responses received from the API.",
	},
)

// RequestDuration measures wall time per API call.
// Label:
//   - method: HTTP method
var RequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "request_duration_seconds",
		Help:      "Duration of API requests from send to decoded response.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - outcome: "ok", "rejected" (backend refused), or "malformed" (response
//     missing required fields)
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"outcome"},
)

// AutoLogoutsTotal counts session clears not initiated by the user.
// Label:
//   - cause: "expired", "broadcast", or "unauthorized"
var AutoLogoutsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auto_logouts_total",
		Help:      "Total number of automatic logouts, by cause.",
	},
	[]string{"cause"},
)
