// Package metrics defines and registers the Prometheus metrics emitted by the
// marketplace client. It is the single source of truth for metric names,
// labels, and help strings. All metrics register with the default registry on
// package initialisation.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

// ── API client metrics ────────────────────────────────────────────────────────

// ClientRequestsTotal counts completed API exchanges.
// Labels:
//   - method: HTTP verb (e.g. "POST")
//   - status_class: "2xx", "3xx", "4xx", "5xx" or "network" for transport failures
var ClientRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "client_requests_total",
		Help:      "Total number of API requests issued by the client, by method and status class.",
	},
	[]string{"method", "status_class"},
)

// ClientRequestDuration measures wall time from sending a request to reading its response.
// Label:
//   - method: HTTP verb
var ClientRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "client_request_duration_seconds",
		Help:      "Duration of API requests issued by the client.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionTransitionsTotal counts applied session state transitions.
// Labels:
//   - from, to: session statuses (e.g. "authenticating" → "authenticated")
var SessionTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_transitions_total",
		Help:      "Total number of applied session state transitions.",
	},
	[]string{"from", "to"},
)

// SessionRoleDefaultedTotal counts users ingested without a role.
var SessionRoleDefaultedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_role_defaulted_total",
		Help:      "Total number of users received without a role and defaulted to influencer.",
	},
)

// SessionStaleCommitsTotal counts operation results discarded by the sequence guard.
// Label:
//   - operation: e.g. "login", "logout"
var SessionStaleCommitsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_stale_commits_total",
		Help:      "Total number of session operation results discarded because a newer operation had already settled.",
	},
	[]string{"operation"},
)

// StatusClass buckets an HTTP status for the status_class label.
// Zero means no response was received.
func StatusClass(status int) string {
	if status <= 0 {
		return "network"
	}
	return strconv.Itoa(status/100) + "xx"
}
