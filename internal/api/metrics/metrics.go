// Package metrics defines the custom Prometheus metrics of the marketplace
// API. Every vector registers with the default registry on package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketplace"

// ── Sign-in metrics ───────────────────────────────────────────────────────────

// SignInAttemptsTotal counts sign-in attempts.
// Labels:
//   - provider: "credentials" or an OAuth provider id
//   - result: "success", "invalid_credentials", "wrong_provider", "not_linked", "validation", "error"
var SignInAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signin_attempts_total",
		Help:      "Total number of sign-in attempts, by provider and result.",
	},
	[]string{"provider", "result"},
)

// SessionsIssuedTotal counts signed session tokens.
var SessionsIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_issued_total",
		Help:      "Total number of session tokens issued, by provider.",
	},
	[]string{"provider"},
)

// ── Gate metrics ──────────────────────────────────────────────────────────────

// GateDecisionsTotal counts authentication gate outcomes.
// Labels:
//   - class: "public", "guest", "protected"
//   - outcome: "pass" or "redirect"
var GateDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_decisions_total",
		Help:      "Total number of authentication gate decisions.",
	},
	[]string{"class", "outcome"},
)

// AuthorizationDeniedTotal counts role guard rejections by status (401/403).
var AuthorizationDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_denied_total",
		Help:      "Total number of API requests rejected by the role guard.",
	},
	[]string{"status"},
)

// ── Auth event metrics ────────────────────────────────────────────────────────

var AuthEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_events_total",
		Help:      "Total number of auth events handled, by type.",
	},
	[]string{"type"},
)

// AuthEventsDroppedTotal counts events discarded because a worker queue was full.
var AuthEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_events_dropped_total",
		Help:      "Total number of auth events dropped on a full dispatcher queue.",
	},
)

// AuthEventsQueueDepth tracks pending events per worker.
var AuthEventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "auth_events_queue_depth",
		Help:      "Current number of auth events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
