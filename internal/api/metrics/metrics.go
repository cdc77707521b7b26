// Package metrics defines and registers all custom Prometheus metrics for the
// dashboard backend. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on import and
// served by the router on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dashboard"

// ── Auth state metrics ───────────────────────────────────────────────────────

// AuthEventsTotal counts auth events raised for browser sessions.
// Label:
//   - kind: "initial_session", "signed_in", "signed_out" or "token_refreshed"
var AuthEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_events_total",
		Help:      "Total number of auth events published, by kind.",
	},
	[]string{"kind"},
)

// AuthEventsQueueDepth tracks the number of auth events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuthEventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "auth_events_queue_depth",
		Help:      "Current number of auth events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuthResolutionsTotal counts how auth state resolutions ended.
// Label:
//   - result: "settled", "failed", "signed_out" or "discarded" (superseded by a newer event)
var AuthResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_resolutions_total",
		Help:      "Total number of auth state resolutions, labelled by result.",
	},
	[]string{"result"},
)

// ProfileResolveDuration measures a single profile lookup round trip.
// Label:
//   - result: "ok" or "error"
var ProfileResolveDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "profile_resolve_duration_seconds",
		Help:      "Duration of profile role/approval lookups.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

// AuthMachinesActive tracks live auth state machines held by the registry.
var AuthMachinesActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "auth_machines_active",
		Help:      "Number of auth state machines currently held for browser sessions.",
	},
)

// ── Approval metrics ─────────────────────────────────────────────────────────

// ApprovalDecisionsTotal counts admin decisions written to profiles.
// Label:
//   - outcome: "approved", "rejected" or "role_changed"
var ApprovalDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "approval_decisions_total",
		Help:      "Total number of approval decisions, by outcome.",
	},
	[]string{"outcome"},
)

// PendingApprovals is the last polled number of accounts waiting for approval.
var PendingApprovals = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pending_approvals",
		Help:      "Number of non-admin profiles waiting for approval, as of the last poll.",
	},
)

// PendingPollErrorsTotal counts failed pending-count polls.
var PendingPollErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pending_poll_errors_total",
		Help:      "Total number of pending-approval polls that failed.",
	},
)

// ── Store metrics ────────────────────────────────────────────────────────────

// StoreFallbacksTotal counts reads that failed and were served as empty results.
// Label:
//   - store: "profiles", "tasks" or "log_data"
var StoreFallbacksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_fallbacks_total",
		Help:      "Total number of failed reads replaced by an empty result.",
	},
	[]string{"store"},
)

// ── HTTP gate metrics ────────────────────────────────────────────────────────

// GateDecisionsTotal counts access decisions taken by the request gate.
// Label:
//   - kind: "loading", "unauthenticated", "pending_approval", "authorized"
//     or "undetermined"
var GateDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_decisions_total",
		Help:      "Total number of access decisions taken for API requests, by kind.",
	},
	[]string{"kind"},
)
