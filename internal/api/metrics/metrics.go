// Package metrics defines and registers all custom Prometheus metrics for the
// user administration API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "useradmin"

// ── User metrics ──────────────────────────────────────────────────────────────

// UsersCreatedTotal counts newly created users.
// Label:
//   - source: "admin" or "register"
var UsersCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_created_total",
		Help:      "Total number of users created, by source.",
	},
	[]string{"source"},
)

// UsersUpdatedTotal counts successful user updates.
var UsersUpdatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_updated_total",
		Help:      "Total number of users updated.",
	},
)

// UsersDeletedTotal counts removed users.
var UsersDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_deleted_total",
		Help:      "Total number of users deleted.",
	},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// LoginRedirectsTotal counts post-login destinations.
// Label:
//   - destination: "/admin", "/user" or "/"
var LoginRedirectsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_redirects_total",
		Help:      "Total number of post-login redirects, by destination.",
	},
	[]string{"destination"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditEventsTotal counts audit events persisted.
// Label:
//   - type: the event type (e.g. "user.created")
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of audit events written.",
	},
	[]string{"type"},
)

// AuditErrorsTotal counts audit events that were lost.
// Label:
//   - reason: "queue_full" or "write_failed"
var AuditErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_errors_total",
		Help:      "Total number of audit events dropped or failed.",
	},
	[]string{"reason"},
)

// AuditQueueDepth tracks the current number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditWriteDuration measures how long a single audit write takes.
var AuditWriteDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "audit_write_duration_seconds",
		Help:      "Duration of a single audit event write.",
		Buckets:   prometheus.DefBuckets,
	},
)
