package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records login attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "track_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// PermissionChecks counts membership guard evaluations by action and outcome (allow|deny|error).
	PermissionChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "track_permission_checks_total",
			Help: "Total number of workspace permission checks",
		},
		[]string{"action", "result"},
	)

	// Invitations counts invitation lifecycle transitions.
	// outcome: direct_add|created|updated|resent|cancelled|accepted|rejected
	Invitations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "track_invitations_total",
			Help: "Invitation lifecycle events",
		},
		[]string{"outcome"},
	)

	// ExpiredPendingInvitations reports pending invitations whose expiry has passed.
	ExpiredPendingInvitations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "track_invitations_expired_pending",
			Help: "Pending invitations past their expiry",
		},
	)

	// Notifications counts outbound notification deliveries by kind and result (sent|failed|skipped).
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "track_notifications_total",
			Help: "Outbound notification delivery attempts",
		},
		[]string{"kind", "result"},
	)

	// RateLimited counts requests rejected by the rate limiter.
	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "track_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"route"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "track_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
