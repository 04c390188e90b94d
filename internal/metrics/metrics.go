// Package metrics holds the Prometheus collectors. They register with the
// default registry via promauto and are exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts served requests by route template, method and status class.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_http_requests_total",
			Help: "Total number of HTTP requests by route, method and status class",
		},
		[]string{"route", "method", "status"}, // status: 2xx, 4xx, 5xx
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dashboard_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	ExpensesChanged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_expenses_changed_total",
			Help: "Total number of committed expense mutations by action",
		},
		[]string{"action"}, // created, updated, deleted
	)

	BudgetsChanged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_budgets_changed_total",
			Help: "Total number of committed budget mutations by action",
		},
		[]string{"action"},
	)

	SuggestionsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_budget_suggestions_generated_total",
			Help: "Total number of budget suggestions produced",
		},
	)

	SuggestionsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_budget_suggestions_applied_total",
			Help: "Total number of applied budget suggestions by outcome",
		},
		[]string{"action"}, // updated, created
	)

	AnalyticsCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_analytics_cache_total",
			Help: "Analytics cache lookups by result",
		},
		[]string{"result"}, // hit, miss, shared
	)

	AnalyticsDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dashboard_analytics_compute_duration_seconds",
			Help:    "Duration of analytics load and computation in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	ReceiptsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_receipts_processed_total",
			Help: "Total number of receipt uploads by result",
		},
		[]string{"result"}, // ok, rejected, error
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_events_published_total",
			Help: "Change events sent to the broker by kind and result",
		},
		[]string{"kind", "result"},
	)

	EventsExported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_events_exported_total",
			Help: "Change events written to the spreadsheet by result",
		},
		[]string{"result"},
	)

	// Errors counts failures by error kind (validation, not_found, transport, internal).
	Errors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_errors_total",
			Help: "Total number of errors by kind and component",
		},
		[]string{"kind", "component"},
	)

	SessionRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_session_refreshes_total",
			Help: "Session refreshes by outcome",
		},
		[]string{"outcome"}, // applied, stale, error
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_rate_limited_requests_total",
			Help: "Requests rejected by the per-client rate limit",
		},
	)

	SuspiciousRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_suspicious_requests_total",
			Help: "Requests matching known attack patterns",
		},
	)
)

// StatusClass buckets an HTTP status into 2xx, 3xx, 4xx or 5xx.
func StatusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
