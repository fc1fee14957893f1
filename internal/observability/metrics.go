// Package observability holds the Prometheus metrics of the booking core.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BookingsRecorded counts committed bookings by cost type.
var BookingsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "metallbau",
	Subsystem: "costing",
	Name:      "bookings_recorded_total",
	Help:      "Bookings committed to the cost ledger, by cost type.",
}, []string{"cost_type"})

// BookingsRejected counts rejected booking requests by operation and error kind.
var BookingsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "metallbau",
	Subsystem: "costing",
	Name:      "bookings_rejected_total",
	Help:      "Booking requests rejected, by operation and error kind.",
}, []string{"operation", "kind"})

// UnbookedTime counts labor entries stored without a cost entry.
var UnbookedTime = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "metallbau",
	Subsystem: "costing",
	Name:      "time_entries_unbooked_total",
	Help:      "Time entries of non project relevant time types.",
})

// CostTotalDivergences counts controlling reads where the project running
// total disagreed with the ledger.
var CostTotalDivergences = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "metallbau",
	Subsystem: "controlling",
	Name:      "cost_total_divergences_total",
	Help:      "Controlling snapshots whose stored cost total differed from the ledger sum.",
})

// Reconciliations counts reconcile runs by outcome ("repaired" or "clean").
var Reconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "metallbau",
	Subsystem: "controlling",
	Name:      "reconciliations_total",
	Help:      "Project cost total reconciliations, by outcome.",
}, []string{"outcome"})

// UseCaseDuration tracks application service latency.
var UseCaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "metallbau",
	Subsystem: "app",
	Name:      "use_case_duration_seconds",
	Help:      "Application service call latency.",
	Buckets:   prometheus.DefBuckets,
}, []string{"use_case", "success"})

// HTTPRequests tracks API latency by route pattern, so ids in the path do not
// multiply the series.
var HTTPRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "metallbau",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by method, route and status.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route", "status"})
