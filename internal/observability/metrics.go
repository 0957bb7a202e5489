package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ecoride"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RideJoinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "ride_joins_total", Help: "Join attempts by outcome"},
		[]string{"outcome"},
	)
	RidesCompletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Name: "rides_completed_total", Help: "Rides moved to COMPLETED"},
	)

	MatchLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{Namespace: namespace, Name: "match_latency_seconds", Help: "Match search latency seconds"},
	)
	MatchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_results",
			Help:      "Number of rides returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20},
		},
	)

	LedgerWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "ledger_writes_total", Help: "Completion ledger writes by result"},
		[]string{"result"},
	)
	TrustUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "trust_updates_total", Help: "Trust score applications by result"},
		[]string{"result"},
	)

	MaterializationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "pool_materializations_total", Help: "Subscription occurrences by result"},
		[]string{"result"},
	)
	SchedulerTickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{Namespace: namespace, Name: "scheduler_tick_seconds", Help: "Subscription scheduler tick duration"},
	)
)
