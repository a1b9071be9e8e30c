package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FillRequestsTotal counts Fill calls by gRPC status code
	FillRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adfiller_fill_requests_total",
			Help: "The total number of processed Fill requests",
		},
		[]string{"code"},
	)

	// FillDurationSeconds measures the latency of Fill requests
	FillDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "adfiller_fill_duration_seconds",
			Help:    "Duration of Fill requests",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
	)

	// FillResultSize tracks how many ads a single Fill returned
	FillResultSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "adfiller_fill_result_size",
			Help:    "Number of eligible ads returned per Fill request",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	// FillShortCircuitTotal counts queries that ended early on an empty category mask
	FillShortCircuitTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adfiller_fill_short_circuit_total",
			Help: "Total number of Fill queries that short-circuited on an empty mask",
		},
	)
)

var (
	// SnapshotRebuildsTotal counts inventory rebuilds by outcome
	SnapshotRebuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adfiller_snapshot_rebuilds_total",
			Help: "Total number of inventory snapshot rebuilds",
		},
		[]string{"status"},
	)

	// SnapshotBuildSeconds measures the time taken to build a filter index
	SnapshotBuildSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "adfiller_snapshot_build_seconds",
			Help:    "Time taken to build the bitmap filter index",
			Buckets: prometheus.DefBuckets,
		},
	)

	// SnapshotItems is the number of items in the published snapshot
	SnapshotItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "adfiller_snapshot_items",
			Help: "Number of items in the currently published inventory snapshot",
		},
	)

	// SnapshotVersion is the version of the published snapshot
	SnapshotVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "adfiller_snapshot_version",
			Help: "Version of the currently published inventory snapshot",
		},
	)
)

var (
	// WatcherReconnectsTotal counts failed connect or subscribe attempts
	WatcherReconnectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adfiller_watcher_reconnects_total",
			Help: "Total number of failed attempts to subscribe to catalog notifications",
		},
	)

	// WatcherNotificationsTotal counts keyspace notifications by outcome
	WatcherNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adfiller_watcher_notifications_total",
			Help: "Total number of catalog change notifications received",
		},
		[]string{"outcome"},
	)

	// ExtractionsTotal counts reconciliation cycles by outcome
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adfiller_extractions_total",
			Help: "Total number of catalog extract-and-publish cycles",
		},
		[]string{"status"},
	)

	// WatcherState reports the watcher state machine position
	WatcherState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "adfiller_watcher_state",
			Help: "Current watcher state (0=bootstrap, 1=connecting, 2=subscribed, 3=stopped)",
		},
	)
)

// ClockHour is the hour of day last sampled by the cached clock
var ClockHour = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "adfiller_clock_hour",
		Help: "Hour of day currently served by the cached clock",
	},
)

// RateLimitRequestsTotal counts rate limiter decisions
var RateLimitRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "adfiller_rate_limit_requests_total",
		Help: "Total number of requests seen by the rate limiter",
	},
	[]string{"status"},
)
