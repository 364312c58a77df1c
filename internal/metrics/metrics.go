package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeclash_events_total",
			Help: "Total number of producer submissions received",
		},
		[]string{"endpoint", "status"},
	)

	ValidationErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codeclash_validation_errors_total",
			Help: "Total number of submissions rejected at the boundary",
		},
	)

	// Storage metrics
	StorageDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "codeclash_storage_duration_seconds",
			Help:    "Duration of event store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	StorageErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codeclash_storage_errors_total",
			Help: "Total number of event store failures",
		},
	)

	// Broadcast metrics
	ObserverConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "codeclash_observer_connections",
			Help: "Number of currently connected observers",
		},
	)

	BroadcastsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codeclash_broadcasts_total",
			Help: "Total number of payloads broadcast to observers",
		},
	)

	BroadcastDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codeclash_broadcast_drops_total",
			Help: "Total number of per-connection deliveries skipped or failed",
		},
	)

	// Rate limiting metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codeclash_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"client"},
	)
)
