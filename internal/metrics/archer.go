package metrics

import "github.com/prometheus/client_golang/prometheus"

// Archer platform Prometheus metrics.
var (
	ArcherRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grclookup",
			Name:      "archer_requests_total",
			Help:      "Total number of outbound platform requests",
		},
		[]string{"operation", "status"},
	)

	ArcherRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "grclookup",
			Name:      "archer_request_duration_seconds",
			Help:      "Outbound platform request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)

	ProbeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grclookup",
			Name:      "capability_probe_total",
			Help:      "Fast search capability probes by outcome",
		},
		[]string{"result"}, // "supported" / "unsupported"
	)

	MetadataCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "grclookup",
			Name:      "metadata_cache_total",
			Help:      "Metadata cache hits and misses",
		},
		[]string{"cache", "result"}, // cache: applications/fields/values/endpoints
	)

	AmbiguousMatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "grclookup",
			Name:      "ambiguous_matches_total",
			Help:      "Input values that matched more than one record",
		},
	)
)

var archerMetricsRegistered bool

// RegisterArcherMetrics registers Prometheus platform metrics. Must be called once from main.
func RegisterArcherMetrics() {
	if archerMetricsRegistered {
		return
	}
	prometheus.MustRegister(ArcherRequestsTotal)
	prometheus.MustRegister(ArcherRequestDuration)
	prometheus.MustRegister(ProbeTotal)
	prometheus.MustRegister(MetadataCacheTotal)
	prometheus.MustRegister(AmbiguousMatchesTotal)
	archerMetricsRegistered = true
}
