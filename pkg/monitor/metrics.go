package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus collectors fed by Monitor and MemoryManager.
type Metrics struct {
	OperationDuration *prometheus.HistogramVec
	OperationErrors   *prometheus.CounterVec
	CacheRequests     *prometheus.CounterVec
	CacheHitRate      prometheus.Gauge
	HeapBytes         prometheus.Gauge
	MemoryCleanups    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered, which is what tests usually want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "varscan_operation_seconds",
			Help:    "Time spent in an instrumented operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),

		OperationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "varscan_operation_errors_total",
			Help: "Total number of errors recorded per operation.",
		}, []string{"operation"}),

		CacheRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "varscan_cache_requests_total",
			Help: "Total number of result cache lookups by outcome.",
		}, []string{"result"}),

		CacheHitRate: factory.NewGauge(prometheus.GaugeOpts{
			Name: "varscan_cache_hit_rate",
			Help: "Smoothed result cache hit rate between 0 and 1.",
		}),

		HeapBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "varscan_heap_bytes",
			Help: "Heap bytes in use at the last memory sample.",
		}),

		MemoryCleanups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "varscan_memory_cleanups_total",
			Help: "Total number of cleanup rounds triggered by memory pressure.",
		}, []string{"level"}),
	}
}
