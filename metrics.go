package swapicache

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector exports the fetch lifecycle as Prometheus metrics.
// All methods are no-ops on a nil receiver.
type MetricsCollector struct {
	fetchesTotal     *prometheus.CounterVec
	fetchDuration    *prometheus.HistogramVec
	fetchesInFlight  prometheus.Gauge
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	cacheSize        prometheus.Gauge
	cacheSizeMu      sync.Mutex
	lastCacheSize    int
	coalescedWaiters *prometheus.CounterVec
	payloadBytes     prometheus.Counter
	errorsTotal      *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetricsCollector creates a collector on a fresh registry.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.NewRegistry())
}

// NewMetricsCollectorWithRegistry creates a collector registered on registry.
func NewMetricsCollectorWithRegistry(registry *prometheus.Registry) *MetricsCollector {
	factory := promauto.With(registry)
	return &MetricsCollector{
		fetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swapicache_fetches_total",
				Help: "Total number of remote fetches by resource and outcome",
			},
			[]string{"resource", "outcome"},
		),
		fetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "swapicache_fetch_duration_seconds",
				Help:    "Duration of remote fetches in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"resource", "outcome"},
		),
		fetchesInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "swapicache_fetches_in_flight",
				Help: "Number of remote fetches currently in flight",
			},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swapicache_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"resource"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swapicache_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"resource"},
		),
		cacheSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "swapicache_cache_size",
				Help: "Current number of entries in cache",
			},
		),
		coalescedWaiters: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swapicache_coalesced_waiters_total",
				Help: "Total number of callers that joined an in-flight fetch",
			},
			[]string{"resource"},
		),
		payloadBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "swapicache_payload_bytes_total",
				Help: "Total serialized size of fetched documents",
			},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "swapicache_errors_total",
				Help: "Total number of classified fetch failures",
			},
			[]string{"kind", "status_code"},
		),
		registry: registry,
	}
}

// RecordFetch records one remote fetch with its outcome ("ok" or an ErrorKind).
func (mc *MetricsCollector) RecordFetch(resource, outcome string, duration time.Duration) {
	if mc == nil {
		return
	}

	mc.fetchesTotal.WithLabelValues(resource, outcome).Inc()
	mc.fetchDuration.WithLabelValues(resource, outcome).Observe(duration.Seconds())
}

// RecordFetchStart increments the in-flight gauge.
func (mc *MetricsCollector) RecordFetchStart() {
	if mc == nil {
		return
	}

	mc.fetchesInFlight.Inc()
}

// RecordFetchEnd decrements the in-flight gauge.
func (mc *MetricsCollector) RecordFetchEnd() {
	if mc == nil {
		return
	}

	mc.fetchesInFlight.Dec()
}

// RecordCacheHit increments cache hit counter.
func (mc *MetricsCollector) RecordCacheHit(resource string) {
	if mc == nil {
		return
	}

	mc.cacheHits.WithLabelValues(resource).Inc()
}

// RecordCacheMiss increments cache miss counter.
func (mc *MetricsCollector) RecordCacheMiss(resource string) {
	if mc == nil {
		return
	}

	mc.cacheMisses.WithLabelValues(resource).Inc()
}

// RecordCacheSize raises the cache size gauge. Smaller observations are
// stale reads of a store that only grows and are dropped.
func (mc *MetricsCollector) RecordCacheSize(size int) {
	if mc == nil {
		return
	}

	mc.cacheSizeMu.Lock()
	defer mc.cacheSizeMu.Unlock()

	if size < mc.lastCacheSize {
		return
	}
	mc.lastCacheSize = size
	mc.cacheSize.Set(float64(size))
}

// RecordCoalesced increments the counter of callers served by another caller's fetch.
func (mc *MetricsCollector) RecordCoalesced(resource string) {
	if mc == nil {
		return
	}

	mc.coalescedWaiters.WithLabelValues(resource).Inc()
}

// RecordPayload adds a fetched document size.
func (mc *MetricsCollector) RecordPayload(bytes int) {
	if mc == nil {
		return
	}

	mc.payloadBytes.Add(float64(bytes))
}

// RecordError increments error counter by kind.
func (mc *MetricsCollector) RecordError(kind ErrorKind, statusCode int) {
	if mc == nil {
		return
	}

	mc.errorsTotal.WithLabelValues(string(kind), strconv.Itoa(statusCode)).Inc()
}

// Registry exposes the underlying prometheus registry.
func (mc *MetricsCollector) Registry() *prometheus.Registry {
	if mc == nil {
		return nil
	}
	return mc.registry
}
