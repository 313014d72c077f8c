package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/uniroom-api/internal/models"
	"github.com/noah-isme/uniroom-api/pkg/jobs"
)

// MetricsSnapshot is a compact view of process counters for the status endpoint.
type MetricsSnapshot struct {
	CacheHitRatio            float64               `json:"cacheHitRatio"`
	CacheHits                uint64                `json:"cacheHits"`
	CacheMisses              uint64                `json:"cacheMisses"`
	RequestsTotal            uint64                `json:"requestsTotal"`
	AverageRequestDurationMs float64               `json:"averageRequestDurationMs"`
	ConflictChecks           uint64                `json:"conflictChecks"`
	ConflictsDetected        uint64                `json:"conflictsDetected"`
	Goroutines               int                   `json:"goroutines"`
	Queues                   map[string]jobs.Stats `json:"queues,omitempty"`
	GeneratedAt              time.Time             `json:"generatedAt"`
}

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	cacheLatency     prometheus.Observer
	cacheWrite       prometheus.Observer
	cacheHitRatio    prometheus.Gauge
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	conflictChecks   *prometheus.CounterVec
	requestDecisions *prometheus.CounterVec
	sweptRequests    prometheus.Counter

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	conflictCheckCount   uint64
	conflictHitCount     uint64

	queueMu sync.RWMutex
	queues  map[string]func() jobs.Stats
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	conflictChecks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_conflict_checks_total",
		Help: "Conflict checks by dimension and verdict",
	}, []string{"dimension", "result"})

	requestDecisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "room_request_decisions_total",
		Help: "Room request review outcomes",
	}, []string{"decision"})

	sweptRequests := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "room_requests_expired_total",
		Help: "Pending room requests closed by the sweeper",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		conflictChecks, requestDecisions, sweptRequests, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:         registry,
		handler:          handler,
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		cacheLatency:     cacheLatency,
		cacheWrite:       cacheWrite,
		cacheHitRatio:    cacheHitRatio,
		cacheHits:        cacheHits,
		cacheMisses:      cacheMisses,
		conflictChecks:   conflictChecks,
		requestDecisions: requestDecisions,
		sweptRequests:    sweptRequests,
		queues:           make(map[string]func() jobs.Stats),
	}
}

// TrackQueue exports the backlog and counters of a background queue.
func (m *MetricsService) TrackQueue(name string, stats func() jobs.Stats) {
	if m == nil || stats == nil {
		return
	}
	m.queueMu.Lock()
	defer m.queueMu.Unlock()
	if _, exists := m.queues[name]; exists {
		return
	}
	m.queues[name] = stats

	labels := prometheus.Labels{"queue": name}
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "job_queue_pending",
			Help:        "Jobs buffered and waiting for a worker",
			ConstLabels: labels,
		}, func() float64 { return float64(stats().Pending) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "job_queue_processed_total",
			Help:        "Jobs handled successfully",
			ConstLabels: labels,
		}, func() float64 { return float64(stats().Processed) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "job_queue_failed_total",
			Help:        "Jobs dropped after exhausting retries",
			ConstLabels: labels,
		}, func() float64 { return float64(stats().Failed) }),
	)
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordConflictCheck counts one conflict check verdict.
func (m *MetricsService) RecordConflictCheck(dimension models.ConflictDimension, conflict bool) {
	if m == nil {
		return
	}
	result := "clear"
	if conflict {
		result = "conflict"
		atomic.AddUint64(&m.conflictHitCount, 1)
	}
	m.conflictChecks.WithLabelValues(string(dimension), result).Inc()
	atomic.AddUint64(&m.conflictCheckCount, 1)
}

// RecordRequestDecision counts a review outcome: approved, rejected or conflict.
func (m *MetricsService) RecordRequestDecision(decision string) {
	if m == nil {
		return
	}
	m.requestDecisions.WithLabelValues(decision).Inc()
}

// RecordExpiredRequests adds n sweeper rejections.
func (m *MetricsService) RecordExpiredRequests(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sweptRequests.Add(float64(n))
}

// Snapshot returns aggregated metrics suitable for the status endpoint.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	totalLookups := hits + misses
	if totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var queues map[string]jobs.Stats
	m.queueMu.RLock()
	if len(m.queues) > 0 {
		queues = make(map[string]jobs.Stats, len(m.queues))
		for name, stats := range m.queues {
			queues[name] = stats()
		}
	}
	m.queueMu.RUnlock()

	return MetricsSnapshot{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		ConflictChecks:           atomic.LoadUint64(&m.conflictCheckCount),
		ConflictsDetected:        atomic.LoadUint64(&m.conflictHitCount),
		Goroutines:               runtime.NumGoroutine(),
		Queues:                   queues,
		GeneratedAt:              time.Now().UTC(),
	}
}
