package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gitbook"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Trace metrics
	TraceDuration *prometheus.HistogramVec

	// Image metrics
	Resolutions   *prometheus.CounterVec
	ProbeRequests *prometheus.CounterVec
	ProbeDuration prometheus.Histogram
	CacheLookups  *prometheus.CounterVec

	// Document metrics
	Renders       *prometheus.CounterVec
	RenderedNodes prometheus.Histogram

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests  int64   `json:"total_requests"`
	TotalErrors    int64   `json:"total_errors"`
	Resolutions    int64   `json:"resolutions"`
	Probes         int64   `json:"probes"`
	ProbeFailures  int64   `json:"probe_failures"`
	CacheHits      int64   `json:"cache_hits"`
	CacheMisses    int64   `json:"cache_misses"`
	Renders        int64   `json:"renders"`
	TotalDuration  float64 `json:"total_duration_seconds"` // sum of all request durations
	RequestCount   int64   `json:"request_count"`          // count for averaging
	UptimeSeconds  float64 `json:"uptime_seconds"`
	AverageLatency float64 `json:"average_latency_seconds"`
}

// NewMetrics creates a metrics collector registered with reg. A nil reg
// uses the Prometheus default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_size_bytes",
				Help:      "HTTP request size in bytes",
				Buckets:   []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Trace metrics
		TraceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "trace_duration_seconds",
				Help:      "Duration of traced operations in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"name", "status"},
		),

		// Image metrics
		Resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "image_resolutions_total",
				Help:      "Total number of image resolutions",
			},
			[]string{"outcome"},
		),
		ProbeRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "image_probes_total",
				Help:      "Total number of remote image size probes",
			},
			[]string{"status"},
		),
		ProbeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "image_probe_duration_seconds",
				Help:      "Remote image probe duration in seconds",
				Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "image_size_cache_lookups_total",
				Help:      "Total number of image size cache lookups",
			},
			[]string{"backend", "result"},
		),

		// Document metrics
		Renders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "document_renders_total",
				Help:      "Total number of document renders",
			},
			[]string{"status"},
		),
		RenderedNodes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "document_rendered_nodes",
				Help:      "Number of nodes per rendered document",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uptime_seconds",
			Help:      "Process uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordTrace records the duration of a traced operation.
func (m *Metrics) RecordTrace(name string, errored bool, duration time.Duration) {
	m.TraceDuration.WithLabelValues(name, statusLabel(errored)).Observe(duration.Seconds())
}

// RecordResolution counts an image resolution by outcome
// ("resized", "passthrough" or "error").
func (m *Metrics) RecordResolution(outcome string) {
	m.Resolutions.WithLabelValues(outcome).Inc()

	m.mu.Lock()
	m.snapshot.Resolutions++
	m.mu.Unlock()
}

// RecordProbe records a remote size probe.
func (m *Metrics) RecordProbe(errored bool, duration time.Duration) {
	m.ProbeRequests.WithLabelValues(statusLabel(errored)).Inc()
	m.ProbeDuration.Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.Probes++
	if errored {
		m.snapshot.ProbeFailures++
	}
	m.mu.Unlock()
}

// RecordCacheLookup records a size cache hit or miss.
func (m *Metrics) RecordCacheLookup(backend string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(backend, result).Inc()

	m.mu.Lock()
	if hit {
		m.snapshot.CacheHits++
	} else {
		m.snapshot.CacheMisses++
	}
	m.mu.Unlock()
}

// RecordRender records a document render and the number of nodes rendered.
func (m *Metrics) RecordRender(errored bool, nodes int) {
	m.Renders.WithLabelValues(statusLabel(errored)).Inc()
	if !errored {
		m.RenderedNodes.Observe(float64(nodes))
	}

	m.mu.Lock()
	m.snapshot.Renders++
	m.mu.Unlock()
}

// GetSnapshot returns a copy of the tracked values.
func (m *Metrics) GetSnapshot() MetricsSnapshot {
	m.mu.RLock()
	snap := m.snapshot
	m.mu.RUnlock()

	snap.UptimeSeconds = time.Since(m.startTime).Seconds()
	if snap.RequestCount > 0 {
		snap.AverageLatency = snap.TotalDuration / float64(snap.RequestCount)
	}
	return snap
}
