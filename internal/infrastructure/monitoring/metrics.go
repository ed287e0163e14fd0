package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics manages the Prometheus metrics.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	RateLimitRejections *prometheus.CounterVec
	InflightRequests    prometheus.Gauge
	ResourceLoads       *prometheus.CounterVec
	ResourceLoadSeconds prometheus.Histogram
	SweepEvictions      *prometheus.CounterVec
	SweepReclaimedBytes prometheus.Counter
	SweepDuration       prometheus.Histogram
	PipelineWarnings    *prometheus.CounterVec
}

// NewMetrics creates and registers the Prometheus metrics on the default
// registry. Call it once per process; promauto panics on double registration.
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "papersynth_http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "papersynth_http_request_duration_seconds",
				Help:    "Latency of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		RateLimitRejections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "papersynth_rate_limit_rejections_total",
				Help: "Requests rejected by the per-client rate limiter.",
			},
			[]string{"key_kind"},
		),
		InflightRequests: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "papersynth_inflight_requests",
				Help: "Processing requests currently holding a concurrency slot.",
			},
		),
		ResourceLoads: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "papersynth_resource_loads_total",
				Help: "Lazy singleton load attempts by outcome.",
			},
			[]string{"result"},
		),
		ResourceLoadSeconds: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "papersynth_resource_load_seconds",
				Help:    "Duration of lazy singleton load attempts.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
			},
		),
		SweepEvictions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "papersynth_sweep_evictions_total",
				Help: "Workspaces removed by the eviction sweep, by pass.",
			},
			[]string{"pass"},
		),
		SweepReclaimedBytes: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "papersynth_sweep_reclaimed_bytes_total",
				Help: "Bytes reclaimed by the eviction sweep.",
			},
		),
		SweepDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "papersynth_sweep_duration_seconds",
				Help:    "Duration of eviction sweep iterations.",
				Buckets: prometheus.DefBuckets,
			},
		),
		PipelineWarnings: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "papersynth_pipeline_warnings_total",
				Help: "Non-fatal per-feature degradations during processing.",
			},
			[]string{"feature"},
		),
	}
}

// RecordRequest records metrics for a completed HTTP request.
func (m *Metrics) RecordRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordResourceLoad records a lazy singleton load attempt.
func (m *Metrics) RecordResourceLoad(result string, duration time.Duration) {
	m.ResourceLoads.WithLabelValues(result).Inc()
	m.ResourceLoadSeconds.Observe(duration.Seconds())
}

// RecordEviction records one workspace removed by the sweep.
func (m *Metrics) RecordEviction(pass string, bytes int64) {
	m.SweepEvictions.WithLabelValues(pass).Inc()
	m.SweepReclaimedBytes.Add(float64(bytes))
}
