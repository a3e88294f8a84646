package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/entitygraph/pkg/observability"
)

// Metrics holds the Prometheus collectors of one server. It implements the
// observability hooks so the pipeline and cache report into it.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	TransformNodes   prometheus.Histogram
	TransformDemo    prometheus.Counter
	LayoutsInFlight  prometheus.Gauge
	LayoutDuration   prometheus.Histogram
	LayoutTicks      prometheus.Histogram
	LayoutErrors     prometheus.Counter
	RenderDuration   *prometheus.HistogramVec
	RenderSizeBytes  *prometheus.HistogramVec
	RenderErrors     *prometheus.CounterVec
	CacheLookups     *prometheus.CounterVec
	CacheWrittenSize *prometheus.HistogramVec

	LiveClients prometheus.Gauge
	Broadcasts  *prometheus.CounterVec
}

// NewMetrics creates the collectors on a private registry, together with
// the Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "entitygraph_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "entitygraph_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		TransformNodes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "entitygraph_transform_nodes",
			Help:    "Nodes derived per transform",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		TransformDemo: f.NewCounter(prometheus.CounterOpts{
			Name: "entitygraph_transform_demo_total",
			Help: "Transforms that fell back to the demo dataset",
		}),
		LayoutsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "entitygraph_layouts_in_flight",
			Help: "Simulations currently running",
		}),
		LayoutDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "entitygraph_layout_duration_seconds",
			Help:    "Time to settle a simulation",
			Buckets: prometheus.DefBuckets,
		}),
		LayoutTicks: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "entitygraph_layout_ticks",
			Help:    "Simulation steps per layout",
			Buckets: prometheus.LinearBuckets(0, 50, 10),
		}),
		LayoutErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "entitygraph_layout_errors_total",
			Help: "Layouts aborted with an error",
		}),
		RenderDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "entitygraph_render_duration_seconds",
			Help:    "Time to render one artifact",
			Buckets: prometheus.DefBuckets,
		}, []string{"format"}),
		RenderSizeBytes: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "entitygraph_render_size_bytes",
			Help:    "Size of rendered artifacts",
			Buckets: []float64{1000, 10000, 100000, 1000000, 10000000},
		}, []string{"format"}),
		RenderErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "entitygraph_render_errors_total",
			Help: "Renders that failed",
		}, []string{"format"}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "entitygraph_cache_lookups_total",
			Help: "Cache lookups by key type and result",
		}, []string{"type", "result"}),
		CacheWrittenSize: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "entitygraph_cache_write_size_bytes",
			Help:    "Size of cache writes",
			Buckets: []float64{1000, 10000, 100000, 1000000, 10000000},
		}, []string{"type"}),

		LiveClients: f.NewGauge(prometheus.GaugeOpts{
			Name: "entitygraph_live_clients",
			Help: "Connected websocket clients",
		}),
		Broadcasts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "entitygraph_broadcasts_total",
			Help: "Dataset updates pushed to live clients",
		}, []string{"dataset"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Register installs m as the global pipeline, cache and server hooks.
func (m *Metrics) Register() {
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetServerHooks(m)
}

// =============================================================================
// Pipeline Hooks
// =============================================================================

func (m *Metrics) OnTransformComplete(_ context.Context, _, nodes, _ int, demo bool) {
	m.TransformNodes.Observe(float64(nodes))
	if demo {
		m.TransformDemo.Inc()
	}
}

func (m *Metrics) OnLayoutStart(context.Context, int) {
	m.LayoutsInFlight.Inc()
}

func (m *Metrics) OnLayoutComplete(_ context.Context, ticks int, d time.Duration, err error) {
	m.LayoutsInFlight.Dec()
	if err != nil {
		m.LayoutErrors.Inc()
		return
	}
	m.LayoutDuration.Observe(d.Seconds())
	m.LayoutTicks.Observe(float64(ticks))
}

func (m *Metrics) OnRenderStart(context.Context, string) {}

func (m *Metrics) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	if err != nil {
		m.RenderErrors.WithLabelValues(format).Inc()
		return
	}
	m.RenderDuration.WithLabelValues(format).Observe(d.Seconds())
	m.RenderSizeBytes.WithLabelValues(format).Observe(float64(size))
}

// =============================================================================
// Cache Hooks
// =============================================================================

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.CacheLookups.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheLookups.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.CacheWrittenSize.WithLabelValues(keyType).Observe(float64(size))
}

// =============================================================================
// Server Hooks
// =============================================================================

func (m *Metrics) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) OnLiveClients(n int) {
	m.LiveClients.Set(float64(n))
}

func (m *Metrics) OnBroadcast(datasetID string, recipients int) {
	m.Broadcasts.WithLabelValues(datasetID).Add(float64(recipients))
}

var (
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.ServerHooks   = (*Metrics)(nil)
)
