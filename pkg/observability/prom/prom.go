// Package prom implements the observability hooks with Prometheus
// collectors.
package prom

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/houndview/pkg/observability"
)

// Metrics holds the collectors. It implements every hook interface.
type Metrics struct {
	queries        *prometheus.CounterVec
	queryDuration  *prometheus.HistogramVec
	queryNodes     *prometheus.HistogramVec
	queryCancelled *prometheus.CounterVec

	cacheLookups *prometheus.CounterVec
	cacheBytes   *prometheus.CounterVec

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestErrors   *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		queries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "houndview_queries_total",
			Help: "Explore queries by search mode and outcome.",
		}, []string{"mode", "outcome"}),
		queryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "houndview_query_duration_seconds",
			Help:    "Explore query latency by search mode.",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
		queryNodes: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "houndview_query_nodes",
			Help:    "Nodes returned per explore query.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"mode"}),
		queryCancelled: f.NewCounterVec(prometheus.CounterOpts{
			Name: "houndview_queries_cancelled_total",
			Help: "Explore queries aborted before completion.",
		}, []string{"mode"}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "houndview_cache_lookups_total",
			Help: "Result cache lookups by search mode and result.",
		}, []string{"mode", "result"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "houndview_cache_written_bytes_total",
			Help: "Bytes written to the result cache.",
		}, []string{"mode"}),
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "houndview_api_requests_total",
			Help: "API requests by path and status.",
		}, []string{"method", "path", "status"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "houndview_api_request_duration_seconds",
			Help:    "API request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		requestErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "houndview_api_request_errors_total",
			Help: "API requests that failed without a response.",
		}, []string{"method", "path"}),
	}
}

// Register installs m as the global hooks.
func (m *Metrics) Register() {
	observability.SetQueryHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

func (m *Metrics) OnQueryStart(context.Context, string) {}

func (m *Metrics) OnQueryComplete(_ context.Context, mode string, nodes, _ int, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.queries.WithLabelValues(mode, outcome).Inc()
	m.queryDuration.WithLabelValues(mode).Observe(d.Seconds())
	if err == nil {
		m.queryNodes.WithLabelValues(mode).Observe(float64(nodes))
	}
}

func (m *Metrics) OnQueryCancelled(_ context.Context, mode string) {
	m.queryCancelled.WithLabelValues(mode).Inc()
}

func (m *Metrics) OnCacheHit(_ context.Context, mode string) {
	m.cacheLookups.WithLabelValues(mode, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, mode string) {
	m.cacheLookups.WithLabelValues(mode, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, mode string, size int) {
	m.cacheBytes.WithLabelValues(mode).Add(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, method, _, path string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *Metrics) OnError(_ context.Context, method, _, path string, _ error) {
	m.requestErrors.WithLabelValues(method, path).Inc()
}

var (
	_ observability.QueryHooks = (*Metrics)(nil)
	_ observability.CacheHooks = (*Metrics)(nil)
	_ observability.HTTPHooks  = (*Metrics)(nil)
)
