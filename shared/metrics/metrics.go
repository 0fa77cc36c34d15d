// Package metrics exposes Prometheus instrumentation for the HTTP server and
// its upstream clients.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Upstream services and call outcomes used as label values.
const (
	ServiceYouTube    = "youtube"
	ServiceTranscript = "transcript"
	ServiceGemini     = "gemini"
	ServiceStore      = "store"
	ServiceProxy      = "proxy"

	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds the service's collectors on a private registry so tests can
// build as many instances as they like.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	UpstreamCalls    *prometheus.CounterVec
	ProxyFallbacks   prometheus.Counter
	ProxyCheckStatus prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route and status code",
	}, []string{"method", "route", "status"})

	m.RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"method", "route"})

	m.UpstreamCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_calls_total",
		Help: "Calls to external services by outcome",
	}, []string{"service", "outcome"})

	m.ProxyFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "transcript_proxy_fallbacks_total",
		Help: "Transcript fetches retried directly after the proxy attempt failed",
	})

	m.ProxyCheckStatus = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "proxy_check_up",
		Help: "1 if the last scheduled proxy check succeeded, 0 otherwise",
	})

	m.registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.UpstreamCalls,
		m.ProxyFallbacks,
		m.ProxyCheckStatus,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveUpstream records one call to service; a nil err counts as success.
func (m *Metrics) ObserveUpstream(service string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.UpstreamCalls.WithLabelValues(service, outcome).Inc()
}

// Middleware records request counts and latency keyed by the matched route
// template, so /delete_summary/:id stays one series.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method

		m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
