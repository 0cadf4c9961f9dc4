// Package metrics exposes Prometheus collectors for the HTTP server, the
// stores and report generation.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tithe"

// Metrics owns a private registry so tests and multiple servers never collide.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpLatency    *prometheus.HistogramVec
	storeOps       *prometheus.CounterVec
	reportDuration *prometheus.HistogramVec
	reportCache    *prometheus.CounterVec
	exports        *prometheus.CounterVec
	changes        *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests processed",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Store operations by store, operation and outcome",
		}, []string{"store", "operation", "outcome"}),
		reportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_duration_seconds",
			Help:      "Time spent aggregating reports",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"dimension", "kind"}),
		reportCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_lookups_total",
			Help:      "Report cache lookups by result",
		}, []string{"result"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Report exports by outcome",
		}, []string{"outcome"}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "change_messages_total",
			Help:      "Change notifications by entity, action and direction",
		}, []string{"entity", "action", "direction"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpLatency,
		m.storeOps,
		m.reportDuration,
		m.reportCache,
		m.exports,
		m.changes,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveStoreOp records a store operation outcome.
func (m *Metrics) ObserveStoreOp(store, operation string, err error) {
	m.storeOps.WithLabelValues(store, operation, outcome(err)).Inc()
}

// ObserveReport records how long a report or comparison took to build.
func (m *Metrics) ObserveReport(dimension, kind string, d time.Duration) {
	m.reportDuration.WithLabelValues(dimension, kind).Observe(d.Seconds())
}

// ObserveCacheLookup records a report cache hit or miss.
func (m *Metrics) ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.reportCache.WithLabelValues(result).Inc()
}

// ObserveExport records the outcome of one export run.
func (m *Metrics) ObserveExport(err error) {
	m.exports.WithLabelValues(outcome(err)).Inc()
}

// ObserveChange records a change notification published ("out") or consumed ("in").
func (m *Metrics) ObserveChange(entity, action, direction string) {
	m.changes.WithLabelValues(entity, action, direction).Inc()
}

// Middleware records request counts and latency. route names the matched
// pattern so ids in paths do not explode label cardinality.
func (m *Metrics) Middleware(route func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(recorder, r)

			name := route(r)
			m.httpRequests.WithLabelValues(r.Method, name, strconv.Itoa(recorder.status)).Inc()
			m.httpLatency.WithLabelValues(r.Method, name).Observe(time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(statusCode int) {
	s.status = statusCode
	s.ResponseWriter.WriteHeader(statusCode)
}
