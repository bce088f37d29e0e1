package middleware

import (
	"fmt"
	"net/http"
	"time"

	"ms-fidelity/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the portal's Prometheus collectors on a private registry.
type Metrics struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	durations   *prometheus.HistogramVec
	enrollments *prometheus.CounterVec
	scans       prometheus.Counter
	conversions prometheus.Counter
	log         *logger.Logger
}

func NewMetrics(namespace string, log *logger.Logger) *Metrics {
	if namespace == "" {
		namespace = "fidelity"
	}
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		enrollments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrollment_attempts_total",
			Help:      "Enrollment attempts by outcome.",
		}, []string{"outcome"}),
		scans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discovery_scans_total",
			Help:      "Pages opened through a discovery code.",
		}),
		conversions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_conversions_total",
			Help:      "Scans attributed to a new card.",
		}),
		log: log,
	}
	registry.MustRegister(m.requests, m.durations, m.enrollments, m.scans, m.conversions,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return m
}

// Middleware records every request and logs it through the API category.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		duration := time.Since(start)
		m.requests.WithLabelValues(route, r.Method, fmt.Sprint(recorder.status)).Inc()
		m.durations.WithLabelValues(route, r.Method).Observe(duration.Seconds())
		m.log.LogAPI(r.Method, r.URL.Path, fmt.Sprint(recorder.status), duration.String())
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) EnrollmentAttempt(outcome string) {
	m.enrollments.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ScanRecorded() {
	m.scans.Inc()
}

func (m *Metrics) ScanConverted() {
	m.conversions.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// Flush keeps SSE streams working behind the recorder.
func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
