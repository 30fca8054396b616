package metrics

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dawoncorp/policysearch/internal/core/domain"
)

// SearchMetrics exposes the HTTP server metrics plus per-search counters.
// It doubles as a ports.SearchEventPublisher so the engine feeds it the same
// observations it streams to external consumers.
type SearchMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	searchTotal      *prometheus.CounterVec
	searchDuration   *prometheus.HistogramVec
	searchResults    *prometheus.HistogramVec
	searchQuality    *prometheus.HistogramVec
	intentTotal      *prometheus.CounterVec
	cacheHitsTotal   *prometheus.CounterVec
	degradedTotal    *prometheus.CounterVec
	unavailableTotal *prometheus.CounterVec
}

func NewSearchMetrics(service string) *SearchMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "policysearch",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "policysearch",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "policysearch",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	searchTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "policysearch",
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Total completed searches by strategy and status.",
		},
		[]string{"service", "strategy", "status"},
	)
	searchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "policysearch",
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "End-to-end search duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "strategy"},
	)
	searchResults := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "policysearch",
			Subsystem: "search",
			Name:      "results",
			Help:      "Distribution of result counts per search.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	searchQuality := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "policysearch",
			Subsystem: "search",
			Name:      "quality",
			Help:      "Distribution of mean final scores per search.",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		},
		[]string{"service"},
	)
	intentTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "policysearch",
			Subsystem: "search",
			Name:      "intents_total",
			Help:      "Total searches by classified query intent.",
		},
		[]string{"service", "intent"},
	)
	cacheHitsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "policysearch",
			Subsystem: "search",
			Name:      "cache_hits_total",
			Help:      "Total searches served from the result cache.",
		},
		[]string{"service"},
	)
	degradedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "policysearch",
			Subsystem: "search",
			Name:      "degraded_total",
			Help:      "Total searches completed with one retrieval backend down.",
		},
		[]string{"service"},
	)
	unavailableTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "policysearch",
			Subsystem: "search",
			Name:      "unavailable_total",
			Help:      "Total searches failed because every requested backend was down.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		searchTotal,
		searchDuration,
		searchResults,
		searchQuality,
		intentTotal,
		cacheHitsTotal,
		degradedTotal,
		unavailableTotal,
	)

	return &SearchMetrics{
		registry:         registry,
		service:          service,
		requestTotal:     requestTotal,
		requestDuration:  requestDuration,
		requestInFlight:  requestInFlight,
		searchTotal:      searchTotal,
		searchDuration:   searchDuration,
		searchResults:    searchResults,
		searchQuality:    searchQuality,
		intentTotal:      intentTotal,
		cacheHitsTotal:   cacheHitsTotal,
		degradedTotal:    degradedTotal,
		unavailableTotal: unavailableTotal,
	}
}

func (m *SearchMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *SearchMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			m.service,
			r.Method,
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

// PublishSearchObserved records an observation into the local registry.
// Always nil error: metric recording cannot fail.
func (m *SearchMetrics) PublishSearchObserved(_ context.Context, obs domain.SearchObservation) error {
	m.RecordSearchObservation(obs)
	return nil
}

func (m *SearchMetrics) RecordSearchObservation(obs domain.SearchObservation) {
	strategy := string(obs.Strategy)
	if strategy == "" {
		strategy = "unknown"
	}
	status := string(obs.Status)
	if status == "" {
		status = "unknown"
	}
	intent := string(obs.Intent)
	if intent == "" {
		intent = "unknown"
	}

	m.searchTotal.WithLabelValues(m.service, strategy, status).Inc()
	m.searchDuration.WithLabelValues(m.service, strategy).Observe(obs.DurationMs / 1000.0)
	m.searchResults.WithLabelValues(m.service).Observe(float64(obs.ResultCount))
	m.searchQuality.WithLabelValues(m.service).Observe(obs.Quality)
	m.intentTotal.WithLabelValues(m.service, intent).Inc()

	if obs.CacheHit {
		m.cacheHitsTotal.WithLabelValues(m.service).Inc()
	}
	switch obs.Status {
	case domain.SearchStatusDegraded:
		m.degradedTotal.WithLabelValues(m.service).Inc()
	case domain.SearchStatusUnavailable:
		m.unavailableTotal.WithLabelValues(m.service).Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
