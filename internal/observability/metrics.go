package observability

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry. All methods are safe on a nil receiver so
// callers never need to check whether metrics are enabled.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	decomposeOutcomes *prometheus.CounterVec
	llmLatency        *prometheus.HistogramVec
	speechRequests    *prometheus.CounterVec
	speechLatency     prometheus.Histogram
	rateLimitErrors   prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mate_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mate_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mate_api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		decomposeOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mate_decompose_total",
			Help: "Decompose calls by engine/outcome. Every non-ok outcome was answered with the fallback plan.",
		}, []string{"engine", "outcome"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mate_llm_request_duration_seconds",
			Help:    "LLM request latency in seconds by engine/model/status.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"engine", "model", "status"}),
		speechRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mate_speech_requests_total",
			Help: "Speech-to-text requests by status.",
		}, []string{"status"}),
		speechLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mate_speech_request_duration_seconds",
			Help:    "Speech-to-text latency in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		rateLimitErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mate_rate_limit_errors_total",
			Help: "Rate limiter backend errors (requests were allowed).",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.decomposeOutcomes,
		m.llmLatency,
		m.speechRequests,
		m.speechLatency,
		m.rateLimitErrors,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on a dedicated listener until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	if m == nil || addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	s := strconv.Itoa(status)
	m.apiRequests.WithLabelValues(method, route, s).Inc()
	m.apiLatency.WithLabelValues(method, route, s).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) IncDecompose(engine, outcome string) {
	if m == nil {
		return
	}
	m.decomposeOutcomes.WithLabelValues(engine, outcome).Inc()
}

func (m *Metrics) ObserveLLM(engine, model, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(engine, model, status).Observe(dur.Seconds())
}

func (m *Metrics) ObserveSpeech(status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.speechRequests.WithLabelValues(status).Inc()
	m.speechLatency.Observe(dur.Seconds())
}

func (m *Metrics) IncRateLimitError() {
	if m == nil {
		return
	}
	m.rateLimitErrors.Inc()
}
