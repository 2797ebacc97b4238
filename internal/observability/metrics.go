package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "resume_matcher"

// Metrics holds the Prometheus collectors of the service on a private registry.
// All record methods are safe on a nil *Metrics so components can run without metrics.
type Metrics struct {
	registry *prometheus.Registry

	analyses           *prometheus.CounterVec
	analysisDuration   prometheus.Histogram
	scores             prometheus.Histogram
	keywordSources     *prometheus.CounterVec
	signalFallbacks    *prometheus.CounterVec
	embeddingFallbacks prometheus.Counter
	suggestionAttempts *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// NewMetrics creates the collectors on a fresh registry that also carries the Go runtime collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	auto := promauto.With(reg)
	return &Metrics{
		registry: reg,
		analyses: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Analyses by outcome (success, input_validation, quality_gate, service_unavailable, internal).",
		}, []string{"outcome"}),
		analysisDuration: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "End-to-end analysis latency.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}),
		scores: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "similarity_score",
			Help:      "Distribution of returned similarity scores.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		keywordSources: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keyword_extractions_total",
			Help:      "Keyword extractions by source (llm, fallback).",
		}, []string{"source"}),
		signalFallbacks: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signal_fallbacks_total",
			Help:      "Similarity signals that failed and contributed their neutral value.",
		}, []string{"signal"}),
		embeddingFallbacks: auto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_fallbacks_total",
			Help:      "Remote embedding calls that failed and were served by the local embedder.",
		}),
		suggestionAttempts: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggestion_attempts_total",
			Help:      "Calls to the generative service for suggestions by prompt tier and outcome.",
		}, []string{"tier", "outcome"}),
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "status"}),
		httpDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveAnalysis records the outcome and latency of one analysis.
func (m *Metrics) ObserveAnalysis(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.analyses.WithLabelValues(outcome).Inc()
	m.analysisDuration.Observe(d.Seconds())
}

// ObserveScore records a returned similarity score.
func (m *Metrics) ObserveScore(score float64) {
	if m == nil {
		return
	}
	m.scores.Observe(score)
}

// KeywordSource counts which strategy produced a keyword set.
func (m *Metrics) KeywordSource(source string) {
	if m == nil {
		return
	}
	m.keywordSources.WithLabelValues(source).Inc()
}

// SignalFallback counts a similarity signal that fell back to its neutral value.
func (m *Metrics) SignalFallback(signal string) {
	if m == nil {
		return
	}
	m.signalFallbacks.WithLabelValues(signal).Inc()
}

// EmbeddingFallback counts a remote embedding call served by the local embedder.
func (m *Metrics) EmbeddingFallback() {
	if m == nil {
		return
	}
	m.embeddingFallbacks.Inc()
}

// SuggestionAttempt counts one suggestion call.
func (m *Metrics) SuggestionAttempt(tier, outcome string) {
	if m == nil {
		return
	}
	m.suggestionAttempts.WithLabelValues(tier, outcome).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}
