package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/noah-isme/promptarena-go-api/internal/evaluation"
	"github.com/noah-isme/promptarena-go-api/internal/harness"
)

const namespace = "promptarena"

var (
	registerOnce         sync.Once
	httpRequestsTotal    *prometheus.CounterVec
	httpLatencySeconds   *prometheus.HistogramVec
	httpErrorsTotal      *prometheus.CounterVec
	evaluationsTotal     *prometheus.CounterVec
	evaluationLatency    *prometheus.HistogramVec
	similarityFallbacks  *prometheus.CounterVec
	autoHelpTotal        *prometheus.CounterVec
	harnessCasesTotal    *prometheus.CounterVec
	eventsPublishedTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors shared by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_latency_seconds",
			Help:      "Latency distribution for API requests.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		evaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "total",
			Help:      "Completed prompt evaluations by module, tier and similarity backend.",
		}, []string{"module", "tier", "backend"})

		evaluationLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "duration_seconds",
			Help:      "Wall time of a single prompt evaluation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"module"})

		similarityFallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "similarity_fallbacks_total",
			Help:      "Similarity computations that fell back to the lexical scorer.",
		}, []string{"reason"})

		autoHelpTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluation",
			Name:      "auto_help_total",
			Help:      "Evaluations that attached auto-help guidance.",
		}, []string{"module"})

		harnessCasesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "harness",
			Name:      "cases_total",
			Help:      "Executed code test cases by outcome.",
		}, []string{"status"})

		eventsPublishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Evaluation events handed to the message broker.",
		}, []string{"subject", "outcome"})

		prometheus.MustRegister(
			httpRequestsTotal, httpLatencySeconds, httpErrorsTotal,
			evaluationsTotal, evaluationLatency, similarityFallbacks, autoHelpTotal,
			harnessCasesTotal, eventsPublishedTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// EventsPublished exposes the broker publish counter.
func EventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsPublishedTotal
}

// EvaluationMetrics records engine telemetry into Prometheus.
type EvaluationMetrics struct{}

// NewEvaluationMetrics registers the collectors and returns an engine observer.
func NewEvaluationMetrics() EvaluationMetrics {
	RegisterMetrics()
	return EvaluationMetrics{}
}

func (EvaluationMetrics) ObserveEvaluation(module evaluation.ModuleType, tier evaluation.FeedbackTier, backend evaluation.SimilarityBackend, duration time.Duration) {
	evaluationsTotal.WithLabelValues(string(module), string(tier), string(backend)).Inc()
	evaluationLatency.WithLabelValues(string(module)).Observe(duration.Seconds())
}

func (EvaluationMetrics) ObserveFallback(reason string) {
	similarityFallbacks.WithLabelValues(reason).Inc()
}

func (EvaluationMetrics) ObserveAutoHelp(module evaluation.ModuleType) {
	autoHelpTotal.WithLabelValues(string(module)).Inc()
}

// ObserveHarnessCase counts a finished code test case. It matches harness.CaseObserver.
func ObserveHarnessCase(status harness.Status) {
	RegisterMetrics()
	harnessCasesTotal.WithLabelValues(string(status)).Inc()
}

var _ evaluation.Observer = EvaluationMetrics{}
