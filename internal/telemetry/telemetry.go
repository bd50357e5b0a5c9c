package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the process-wide instrumentation surface. A nil *Metrics is a
// valid no-op receiver so tests and tools can run without a registry.
type Metrics struct {
	requests       *prometheus.CounterVec
	adapterCalls   *prometheus.CounterVec
	adapterLatency *prometheus.HistogramVec
	llmCalls       *prometheus.CounterVec
}

// New registers the metric set on reg under the given namespace.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "medisearch"
	}
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Chat requests by outcome.",
		}, []string{"outcome"}),
		adapterCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_calls_total",
			Help:      "Source adapter invocations by source and result.",
		}, []string{"source", "result"}),
		adapterLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "source_call_seconds",
			Help:      "Source adapter call latency.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		}, []string{"source"}),
		llmCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_calls_total",
			Help:      "LLM calls by operation and result.",
		}, []string{"operation", "result"}),
	}
}

// RecordRequest counts one finished chat request. outcome is one of
// "success", "error", "rejected".
func (m *Metrics) RecordRequest(outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
}

// RecordSourceCall records one adapter invocation.
func (m *Metrics) RecordSourceCall(source string, elapsed time.Duration, failed bool) {
	if m == nil {
		return
	}
	result := "ok"
	if failed {
		result = "failed"
	}
	m.adapterCalls.WithLabelValues(source, result).Inc()
	m.adapterLatency.WithLabelValues(source).Observe(elapsed.Seconds())
}

// RecordLLMCall records one provider round trip.
func (m *Metrics) RecordLLMCall(operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.llmCalls.WithLabelValues(operation, result).Inc()
}
