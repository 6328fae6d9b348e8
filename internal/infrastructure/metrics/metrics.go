package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Pipeline
	GenerationRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "docify_generation_requests_total",
			Help: "Total number of generation requests accepted",
		},
	)
	StageTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docify_stage_transitions_total",
			Help: "Number of pipeline stage transitions",
		},
		[]string{"from", "to"},
	)
	PipelineDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docify_pipeline_duration_seconds",
			Help:    "Histogram of end-to-end pipeline durations in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8), // 1s..128s
		},
	)

	// Validation / fallback
	ValidationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docify_validation_runs_total",
			Help: "Schema validation runs by result",
		},
		[]string{"result"}, // result: valid|invalid
	)
	FallbackConstructions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "docify_fallback_constructions_total",
			Help: "Documents synthesized from the request after invalid model output",
		},
	)

	// LLM
	LLMRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docify_llm_requests_total",
			Help: "Number of LLM requests by model",
		},
		[]string{"model"},
	)
	LLMRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "docify_llm_retries_total",
			Help: "Transient-overload retries of the LLM call",
		},
	)
	LLMDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docify_llm_duration_seconds",
			Help:    "Duration of LLM calls",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		},
		[]string{"model"},
	)

	// Document writes
	DocWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docify_doc_writes_total",
			Help: "Document batch-update attempts by result",
		},
		[]string{"result"}, // result: ok|permission_denied|conflict|error
	)

	// Salvage store ops
	SalvageOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docify_salvage_ops_total",
			Help: "Salvage store operations performed",
		},
		[]string{"op"}, // op: get|put|list
	)

	// Errors
	Errors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docify_errors_total",
			Help: "Errors encountered in components",
		},
		[]string{"component", "type"},
	)
)

func init() {
	prometheus.MustRegister(
		GenerationRequests,
		StageTransitions,
		PipelineDurationSeconds,

		ValidationRuns,
		FallbackConstructions,

		LLMRequests,
		LLMRetries,
		LLMDurationSeconds,

		DocWrites,
		SalvageOps,
		Errors,
	)
}

func StartMetricsServer() {
	http.Handle("/metrics", promhttp.Handler())
	_ = http.ListenAndServe(":2112", nil)
}

// Pipeline
func IncGenerationRequest() {
	GenerationRequests.Inc()
}

func IncStageTransition(from, to string) {
	StageTransitions.WithLabelValues(from, to).Inc()
}

func ObservePipelineDuration(d time.Duration) {
	PipelineDurationSeconds.Observe(d.Seconds())
}

// Validation
func IncValidationRun(result string) {
	ValidationRuns.WithLabelValues(result).Inc()
}

func IncFallbackConstruction() {
	FallbackConstructions.Inc()
}

// LLM
func IncLLMRequest(model string) {
	LLMRequests.WithLabelValues(model).Inc()
}

func IncLLMRetry() {
	LLMRetries.Inc()
}

func ObserveLLMDuration(model string, d time.Duration) {
	LLMDurationSeconds.WithLabelValues(model).Observe(d.Seconds())
}

// Doc writes
func IncDocWrite(result string) {
	DocWrites.WithLabelValues(result).Inc()
}

// Salvage
func IncSalvageOp(op string) {
	SalvageOps.WithLabelValues(op).Inc()
}

// Errors
func IncError(component, typ string) {
	Errors.WithLabelValues(component, typ).Inc()
}
