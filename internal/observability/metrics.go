package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides a centralized interface for collecting run metrics.
//
// The metrics system is built on Prometheus and tracks:
//   - LLM request performance per role and model
//   - Tool execution patterns and latencies
//   - Plan update decisions and reflection rounds
//   - Error rates categorized by component
type Metrics struct {
	// LLMRequestDuration measures LLM API call latency in seconds.
	// Labels: role (planner|assigner|answerer|executor), model
	LLMRequestDuration *prometheus.HistogramVec

	// LLMRequestCounter counts LLM requests by role, model, and status.
	// Labels: role, model, status (success|error)
	LLMRequestCounter *prometheus.CounterVec

	// ToolExecutionCounter counts tool invocations.
	// Labels: tool_name, status (success|error)
	ToolExecutionCounter *prometheus.CounterVec

	// ToolExecutionDuration measures tool execution time in seconds.
	// Labels: tool_name
	ToolExecutionDuration *prometheus.HistogramVec

	// PlanUpdateCounter counts plan-update decisions.
	// Labels: choice (continue|update|early_completion)
	PlanUpdateCounter *prometheus.CounterVec

	// ReflectionCounter counts reflection rounds started.
	ReflectionCounter prometheus.Counter

	// ErrorCounter tracks errors by component and error type.
	// Labels: component (planner|assigner|answerer|executor|orchestrator|tool), error_type
	ErrorCounter *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics with the default
// registry. This should be called once at application startup.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith creates all metrics against a specific registerer.
// Tests use this with a private registry to avoid duplicate registration.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LLMRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "workforce_llm_request_duration_seconds",
				Help:    "Duration of LLM API requests in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"role", "model"},
		),

		LLMRequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workforce_llm_requests_total",
				Help: "Total number of LLM requests by role, model, and status",
			},
			[]string{"role", "model", "status"},
		),

		ToolExecutionCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workforce_tool_executions_total",
				Help: "Total number of tool executions by tool name and status",
			},
			[]string{"tool_name", "status"},
		),

		ToolExecutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "workforce_tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"tool_name"},
		),

		PlanUpdateCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workforce_plan_updates_total",
				Help: "Total number of plan-update decisions by choice",
			},
			[]string{"choice"},
		),

		ReflectionCounter: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "workforce_reflections_total",
				Help: "Total number of reflection rounds started",
			},
		),

		ErrorCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workforce_errors_total",
				Help: "Total number of errors by component and error type",
			},
			[]string{"component", "error_type"},
		),
	}
}
