package agent

import (
	"context"
	"strings"
	"time"

	"github.com/haasonsaas/workforce/internal/observability"
)

// Gateway is the single place that talks to the underlying model. Role
// components consume the returned final text and append the run record to the
// ledger's trajectory; nothing else crosses the boundary.
//
// A gateway carries one set of instructions (system prompt) at a time;
// SetInstructions replaces it for subsequent Run calls.
type Gateway struct {
	provider     LLMProvider
	config       GatewayConfig
	instructions string
}

// GatewayConfig configures a single gateway instance.
type GatewayConfig struct {
	// Model is the model identifier passed to the provider.
	// If empty, the provider's default model is used.
	Model string

	// Timeout bounds each provider call. 0 means no gateway-level deadline.
	Timeout time.Duration

	// MaxTokens limits response length. 0 uses the provider default.
	MaxTokens int

	// Role labels metrics and log records (planner, assigner, answerer, executor).
	Role string

	// Logger receives gateway diagnostics. Nil disables logging.
	Logger *observability.Logger

	// Metrics receives request counters and latencies. Nil disables metrics.
	Metrics *observability.Metrics
}

// RunResult is what a single gateway invocation produces: the model's final
// text plus a record of the raw interaction for the trajectory.
type RunResult struct {
	// FinalOutput is the model's response text, whitespace-trimmed.
	FinalOutput string

	// Record captures the raw interaction for post-hoc inspection.
	Record RunRecord
}

// RunRecord captures one LLM interaction. Appended to the ledger trajectory;
// never consulted for control flow.
type RunRecord struct {
	// Provider and Model identify the backend that served the call.
	Provider string `json:"provider"`
	Model    string `json:"model"`

	// Instructions is the system prompt in effect for the call.
	Instructions string `json:"instructions,omitempty"`

	// Prompt is the user prompt.
	Prompt string `json:"prompt"`

	// Output is the raw final text produced by the model.
	Output string `json:"output"`

	// Steps holds the tool calls issued during a tool-loop run, in order.
	Steps []ToolStep `json:"steps,omitempty"`

	// StartedAt and Duration bound the interaction.
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// ToolStep is one tool invocation inside a tool-loop run.
type ToolStep struct {
	Call   ToolCall   `json:"call"`
	Result ToolResult `json:"result"`
}

// NewGateway creates a gateway over the given provider.
func NewGateway(provider LLMProvider, config GatewayConfig) *Gateway {
	return &Gateway{provider: provider, config: config}
}

// SetInstructions replaces the system prompt used for subsequent Run calls.
func (g *Gateway) SetInstructions(system string) {
	g.instructions = system
}

// Instructions returns the current system prompt.
func (g *Gateway) Instructions() string {
	return g.instructions
}

// Run sends a single prompt and returns the model's final text with the
// interaction record. Model errors of any kind surface as *LLMCallError.
func (g *Gateway) Run(ctx context.Context, prompt string) (*RunResult, error) {
	if g.provider == nil {
		return nil, ErrNoProvider
	}

	started := time.Now()
	text, _, err := g.complete(ctx, []CompletionMessage{{Role: "user", Content: prompt}}, nil)
	if err != nil {
		return nil, err
	}

	return &RunResult{
		FinalOutput: strings.TrimSpace(text),
		Record: RunRecord{
			Provider:     g.provider.Name(),
			Model:        g.config.Model,
			Instructions: g.instructions,
			Prompt:       prompt,
			Output:       text,
			StartedAt:    started,
			Duration:     time.Since(started),
		},
	}, nil
}

// RunToolLoop drives a bounded tool-use conversation: the model may emit tool
// calls, each is dispatched synchronously through the registry, results are
// fed back, and the loop ends when the model produces a terminal response
// with no pending tool call or maxIterations is reached. Tool failures stay
// inside the conversation; only provider errors and context cancellation
// abort the loop.
func (g *Gateway) RunToolLoop(ctx context.Context, prompt string, registry *ToolRegistry, maxIterations int) (*RunResult, error) {
	if g.provider == nil {
		return nil, ErrNoProvider
	}
	if maxIterations <= 0 {
		maxIterations = 10
	}

	started := time.Now()
	record := RunRecord{
		Provider:     g.provider.Name(),
		Model:        g.config.Model,
		Instructions: g.instructions,
		Prompt:       prompt,
		StartedAt:    started,
	}

	var tools []Tool
	if registry != nil {
		tools = registry.AsLLMTools()
	}

	messages := []CompletionMessage{{Role: "user", Content: prompt}}
	var finalText string

	for iteration := 0; iteration < maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, &LLMCallError{Provider: g.provider.Name(), Model: g.config.Model, Cause: err}
		}

		text, toolCalls, err := g.complete(ctx, messages, tools)
		if err != nil {
			return nil, err
		}
		finalText = text

		if len(toolCalls) == 0 {
			break
		}

		messages = append(messages, CompletionMessage{
			Role:      "assistant",
			Content:   text,
			ToolCalls: toolCalls,
		})

		results := make([]ToolResult, 0, len(toolCalls))
		for _, tc := range toolCalls {
			toolStart := time.Now()
			res, execErr := registry.Execute(ctx, tc.Name, tc.Input)
			if execErr != nil {
				// Only context cancellation escapes the registry.
				return nil, &LLMCallError{Provider: g.provider.Name(), Model: g.config.Model, Cause: execErr}
			}
			res.ToolCallID = tc.ID
			g.observeTool(tc.Name, res.IsError, time.Since(toolStart))
			if g.config.Logger != nil {
				g.config.Logger.Debug(ctx, "tool call completed",
					"tool", tc.Name, "is_error", res.IsError)
			}
			results = append(results, *res)
			record.Steps = append(record.Steps, ToolStep{Call: tc, Result: *res})
		}

		messages = append(messages, CompletionMessage{
			Role:        "tool",
			ToolResults: results,
		})
	}

	record.Output = finalText
	record.Duration = time.Since(started)
	return &RunResult{
		FinalOutput: strings.TrimSpace(finalText),
		Record:      record,
	}, nil
}

// complete performs one provider call, draining the stream into accumulated
// text and tool calls. All failures are wrapped into *LLMCallError.
func (g *Gateway) complete(ctx context.Context, messages []CompletionMessage, tools []Tool) (string, []ToolCall, error) {
	callCtx := ctx
	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	req := &CompletionRequest{
		Model:     g.config.Model,
		System:    g.instructions,
		Messages:  messages,
		Tools:     tools,
		MaxTokens: g.config.MaxTokens,
	}

	start := time.Now()
	chunks, err := g.provider.Complete(callCtx, req)
	if err != nil {
		g.observeLLM("error", time.Since(start))
		return "", nil, &LLMCallError{Provider: g.provider.Name(), Model: g.config.Model, Cause: err}
	}

	var text strings.Builder
	var toolCalls []ToolCall
	for chunk := range chunks {
		if chunk == nil {
			continue
		}
		if chunk.Error != nil {
			g.observeLLM("error", time.Since(start))
			return "", nil, &LLMCallError{Provider: g.provider.Name(), Model: g.config.Model, Cause: chunk.Error}
		}
		if chunk.Text != "" {
			text.WriteString(chunk.Text)
		}
		if chunk.ToolCall != nil {
			toolCalls = append(toolCalls, *chunk.ToolCall)
		}
	}

	g.observeLLM("success", time.Since(start))
	return text.String(), toolCalls, nil
}

func (g *Gateway) observeLLM(status string, elapsed time.Duration) {
	if g.config.Metrics == nil {
		return
	}
	role := g.config.Role
	if role == "" {
		role = "unknown"
	}
	g.config.Metrics.LLMRequestCounter.WithLabelValues(role, g.config.Model, status).Inc()
	g.config.Metrics.LLMRequestDuration.WithLabelValues(role, g.config.Model).Observe(elapsed.Seconds())
}

func (g *Gateway) observeTool(name string, isError bool, elapsed time.Duration) {
	if g.config.Metrics == nil {
		return
	}
	status := "success"
	if isError {
		status = "error"
	}
	g.config.Metrics.ToolExecutionCounter.WithLabelValues(name, status).Inc()
	g.config.Metrics.ToolExecutionDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}
