package workforce

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/haasonsaas/workforce/internal/agent"
	"github.com/haasonsaas/workforce/internal/observability"
)

// defaultMaxToolSteps bounds the executor's tool-use conversation.
const defaultMaxToolSteps = 10

// Executor is a named agent with a fixed tool set. It discharges one subtask
// by running a bounded tool-use conversation through its gateway: the model
// may call tools from the descriptor's tool names, each call is dispatched
// synchronously, and the loop ends on a terminal response or the step bound.
type Executor struct {
	descriptor ExecutorDescriptor
	gateway    *agent.Gateway
	registry   *agent.ToolRegistry
	prompts    promptSet
	maxSteps   int
	logger     *observability.Logger
}

// ExecutorConfig configures one Executor.
type ExecutorConfig struct {
	Descriptor ExecutorDescriptor
	Gateway    *agent.Gateway

	// Registry holds the tools this executor may call. Only tools named in
	// the descriptor should be registered here.
	Registry *agent.ToolRegistry

	// MaxSteps bounds the tool loop. Zero means the default of 10.
	MaxSteps int

	Logger *observability.Logger
}

// NewExecutor creates an Executor and pins its system prompt to the
// descriptor's identity.
func NewExecutor(config ExecutorConfig) *Executor {
	prompts := loadPrompts("executor")
	maxSteps := config.MaxSteps
	if maxSteps <= 0 {
		maxSteps = defaultMaxToolSteps
	}
	logger := config.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}
	config.Gateway.SetInstructions(prompts.render("EXECUTOR_SYS_PROMPT", map[string]string{
		"agent_name":        config.Descriptor.Name,
		"agent_description": config.Descriptor.Description,
	}))
	return &Executor{
		descriptor: config.Descriptor,
		gateway:    config.Gateway,
		registry:   config.Registry,
		prompts:    prompts,
		maxSteps:   maxSteps,
		logger:     logger,
	}
}

// Descriptor returns the executor's immutable descriptor.
func (e *Executor) Descriptor() ExecutorDescriptor {
	return e.descriptor
}

// Execute runs the tool-use conversation for one subtask and records its
// result. The status is left in_progress for the Planner's check to
// classify. Tool failures stay inside the conversation and never surface
// here; only gateway errors do.
func (e *Executor) Execute(ctx context.Context, rec *TaskRecorder, task *Subtask) error {
	prompt := e.prompts.render("EXECUTOR_TASK_PROMPT", map[string]string{
		"overall_task":     rec.OverallTask,
		"task_plan":        rec.FormattedPlan(),
		"task_id":          strconv.Itoa(task.ID),
		"task_name":        task.Name,
		"task_description": task.Description,
	})

	result, err := e.gateway.RunToolLoop(ctx, prompt, e.registry, e.maxSteps)
	if err != nil {
		return err
	}
	rec.AppendTrajectory("executor_"+e.descriptor.Name, result.Record)

	rec.SetSubtaskResult(task, result.FinalOutput, detailedResult(result))
	e.logger.Info(ctx, "subtask executed",
		"task_id", task.ID, "executor", e.descriptor.Name, "tool_calls", len(result.Record.Steps))
	return nil
}

// detailedResult renders the full result payload: the final text plus the
// tool-call transcript that produced it.
func detailedResult(result *agent.RunResult) string {
	if len(result.Record.Steps) == 0 {
		return result.FinalOutput
	}
	var b strings.Builder
	b.WriteString(result.FinalOutput)
	b.WriteString("\n\nTool calls:\n")
	for _, step := range result.Record.Steps {
		fmt.Fprintf(&b, "- %s(%s)", step.Call.Name, string(step.Call.Input))
		if step.Result.IsError {
			b.WriteString(" [error]")
		}
		b.WriteString(": ")
		b.WriteString(step.Result.Content)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
