package workforce

import (
	"context"
	"strconv"
	"strings"

	"github.com/haasonsaas/workforce/internal/agent"
	"github.com/haasonsaas/workforce/internal/observability"
)

// Plan-update choices emitted by the Planner.
const (
	ChoiceContinue        = "continue"
	ChoiceUpdate          = "update"
	ChoiceEarlyCompletion = "early_completion"
)

// defaultModifyPlanBudget bounds how many times the Planner may rewrite the
// remaining plan tail in one run.
const defaultModifyPlanBudget = 3

// Planner decomposes the overall task into a plan, classifies finished
// subtasks, decides whether the remaining plan should change, and analyzes
// run-level failures for the next replan.
type Planner struct {
	gateway *agent.Gateway
	prompts promptSet
	logger  *observability.Logger
	metrics *observability.Metrics

	// modifyPlanBudget decrements on each update choice; at zero further
	// updates are coerced to continue.
	modifyPlanBudget int
}

// PlannerConfig configures a Planner for one run.
type PlannerConfig struct {
	Gateway *agent.Gateway

	// ModifyPlanBudget caps plan-tail rewrites. Zero means the default of 3.
	ModifyPlanBudget int

	Logger  *observability.Logger
	Metrics *observability.Metrics
}

// NewPlanner creates a Planner. The gateway's instructions are set to the
// planning system prompt for the lifetime of the planner.
func NewPlanner(config PlannerConfig) *Planner {
	prompts := loadPrompts("planner")
	budget := config.ModifyPlanBudget
	if budget <= 0 {
		budget = defaultModifyPlanBudget
	}
	logger := config.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}
	config.Gateway.SetInstructions(prompts.get("TASK_PLAN_SYS_PROMPT"))
	return &Planner{
		gateway:          config.Gateway,
		prompts:          prompts,
		logger:           logger,
		metrics:          config.Metrics,
		modifyPlanBudget: budget,
	}
}

// ModifyPlanBudget returns the remaining plan-tail rewrite budget.
func (p *Planner) ModifyPlanBudget() int {
	return p.modifyPlanBudget
}

// PlanTask produces the initial plan, or a replan when failure info is
// present. On a replan the model may also emit a distilled lesson, recorded
// as experience for subsequent Assigner prompts. Replaces any prior plan.
func (p *Planner) PlanTask(ctx context.Context, rec *TaskRecorder) error {
	var prompt string
	if rec.FailureInfo == "" {
		prompt = p.prompts.render("TASK_PLAN_PROMPT", map[string]string{
			"overall_task":         rec.OverallTask,
			"executor_agents_info": rec.ExecutorsInfo(),
		})
	} else {
		prompt = p.prompts.render("TASK_REPLAN_PROMPT", map[string]string{
			"overall_task":         rec.OverallTask,
			"executor_agents_info": rec.ExecutorsInfo(),
			"failure_info":         rec.FailureInfo,
		})
	}

	result, err := p.gateway.Run(ctx, prompt)
	if err != nil {
		return err
	}
	rec.AppendTrajectory("planner", result.Record)

	rec.PlanInit(allTags(result.FinalOutput, "task"))
	p.logger.Info(ctx, "plan generated", "subtasks", len(rec.Plan), "replan", rec.FailureInfo != "")

	if rec.FailureInfo != "" {
		if exp, ok := firstTag(result.FinalOutput, "helpful_experience_or_fact"); ok && exp != "" {
			rec.SetExperienceFromFailure(exp)
		}
	}
	return nil
}

// PlanCheck classifies a just-executed subtask as success, partial_success,
// or failed, and writes the status to the subtask. Missing or unrecognized
// statuses default to partial_success.
func (p *Planner) PlanCheck(ctx context.Context, rec *TaskRecorder, task *Subtask) error {
	prompt := p.prompts.render("TASK_CHECK_PROMPT", map[string]string{
		"overall_task":                    rec.OverallTask,
		"task_plan":                       rec.FormattedPlan(),
		"last_completed_task":             task.Name,
		"last_completed_task_id":          strconv.Itoa(task.ID),
		"last_completed_task_description": task.Description,
		"last_completed_task_result":      task.Result,
	})

	result, err := p.gateway.Run(ctx, prompt)
	if err != nil {
		return err
	}
	rec.AppendTrajectory("planner", result.Record)

	status := p.parseCheckResponse(ctx, result.FinalOutput)
	rec.SetSubtaskStatus(task, status)
	return nil
}

func (p *Planner) parseCheckResponse(ctx context.Context, response string) TaskStatus {
	raw, ok := firstTag(response, "task_status")
	if !ok {
		p.logger.Warn(ctx, "no task status in check response, defaulting to partial_success")
		return StatusPartialSuccess
	}
	status := strings.ToLower(raw)
	// Models sometimes emit "partial success" or "partially successful".
	if strings.Contains(status, "partial") {
		return StatusPartialSuccess
	}
	switch TaskStatus(status) {
	case StatusSuccess, StatusFailed:
		return TaskStatus(status)
	default:
		p.logger.Warn(ctx, "unexpected task status, defaulting to partial_success", "status", status)
		return StatusPartialSuccess
	}
}

// PlanUpdate decides whether to keep, rewrite, or cut short the remaining
// plan after the given subtask finished. Must only be called while a
// not_started subtask remains. Returns the effective choice after budget and
// empty-tail coercions.
func (p *Planner) PlanUpdate(ctx context.Context, rec *TaskRecorder, task *Subtask) (string, error) {
	if p.modifyPlanBudget <= 0 {
		p.logger.Warn(ctx, "modify plan budget exhausted, continuing with existing plan")
		return ChoiceContinue, nil
	}

	formatted := rec.FormattedPlanWithResults()
	cursor := task.ID
	if cursor > len(formatted) {
		cursor = len(formatted)
	}
	prompt := p.prompts.render("TASK_UPDATE_PLAN_PROMPT", map[string]string{
		"overall_task":         rec.OverallTask,
		"previous_task_plan":   strings.Join(formatted[:cursor], "\n"),
		"unfinished_task_plan": strings.Join(formatted[cursor:], "\n"),
	})

	result, err := p.gateway.Run(ctx, prompt)
	if err != nil {
		return "", err
	}
	rec.AppendTrajectory("planner", result.Record)

	choice, updatedTail := parseUpdateResponse(result.FinalOutput)
	switch choice {
	case ChoiceContinue, ChoiceEarlyCompletion:
		// No plan mutation.
	case ChoiceUpdate:
		p.modifyPlanBudget--
		if p.metrics != nil {
			p.metrics.PlanUpdateCounter.WithLabelValues(ChoiceUpdate).Inc()
		}
		if len(updatedTail) > 0 {
			rec.ReplacePlanTail(task.ID, updatedTail)
		} else {
			// An update with no usable tail falls back to the current plan.
			choice = ChoiceContinue
		}
	default:
		return "", &ProtocolParseError{
			Role:     "planner",
			Detail:   "unexpected plan update choice: " + choice,
			Response: result.FinalOutput,
		}
	}

	if p.metrics != nil && choice != ChoiceUpdate {
		p.metrics.PlanUpdateCounter.WithLabelValues(choice).Inc()
	}
	return choice, nil
}

// parseUpdateResponse extracts the choice and, for updates, the replacement
// tail. A missing choice defaults to continue.
func parseUpdateResponse(response string) (string, []string) {
	choice := ChoiceContinue
	if raw, ok := firstTag(response, "choice"); ok {
		choice = strings.ToLower(raw)
	}

	var updatedTail []string
	if choice == ChoiceUpdate {
		if region, ok := firstTag(response, "updated_unfinished_task_plan"); ok {
			updatedTail = taskNames(region)
		}
	}
	return choice, updatedTail
}

// ReflectOnFailure produces a failure analysis from the trajectory and an
// optional quality-gate context, and writes it to the recorder's failure
// info to seed the next replan.
func (p *Planner) ReflectOnFailure(ctx context.Context, rec *TaskRecorder, additionalContext string) error {
	contextBlock := additionalContext
	if contextBlock != "" {
		contextBlock = "\n\n" + contextBlock + "\n\n"
	}
	prompt := p.prompts.render("TASK_REFLECTION_PROMPT", map[string]string{
		"question":           rec.OverallTask,
		"task_results":       strings.Join(rec.FormattedPlanWithResults(), "\n\n"),
		"additional_context": contextBlock,
	})

	result, err := p.gateway.Run(ctx, prompt)
	if err != nil {
		return err
	}
	rec.AppendTrajectory("planner_reflect_on_failure", result.Record)

	analysis := result.FinalOutput
	if additionalContext != "" {
		analysis += "\n\n" + additionalContext
	}
	rec.SetFailureInfo(analysis)
	if p.metrics != nil {
		p.metrics.ReflectionCounter.Inc()
	}
	return nil
}

// QualityFailureContext formats the reflection context for a quality-gate
// rejection.
func (p *Planner) QualityFailureContext(rec *TaskRecorder, failureReason string) string {
	return p.prompts.render("REFLECTION_FAILURE_PROMPT_1", map[string]string{
		"tentative_answer": rec.TentativeAnswer,
		"failure_reason":   failureReason,
	})
}

// SelfCheckFailureContext formats the reflection context for a self-check
// rejection.
func (p *Planner) SelfCheckFailureContext(rec *TaskRecorder, failureAnalysis string) string {
	return p.prompts.render("REFLECTION_FAILURE_PROMPT_2", map[string]string{
		"tentative_answer": rec.TentativeAnswer,
		"failure_analysis": failureAnalysis,
	})
}
