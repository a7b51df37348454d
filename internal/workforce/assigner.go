package workforce

import (
	"context"
	"strings"

	"github.com/haasonsaas/workforce/internal/agent"
	"github.com/haasonsaas/workforce/internal/observability"
)

// Assigner routes the next pending subtask to the executor best equipped for
// it, or short-circuits with a direct answer when no execution is needed.
type Assigner struct {
	gateway *agent.Gateway
	prompts promptSet
	logger  *observability.Logger
}

// NewAssigner creates an Assigner over the given gateway.
func NewAssigner(gateway *agent.Gateway, logger *observability.Logger) *Assigner {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Assigner{
		gateway: gateway,
		prompts: loadPrompts("assigner"),
		logger:  logger,
	}
}

// Assign selects a mode and executor for the next not_started subtask and
// writes the assignment onto it. The subtask's status is not changed here;
// leaving not_started is the orchestrator's move once dispatch succeeds.
func (a *Assigner) Assign(ctx context.Context, rec *TaskRecorder) (*Subtask, error) {
	next := rec.NextPending()
	if next == nil {
		return nil, &ProtocolParseError{Role: "assigner", Detail: "no pending subtask to assign"}
	}

	experienceBlock := ""
	if rec.ExperienceFromFailure != "" {
		experienceBlock = "\n<helpful_experience_for_replan>\n" + rec.ExperienceFromFailure + "\n</helpful_experience_for_replan>\n"
	}

	a.gateway.SetInstructions(a.prompts.render("TASK_ASSIGN_SYS_PROMPT", map[string]string{
		"overall_task":            rec.OverallTask,
		"task_plan":               strings.Join(rec.FormattedPlanWithResults(), "\n"),
		"executor_agents_info":    rec.ExecutorsInfo(),
		"experience_from_failure": experienceBlock,
	}))
	prompt := a.prompts.render("TASK_ASSIGN_USER_PROMPT", map[string]string{
		"next_task":             next.Name,
		"executor_agents_names": rec.ExecutorNames(),
	})

	result, err := a.gateway.Run(ctx, prompt)
	if err != nil {
		return nil, err
	}
	rec.AppendTrajectory("assigner", result.Record)

	mode, selectedAgent, payload, err := parseAssignResponse(result.FinalOutput)
	if err != nil {
		return nil, err
	}

	next.AssignedAgent = selectedAgent
	next.Mode = mode
	if mode == ModeDirectAnswer {
		next.DirectAnswer = payload
		a.logger.Info(ctx, "subtask answered directly", "task_id", next.ID)
	} else {
		next.Description = payload
		a.logger.Info(ctx, "subtask assigned", "task_id", next.ID, "executor", selectedAgent)
	}
	return next, nil
}

// parseAssignResponse extracts mode, selected agent, and the mode-specific
// payload (direct answer or detailed description). All three regions are
// required; a missing one is a protocol error because no safe default
// exists.
func parseAssignResponse(response string) (mode, selectedAgent, payload string, err error) {
	mode, ok := firstTag(response, "mode")
	if !ok {
		return "", "", "", &ProtocolParseError{Role: "assigner", Detail: "missing <mode>", Response: response}
	}
	selectedAgent, ok = firstTag(response, "selected_agent")
	if !ok {
		return "", "", "", &ProtocolParseError{Role: "assigner", Detail: "missing <selected_agent>", Response: response}
	}

	if mode == ModeDirectAnswer {
		payload, ok = firstTag(response, "direct_answer")
		if !ok {
			return "", "", "", &ProtocolParseError{Role: "assigner", Detail: "missing <direct_answer>", Response: response}
		}
		return ModeDirectAnswer, selectedAgent, payload, nil
	}

	payload, ok = firstTag(response, "detailed_task_description")
	if !ok {
		return "", "", "", &ProtocolParseError{Role: "assigner", Detail: "missing <detailed_task_description>", Response: response}
	}
	return ModeAssignAgent, selectedAgent, payload, nil
}
