// Package workforce implements a hierarchical task-orchestration engine.
//
// A run decomposes a natural-language task into a plan of subtasks, assigns
// each subtask to a specialized executor, verifies results, revises the plan
// when warranted, and produces a single final answer with a confidence
// judgement. Four roles cooperate around a shared task ledger: the Planner
// decomposes and checks, the Assigner routes, Executors run tool-use
// conversations, and the Answerer extracts and gates the final answer.
package workforce

import (
	"fmt"
	"strings"

	"github.com/haasonsaas/workforce/internal/agent"
)

// TaskStatus is the lifecycle state of a subtask.
type TaskStatus string

const (
	StatusNotStarted     TaskStatus = "not_started"
	StatusInProgress     TaskStatus = "in_progress"
	StatusSuccess        TaskStatus = "success"
	StatusPartialSuccess TaskStatus = "partial_success"
	StatusFailed         TaskStatus = "failed"
)

// Terminal reports whether the status is a final classification. Terminal
// statuses are write-once: later writes are ignored.
func (s TaskStatus) Terminal() bool {
	switch s {
	case StatusSuccess, StatusPartialSuccess, StatusFailed:
		return true
	}
	return false
}

// Subtask modes set by the Assigner.
const (
	ModeAssignAgent  = "ASSIGN_AGENT"
	ModeDirectAnswer = "DIRECT_ANSWER"
)

// Subtask is one planned unit of work. IDs are 1-based and contiguous within
// a plan; the finished prefix keeps its ids across plan updates.
type Subtask struct {
	ID             int        `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description,omitempty"`
	Status         TaskStatus `json:"status"`
	Mode           string     `json:"mode,omitempty"`
	AssignedAgent  string     `json:"assigned_agent,omitempty"`
	DirectAnswer   string     `json:"direct_answer,omitempty"`
	Result         string     `json:"result,omitempty"`
	ResultDetailed string     `json:"result_detailed,omitempty"`
}

// FormattedWithResult renders the subtask for role prompts.
func (s *Subtask) FormattedWithResult() string {
	parts := []string{
		fmt.Sprintf("<task_id:%d>%s</task_id:%d>", s.ID, s.Name, s.ID),
		fmt.Sprintf("<task_status>%s</task_status>", s.Status),
	}
	if s.Result != "" {
		parts = append(parts, fmt.Sprintf("<task_result>%s</task_result>", s.Result))
	}
	return strings.Join(parts, "\n")
}

// ExecutorDescriptor advertises one executor to the Planner and Assigner.
// Immutable for the duration of a run.
type ExecutorDescriptor struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ToolNames   []string `json:"toolnames"`
}

// TrajectoryEntry is one raw LLM interaction attributed to a role. The
// trajectory is append-only and never consulted for control flow.
type TrajectoryEntry struct {
	ActorLabel string          `json:"actor_label"`
	Record     agent.RunRecord `json:"record"`
}

// Answer confidence and uniqueness grades produced by the Answerer.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"

	UniquenessUnique    = "unique"
	UniquenessNonUnique = "non-unique"
	UniquenessUnclear   = "unclear"
)

// TaskRecorder is the shared mutable ledger for one run. The orchestrator
// owns it exclusively; role components mutate it only through the narrow
// operations below. Single-threaded cooperative: at most one role touches
// the recorder at any moment, so no locking is needed.
type TaskRecorder struct {
	OverallTask string
	Executors   []ExecutorDescriptor

	Plan       []*Subtask
	Trajectory []TrajectoryEntry

	FailureInfo           string
	ExperienceFromFailure string

	TentativeAnswer     string
	TentativeConfidence string
	TentativeUniqueness string

	FinalOutput string
}

// NewTaskRecorder creates a fresh ledger for one run.
func NewTaskRecorder(overallTask string, executors []ExecutorDescriptor) *TaskRecorder {
	return &TaskRecorder{
		OverallTask: overallTask,
		Executors:   executors,
	}
}

// AppendTrajectory records one role interaction.
func (r *TaskRecorder) AppendTrajectory(actorLabel string, record agent.RunRecord) {
	r.Trajectory = append(r.Trajectory, TrajectoryEntry{ActorLabel: actorLabel, Record: record})
}

// PlanInit replaces the whole plan with freshly numbered subtasks. Names
// become subtasks with ids 1..N and status not_started.
func (r *TaskRecorder) PlanInit(names []string) {
	plan := make([]*Subtask, 0, len(names))
	for i, name := range names {
		plan = append(plan, &Subtask{
			ID:     i + 1,
			Name:   name,
			Status: StatusNotStarted,
		})
	}
	r.Plan = plan
}

// ReplacePlanTail keeps subtasks 1..cursorID verbatim and replaces the rest
// with newly numbered subtasks starting at cursorID+1. Ids stay contiguous.
func (r *TaskRecorder) ReplacePlanTail(cursorID int, names []string) {
	if cursorID < 0 {
		cursorID = 0
	}
	if cursorID > len(r.Plan) {
		cursorID = len(r.Plan)
	}
	finished := r.Plan[:cursorID]
	plan := make([]*Subtask, 0, cursorID+len(names))
	plan = append(plan, finished...)
	for i, name := range names {
		plan = append(plan, &Subtask{
			ID:     cursorID + i + 1,
			Name:   name,
			Status: StatusNotStarted,
		})
	}
	r.Plan = plan
}

// NextPending returns the first not_started subtask in id order, or nil.
func (r *TaskRecorder) NextPending() *Subtask {
	for _, task := range r.Plan {
		if task.Status == StatusNotStarted {
			return task
		}
	}
	return nil
}

// HasFailedTask reports whether any subtask ended failed.
func (r *TaskRecorder) HasFailedTask() bool {
	for _, task := range r.Plan {
		if task.Status == StatusFailed {
			return true
		}
	}
	return false
}

// SetSubtaskStatus writes a status classification. Terminal statuses are
// write-once: once a subtask is success, partial_success, or failed, later
// writes are no-ops.
func (r *TaskRecorder) SetSubtaskStatus(task *Subtask, status TaskStatus) {
	if task.Status.Terminal() {
		return
	}
	task.Status = status
}

// SetSubtaskResult records execution output on a subtask. The status is left
// for the Planner's check to classify.
func (r *TaskRecorder) SetSubtaskResult(task *Subtask, result, resultDetailed string) {
	task.Result = result
	task.ResultDetailed = resultDetailed
}

// SetFailureInfo replaces the failure analysis that seeds the next replan.
func (r *TaskRecorder) SetFailureInfo(info string) {
	r.FailureInfo = info
}

// SetExperienceFromFailure records a distilled lesson for Assigner prompts.
func (r *TaskRecorder) SetExperienceFromFailure(experience string) {
	r.ExperienceFromFailure = experience
}

// SetTentativeAnswer records the Answerer's candidate answer with its grades.
func (r *TaskRecorder) SetTentativeAnswer(answer, confidence, uniqueness string) {
	r.TentativeAnswer = answer
	r.TentativeConfidence = confidence
	r.TentativeUniqueness = uniqueness
}

// SetFinalOutput records the accepted final answer.
func (r *TaskRecorder) SetFinalOutput(output string) {
	r.FinalOutput = output
}

// CheckTentativeAnswerQuality evaluates the first quality gate: the answer is
// acceptable iff confidence is high or medium and uniqueness is not
// non-unique. The failure reason aggregates the violated conditions.
func (r *TaskRecorder) CheckTentativeAnswerQuality() (bool, string) {
	acceptable := (r.TentativeConfidence == ConfidenceHigh || r.TentativeConfidence == ConfidenceMedium) &&
		r.TentativeUniqueness != UniquenessNonUnique

	var reasons []string
	if !acceptable {
		if r.TentativeConfidence == ConfidenceLow {
			reasons = append(reasons, "answer confidence too low")
		}
		if r.TentativeUniqueness == UniquenessUnclear || r.TentativeUniqueness == UniquenessNonUnique {
			reasons = append(reasons, "answer uniqueness insufficient")
		}
	}
	return acceptable, strings.Join(reasons, " and ")
}

// ExecutorsInfo formats the executor descriptors for role prompts.
func (r *TaskRecorder) ExecutorsInfo() string {
	lines := make([]string, 0, len(r.Executors))
	for _, e := range r.Executors {
		lines = append(lines, fmt.Sprintf("- %s: %s\n  Available tools: %s",
			e.Name, e.Description, strings.Join(e.ToolNames, ", ")))
	}
	return strings.Join(lines, "\n")
}

// ExecutorNames formats the executor name list for role prompts.
func (r *TaskRecorder) ExecutorNames() string {
	names := make([]string, 0, len(r.Executors))
	for _, e := range r.Executors {
		names = append(names, e.Name)
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// FormattedPlan renders a one-line-per-subtask plan summary.
func (r *TaskRecorder) FormattedPlan() string {
	lines := make([]string, 0, len(r.Plan))
	for _, task := range r.Plan {
		lines = append(lines, fmt.Sprintf("%d. %s - Status: %s", task.ID, task.Name, task.Status))
	}
	return strings.Join(lines, "\n")
}

// FormattedPlanWithResults renders each subtask with its status and result.
func (r *TaskRecorder) FormattedPlanWithResults() []string {
	out := make([]string, 0, len(r.Plan))
	for _, task := range r.Plan {
		out = append(out, task.FormattedWithResult())
	}
	return out
}
