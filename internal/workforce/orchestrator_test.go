package workforce

import (
	"context"
	"strings"
	"testing"

	"github.com/haasonsaas/workforce/internal/agent"
)

// newTestOrchestrator wires all roles over one shared scripted provider. A run
// is single-threaded, so every role consumes the script in call order.
func newTestOrchestrator(provider *scriptedProvider, maxReflection, planBudget int) *Orchestrator {
	executors := map[string]*Executor{
		"Worker": NewExecutor(ExecutorConfig{
			Descriptor: ExecutorDescriptor{Name: "Worker", Description: "does the work"},
			Gateway:    newScriptedGateway(provider, "executor"),
			Registry:   agent.NewToolRegistry(),
		}),
	}
	return NewOrchestrator(OrchestratorConfig{
		Planner: NewPlanner(PlannerConfig{
			Gateway:          newScriptedGateway(provider, "planner"),
			ModifyPlanBudget: planBudget,
		}),
		Assigner:      NewAssigner(newScriptedGateway(provider, "assigner"), nil),
		Answerer:      NewAnswerer(newScriptedGateway(provider, "answerer"), nil),
		Executors:     executors,
		MaxReflection: maxReflection,
	})
}

const selfCheckPass = "<correct>yes</correct>"

func directAnswer(answer string) string {
	return "<mode>DIRECT_ANSWER</mode><selected_agent>none</selected_agent><direct_answer>" + answer + "</direct_answer>"
}

func assignWorker(description string) string {
	return "<mode>ASSIGN_AGENT</mode><selected_agent>Worker</selected_agent>" +
		"<detailed_task_description>" + description + "</detailed_task_description>"
}

func TestRunDirectAnswerHappyPath(t *testing.T) {
	provider := newScriptedProvider(
		"<task>recall the capital</task>",
		directAnswer("Paris"),
		"<answer>Paris</answer><confidence>high</confidence><answer_uniqueness>unique</answer_uniqueness>",
		selfCheckPass,
	)
	orch := newTestOrchestrator(provider, 1, 0)

	rec, err := orch.Run(context.Background(), "capital of France", "run-1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rec.FinalOutput != "Paris" {
		t.Errorf("final output = %q, want Paris", rec.FinalOutput)
	}
	task := rec.Plan[0]
	if task.Status != StatusSuccess || task.Result != "Paris" || task.Mode != ModeDirectAnswer {
		t.Errorf("subtask = %+v", task)
	}
	if provider.calls() != 4 {
		t.Errorf("provider calls = %d, want 4", provider.calls())
	}
}

func TestRunExecutorPathWithPlanUpdate(t *testing.T) {
	provider := newScriptedProvider(
		"<task>gather data</task><task>analyze</task><task>report</task>",
		assignWorker("fetch the raw numbers"),
		"raw numbers collected",
		"<task_status>success</task_status>",
		"<choice>update</choice><updated_unfinished_task_plan><task>analyze trends</task><task>write summary</task></updated_unfinished_task_plan>",
		directAnswer("trend is upward"),
		"<choice>continue</choice>",
		directAnswer("summary written"),
		"<answer>done</answer><confidence>high</confidence><answer_uniqueness>unique</answer_uniqueness>",
		selfCheckPass,
	)
	orch := newTestOrchestrator(provider, 1, 3)

	rec, err := orch.Run(context.Background(), "produce the report", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rec.FinalOutput != "done" {
		t.Errorf("final output = %q", rec.FinalOutput)
	}

	wantNames := []string{"gather data", "analyze trends", "write summary"}
	if len(rec.Plan) != len(wantNames) {
		t.Fatalf("plan length = %d, want %d", len(rec.Plan), len(wantNames))
	}
	for i, task := range rec.Plan {
		if task.Name != wantNames[i] || task.ID != i+1 {
			t.Errorf("plan[%d] = {%d %q}, want {%d %q}", i, task.ID, task.Name, i+1, wantNames[i])
		}
		if !task.Status.Terminal() {
			t.Errorf("plan[%d] status = %s, want terminal", i, task.Status)
		}
	}
	if rec.Plan[0].Result != "raw numbers collected" {
		t.Errorf("executed result = %q", rec.Plan[0].Result)
	}

	var executorSeen bool
	for _, entry := range rec.Trajectory {
		if entry.ActorLabel == "executor_Worker" {
			executorSeen = true
		}
	}
	if !executorSeen {
		t.Error("executor interaction missing from trajectory")
	}
}

func TestRunEarlyCompletion(t *testing.T) {
	provider := newScriptedProvider(
		"<task>find the value</task><task>double-check</task>",
		directAnswer("41.99"),
		"<choice>early_completion</choice>",
		"<answer>41.99</answer><confidence>medium</confidence><answer_uniqueness>unique</answer_uniqueness>",
		selfCheckPass,
	)
	orch := newTestOrchestrator(provider, 1, 0)

	rec, err := orch.Run(context.Background(), "find the value", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rec.FinalOutput != "41.99" {
		t.Errorf("final output = %q", rec.FinalOutput)
	}
	if rec.Plan[1].Status != StatusNotStarted {
		t.Errorf("skipped task status = %s, want not_started", rec.Plan[1].Status)
	}
}

func TestRunFailedTaskTriggersReflection(t *testing.T) {
	provider := newScriptedProvider(
		"<task>fetch from the archive</task>",
		assignWorker("download the file"),
		"download attempt output",
		"<task_status>failed</task_status>",
		"the archive endpoint has moved",
		"<task>use the mirror</task><helpful_experience_or_fact>the archive moved to a mirror</helpful_experience_or_fact>",
		directAnswer("fetched from the mirror"),
	)
	orch := newTestOrchestrator(provider, 1, 0)

	rec, err := orch.Run(context.Background(), "fetch the file", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// One reflection was spent; the run finalizes without the answer gate,
	// falling back to the (empty) tentative answer.
	if rec.FinalOutput != "" {
		t.Errorf("final output = %q, want empty fallback", rec.FinalOutput)
	}
	if rec.FailureInfo != "the archive endpoint has moved" {
		t.Errorf("failure info = %q", rec.FailureInfo)
	}
	if rec.ExperienceFromFailure != "the archive moved to a mirror" {
		t.Errorf("experience = %q", rec.ExperienceFromFailure)
	}
	if rec.Plan[0].Name != "use the mirror" || rec.Plan[0].Status != StatusSuccess {
		t.Errorf("replanned task = %+v", rec.Plan[0])
	}
	// Reflection bound: max_reflection 1 means at most two plan calls.
	if provider.calls() != 7 {
		t.Errorf("provider calls = %d, want 7", provider.calls())
	}
}

func TestRunSelfCheckRejectionThenPass(t *testing.T) {
	provider := newScriptedProvider(
		"<task>estimate</task>",
		directAnswer("A1"),
		"<answer>A1</answer><confidence>high</confidence><answer_uniqueness>unique</answer_uniqueness>",
		"<correct>no</correct>the estimate ignores the second dataset",
		"the answer skipped a dataset",
		"<task>estimate with both datasets</task>",
		directAnswer("A2"),
		"<answer>A2</answer><confidence>medium</confidence><answer_uniqueness>unique</answer_uniqueness>",
		selfCheckPass,
	)
	orch := newTestOrchestrator(provider, 2, 0)

	rec, err := orch.Run(context.Background(), "estimate the total", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rec.FinalOutput != "A2" {
		t.Errorf("final output = %q, want A2", rec.FinalOutput)
	}
	// The reflection carried both the model's analysis and the rejected
	// answer's context.
	if !strings.Contains(rec.FailureInfo, "the answer skipped a dataset") {
		t.Errorf("failure info missing analysis: %q", rec.FailureInfo)
	}
	if !strings.Contains(rec.FailureInfo, "A1") {
		t.Errorf("failure info missing rejected answer: %q", rec.FailureInfo)
	}
}

func TestRunQualityRejectionFallsBackToTentative(t *testing.T) {
	provider := newScriptedProvider(
		"<task>guess</task>",
		directAnswer("maybe 7"),
		"<answer>maybe 7</answer><confidence>low</confidence><answer_uniqueness>unclear</answer_uniqueness>",
		"confidence was too low to accept",
		"<task>guess again</task>",
		directAnswer("maybe 8"),
	)
	orch := newTestOrchestrator(provider, 1, 0)

	rec, err := orch.Run(context.Background(), "guess the number", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// The gate never accepted an answer; finalization falls back to the most
	// recent tentative answer.
	if rec.FinalOutput != "maybe 7" {
		t.Errorf("final output = %q, want tentative fallback", rec.FinalOutput)
	}
}

func TestRunUnknownExecutorTriggersReplan(t *testing.T) {
	provider := newScriptedProvider(
		"<task>collect sources</task>",
		"<mode>ASSIGN_AGENT</mode><selected_agent>Ghost</selected_agent><detailed_task_description>x</detailed_task_description>",
		"<task>collect sources</task>",
		assignWorker("gather the sources"),
		"sources gathered",
		"<task_status>success</task_status>",
	)
	orch := newTestOrchestrator(provider, 1, 0)

	rec, err := orch.Run(context.Background(), "collect the sources", "")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(rec.FailureInfo, "Ghost") {
		t.Errorf("failure info missing unknown executor: %q", rec.FailureInfo)
	}
	// The misassigned subtask was never started before the replan.
	if rec.Plan[0].Status != StatusSuccess {
		t.Errorf("replanned task status = %s", rec.Plan[0].Status)
	}
}

func TestRunUnknownExecutorExhaustsReflection(t *testing.T) {
	provider := newScriptedProvider(
		"<task>collect sources</task>",
		"<mode>ASSIGN_AGENT</mode><selected_agent>Ghost</selected_agent><detailed_task_description>x</detailed_task_description>",
		"<task>collect sources</task>",
		"<mode>ASSIGN_AGENT</mode><selected_agent>Ghost</selected_agent><detailed_task_description>x</detailed_task_description>",
	)
	orch := newTestOrchestrator(provider, 1, 0)

	rec, err := orch.Run(context.Background(), "collect the sources", "")
	if !IsAssignmentError(err) {
		t.Fatalf("err = %v, want AssignmentError", err)
	}
	if rec == nil {
		t.Fatal("ledger not returned on failure")
	}
	if rec.Plan[0].Status != StatusNotStarted {
		t.Errorf("misassigned task status = %s, want not_started", rec.Plan[0].Status)
	}
}
