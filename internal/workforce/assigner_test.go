package workforce

import (
	"context"
	"strings"
	"testing"
)

func testDescriptors() []ExecutorDescriptor {
	return []ExecutorDescriptor{
		{Name: "Searcher", Description: "finds things", ToolNames: []string{"fetch_page"}},
		{Name: "Coder", Description: "writes code", ToolNames: []string{"run_bash"}},
	}
}

func TestAssignRoutesToExecutor(t *testing.T) {
	provider := newScriptedProvider(
		"<mode>ASSIGN_AGENT</mode>\n<selected_agent>Coder</selected_agent>\n" +
			"<detailed_task_description>write a script that counts words</detailed_task_description>",
	)
	assigner := NewAssigner(newScriptedGateway(provider, "assigner"), nil)
	rec := NewTaskRecorder("count words", testDescriptors())
	rec.PlanInit([]string{"write the counter"})

	task, err := assigner.Assign(context.Background(), rec)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if task.ID != 1 || task.Mode != ModeAssignAgent || task.AssignedAgent != "Coder" {
		t.Errorf("assignment = %+v", task)
	}
	if task.Description != "write a script that counts words" {
		t.Errorf("description = %q", task.Description)
	}
	// Assignment alone does not advance the lifecycle.
	if task.Status != StatusNotStarted {
		t.Errorf("status = %s, want not_started", task.Status)
	}
	if len(rec.Trajectory) != 1 || rec.Trajectory[0].ActorLabel != "assigner" {
		t.Errorf("trajectory not recorded: %+v", rec.Trajectory)
	}
}

func TestAssignDirectAnswer(t *testing.T) {
	provider := newScriptedProvider(
		"<mode>DIRECT_ANSWER</mode>\n<selected_agent>none</selected_agent>\n" +
			"<direct_answer>Paris</direct_answer>",
	)
	assigner := NewAssigner(newScriptedGateway(provider, "assigner"), nil)
	rec := NewTaskRecorder("capital of France", testDescriptors())
	rec.PlanInit([]string{"recall the capital"})

	task, err := assigner.Assign(context.Background(), rec)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if task.Mode != ModeDirectAnswer || task.DirectAnswer != "Paris" {
		t.Errorf("assignment = %+v", task)
	}
}

func TestAssignCarriesExperience(t *testing.T) {
	provider := newScriptedProvider(
		"<mode>DIRECT_ANSWER</mode>\n<selected_agent>none</selected_agent>\n<direct_answer>x</direct_answer>",
	)
	assigner := NewAssigner(newScriptedGateway(provider, "assigner"), nil)
	rec := NewTaskRecorder("task", testDescriptors())
	rec.PlanInit([]string{"a"})
	rec.SetExperienceFromFailure("the first source is paywalled")

	if _, err := assigner.Assign(context.Background(), rec); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	system := provider.request(0).System
	if !strings.Contains(system, "<helpful_experience_for_replan>") ||
		!strings.Contains(system, "the first source is paywalled") {
		t.Errorf("system prompt missing experience block:\n%s", system)
	}
}

func TestAssignParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"missing mode", "<selected_agent>Coder</selected_agent><detailed_task_description>x</detailed_task_description>"},
		{"missing agent", "<mode>ASSIGN_AGENT</mode><detailed_task_description>x</detailed_task_description>"},
		{"missing description", "<mode>ASSIGN_AGENT</mode><selected_agent>Coder</selected_agent>"},
		{"missing direct answer", "<mode>DIRECT_ANSWER</mode><selected_agent>none</selected_agent>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newScriptedProvider(tt.response)
			assigner := NewAssigner(newScriptedGateway(provider, "assigner"), nil)
			rec := NewTaskRecorder("task", testDescriptors())
			rec.PlanInit([]string{"a"})

			_, err := assigner.Assign(context.Background(), rec)
			if !IsProtocolParseError(err) {
				t.Fatalf("err = %v, want ProtocolParseError", err)
			}
		})
	}
}

func TestAssignWithoutPendingSubtask(t *testing.T) {
	assigner := NewAssigner(newScriptedGateway(newScriptedProvider(), "assigner"), nil)
	rec := NewTaskRecorder("task", testDescriptors())

	_, err := assigner.Assign(context.Background(), rec)
	if !IsProtocolParseError(err) {
		t.Fatalf("err = %v, want ProtocolParseError", err)
	}
}
