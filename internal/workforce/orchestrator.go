package workforce

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/haasonsaas/workforce/internal/observability"
)

// Orchestrator drives a run through the planning state machine: a bounded
// outer reflection loop around the inner assign, execute, check, update
// loop, followed by the two-stage quality gate.
//
// The orchestrator owns the TaskRecorder for the duration of a run and is
// single-threaded cooperative: at most one role operation runs at a time.
type Orchestrator struct {
	planner   *Planner
	assigner  *Assigner
	answerer  *Answerer
	executors map[string]*Executor

	maxReflection int
	logger        *observability.Logger
	metrics       *observability.Metrics
	tracer        *observability.Tracer
}

// OrchestratorConfig wires the four roles together.
type OrchestratorConfig struct {
	Planner  *Planner
	Assigner *Assigner
	Answerer *Answerer

	// Executors maps executor names to instances. Assignment targets are
	// validated against this map at dispatch time.
	Executors map[string]*Executor

	// MaxReflection bounds the outer replan loop. Zero means the default
	// of 1.
	MaxReflection int

	Logger  *observability.Logger
	Metrics *observability.Metrics
	Tracer  *observability.Tracer
}

// NewOrchestrator creates an orchestrator from the given roles.
func NewOrchestrator(config OrchestratorConfig) *Orchestrator {
	maxReflection := config.MaxReflection
	if maxReflection <= 0 {
		maxReflection = 1
	}
	logger := config.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Orchestrator{
		planner:       config.Planner,
		assigner:      config.Assigner,
		answerer:      config.Answerer,
		executors:     config.Executors,
		maxReflection: maxReflection,
		logger:        logger,
		metrics:       config.Metrics,
		tracer:        config.Tracer,
	}
}

// Descriptors returns the descriptors of all registered executors in
// registration-map order.
func (o *Orchestrator) Descriptors() []ExecutorDescriptor {
	descriptors := make([]ExecutorDescriptor, 0, len(o.executors))
	for _, e := range o.executors {
		descriptors = append(descriptors, e.Descriptor())
	}
	return descriptors
}

// Run executes one task end to end and returns the ledger. The ledger is
// returned even on error so callers can inspect partial progress. On a
// successful gate, FinalOutput carries the accepted answer; otherwise it
// falls back to the most recent tentative answer.
func (o *Orchestrator) Run(ctx context.Context, input string, runID string) (*TaskRecorder, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx = context.WithValue(ctx, observability.RunIDKey, runID)

	var span trace.Span
	if o.tracer != nil {
		ctx, span = o.tracer.Start(ctx, "workforce.run",
			attribute.String("run.id", runID))
		defer span.End()
	}

	rec := NewTaskRecorder(input, o.Descriptors())
	o.logger.Info(ctx, "run started", "executors", len(o.executors), "max_reflection", o.maxReflection)

	rec, err := o.drive(ctx, rec)
	if err != nil {
		if o.metrics != nil {
			o.metrics.ErrorCounter.WithLabelValues("orchestrator", errorType(err)).Inc()
		}
		if span != nil {
			observability.RecordError(span, err)
		}
		o.logger.Error(ctx, "run failed", "error", err)
		return rec, err
	}

	o.logger.Info(ctx, "run finished", "answered", rec.FinalOutput != "")
	return rec, nil
}

// drive is the state machine: OUTER plan, INNER dispatch loop, GATE, and
// the fallback finalization.
func (o *Orchestrator) drive(ctx context.Context, rec *TaskRecorder) (*TaskRecorder, error) {
	reflection := 0

	for {
		// OUTER: plan, or replan when failure info is present.
		if err := o.planner.PlanTask(ctx, rec); err != nil {
			return rec, err
		}

		// INNER: dispatch not_started subtasks in id order.
		assignErr, err := o.runInner(ctx, rec)
		if err != nil {
			return rec, err
		}

		// GATE.
		if assignErr != nil {
			// Unknown executor: reflect if budget remains, else fatal.
			if reflection >= o.maxReflection {
				return rec, assignErr
			}
			reflection++
			rec.SetFailureInfo(assignErr.Error())
			o.logger.Warn(ctx, "assignment failed, replanning", "error", assignErr)
			continue
		}

		if reflection >= o.maxReflection {
			break
		}
		reflection++

		if rec.HasFailedTask() {
			o.logger.Info(ctx, "failed subtask detected, reflecting", "reflection", reflection)
			if err := o.planner.ReflectOnFailure(ctx, rec, ""); err != nil {
				return rec, err
			}
			continue
		}

		if err := o.answerer.ExtractFinalAnswer(ctx, rec); err != nil {
			return rec, err
		}
		qualityOK, failureReason := rec.CheckTentativeAnswerQuality()
		if !qualityOK {
			o.logger.Info(ctx, "answer quality rejected", "reason", failureReason)
			extra := o.planner.QualityFailureContext(rec, failureReason)
			if err := o.planner.ReflectOnFailure(ctx, rec, extra); err != nil {
				return rec, err
			}
			continue
		}

		passed, analysis, err := o.answerer.SelfCheck(ctx, rec)
		if err != nil {
			return rec, err
		}
		if !passed {
			o.logger.Info(ctx, "self-check rejected answer")
			extra := o.planner.SelfCheckFailureContext(rec, analysis)
			if err := o.planner.ReflectOnFailure(ctx, rec, extra); err != nil {
				return rec, err
			}
			continue
		}

		// Both gates passed.
		rec.SetFinalOutput(rec.TentativeAnswer)
		return rec, nil
	}

	// FINALIZE: fall back to the most recent tentative answer.
	if rec.FinalOutput == "" {
		rec.SetFinalOutput(rec.TentativeAnswer)
	}
	return rec, nil
}

// runInner drains the plan's not_started subtasks. An unknown-executor
// assignment is returned separately: it aborts the inner loop but is a
// reflection trigger, not necessarily fatal.
func (o *Orchestrator) runInner(ctx context.Context, rec *TaskRecorder) (*AssignmentError, error) {
	for rec.NextPending() != nil {
		task, err := o.assigner.Assign(ctx, rec)
		if err != nil {
			return nil, err
		}

		if task.Mode == ModeDirectAnswer {
			rec.SetSubtaskStatus(task, StatusSuccess)
			rec.SetSubtaskResult(task, task.DirectAnswer, task.DirectAnswer)
			o.logger.Info(ctx, "subtask short-circuited", "task_id", task.ID)
		} else {
			executor, ok := o.executors[task.AssignedAgent]
			if !ok {
				// The subtask stays not_started.
				return &AssignmentError{Agent: task.AssignedAgent, TaskID: task.ID}, nil
			}
			rec.SetSubtaskStatus(task, StatusInProgress)
			if err := executor.Execute(ctx, rec, task); err != nil {
				return nil, err
			}
			if err := o.planner.PlanCheck(ctx, rec, task); err != nil {
				return nil, err
			}
			o.logger.Info(ctx, "subtask checked", "task_id", task.ID, "status", task.Status)
		}

		if rec.NextPending() == nil {
			break
		}

		choice, err := o.planner.PlanUpdate(ctx, rec, task)
		if err != nil {
			return nil, err
		}
		o.logger.Info(ctx, "plan update decided", "choice", choice)
		if choice == ChoiceEarlyCompletion {
			break
		}
	}
	return nil, nil
}

func errorType(err error) string {
	switch {
	case IsProtocolParseError(err):
		return "protocol_parse"
	case IsAssignmentError(err):
		return "assignment"
	default:
		return "llm_call"
	}
}
