package workforce

import (
	"context"
	"strings"

	"github.com/haasonsaas/workforce/internal/agent"
	"github.com/haasonsaas/workforce/internal/observability"
)

// Answerer synthesizes the final answer from subtask results and gates it:
// once with a confidence and uniqueness grade, once with a self-check
// against the recorded results.
type Answerer struct {
	gateway *agent.Gateway
	prompts promptSet
	logger  *observability.Logger
}

// NewAnswerer creates an Answerer over the given gateway.
func NewAnswerer(gateway *agent.Gateway, logger *observability.Logger) *Answerer {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Answerer{
		gateway: gateway,
		prompts: loadPrompts("answerer"),
		logger:  logger,
	}
}

// ExtractFinalAnswer produces a tentative answer with its confidence and
// uniqueness grades and records it on the ledger. Missing tags fall to
// documented defaults: the whole response as the answer, low confidence,
// unclear uniqueness.
func (a *Answerer) ExtractFinalAnswer(ctx context.Context, rec *TaskRecorder) error {
	prompt := a.prompts.render("FINAL_ANSWER_PROMPT", map[string]string{
		"question":     rec.OverallTask,
		"task_results": strings.Join(rec.FormattedPlanWithResults(), "\n\n"),
	})

	result, err := a.gateway.Run(ctx, prompt)
	if err != nil {
		return err
	}
	rec.AppendTrajectory("answerer_extract_final_answer", result.Record)

	answer, confidence, uniqueness := parseFinalResponse(result.FinalOutput)
	rec.SetTentativeAnswer(answer, confidence, uniqueness)
	a.logger.Info(ctx, "tentative answer extracted", "confidence", confidence, "uniqueness", uniqueness)
	return nil
}

// parseFinalResponse extracts answer, confidence, and uniqueness. Grade
// matching tolerates sentence framing around the grade word.
func parseFinalResponse(response string) (answer, confidence, uniqueness string) {
	answer = strings.TrimSpace(response)
	if tagged, ok := firstTag(response, "answer"); ok {
		answer = tagged
	}

	confidence = ConfidenceLow
	if raw, ok := firstTag(response, "confidence"); ok {
		text := strings.ToLower(raw)
		switch {
		case graded(text, ConfidenceHigh):
			confidence = ConfidenceHigh
		case graded(text, ConfidenceMedium):
			confidence = ConfidenceMedium
		}
	}

	uniqueness = UniquenessUnclear
	if raw, ok := firstTag(response, "answer_uniqueness"); ok {
		text := strings.ToLower(raw)
		// Check non-unique first: "unique" is a substring of it.
		switch {
		case graded(text, UniquenessNonUnique):
			uniqueness = UniquenessNonUnique
		case graded(text, UniquenessUnique):
			uniqueness = UniquenessUnique
		}
	}
	return answer, confidence, uniqueness
}

// SelfCheck asks whether the tentative answer actually follows from the
// recorded results. Returns the verdict and the model's analysis; a missing
// verdict tag counts as a failed check.
func (a *Answerer) SelfCheck(ctx context.Context, rec *TaskRecorder) (bool, string, error) {
	prompt := a.prompts.render("ANSWER_SELF_CHECK_PROMPT", map[string]string{
		"question":       rec.OverallTask,
		"task_results":   strings.Join(rec.FormattedPlanWithResults(), "\n\n"),
		"attempt_answer": rec.TentativeAnswer,
	})

	result, err := a.gateway.Run(ctx, prompt)
	if err != nil {
		return false, "", err
	}
	rec.AppendTrajectory("answerer_self_check", result.Record)

	verdict, ok := firstTag(result.FinalOutput, "correct")
	if !ok {
		return false, result.FinalOutput, nil
	}
	passed := strings.EqualFold(verdict, "yes")
	return passed, analysisWithoutVerdict(result.FinalOutput), nil
}

// analysisWithoutVerdict strips the verdict tag so the reflection prompt
// gets the reasoning, not the yes/no.
func analysisWithoutVerdict(response string) string {
	openTag := "<correct>"
	closeTag := "</correct>"
	start := strings.Index(response, openTag)
	if start < 0 {
		return strings.TrimSpace(response)
	}
	end := strings.Index(response[start:], closeTag)
	if end < 0 {
		return strings.TrimSpace(response)
	}
	return strings.TrimSpace(response[:start] + response[start+end+len(closeTag):])
}
