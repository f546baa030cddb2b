package clarify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vrijenattawar/ZoATS/internal/model"
	"github.com/vrijenattawar/ZoATS/internal/store"
)

const responseHeading = "CLARIFICATION RESPONSES"

// Reevaluate re-runs the gestalt engine for a candidate whose clarification
// response has arrived. The response is appended to the parsed resume as a
// labeled addendum, the evaluation artifact is replaced in place, and a
// before/after comparison is written. Non-MAYBE candidates are refused unless
// force is set. With dryRun the engine still runs against the augmented text
// held in memory, but the resume, evaluation, and comparison are untouched.
func (w *Workflow) Reevaluate(ctx context.Context, jobID, candidateID string, force, dryRun bool) (*model.ReevaluationComparison, error) {
	if w.engine == nil {
		return nil, eris.New("clarify: re-evaluation requires a gestalt engine")
	}

	original, err := w.store.LoadEvaluation(jobID, candidateID)
	if err != nil {
		return nil, err
	}
	if original.Decision != model.DecisionMaybe {
		if !force {
			return nil, eris.Errorf("clarify: candidate %s is %s, not MAYBE (use force to override)", candidateID, original.Decision)
		}
		zap.L().Warn("forcing re-evaluation of non-MAYBE candidate",
			zap.String("candidate_id", candidateID),
			zap.String("current_decision", string(original.Decision)))
	}

	resp, err := w.store.LoadClarificationResponse(jobID, candidateID)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			return nil, eris.Errorf("clarify: candidate %s has no clarification response", candidateID)
		}
		return nil, err
	}

	resume, err := w.augmentResume(jobID, candidateID, resp, dryRun)
	if err != nil {
		return nil, err
	}

	rubric, err := w.store.LoadRubric(jobID)
	if err != nil {
		if !eris.Is(err, store.ErrNotFound) {
			return nil, err
		}
		rubric = nil
	}

	updated, err := w.engine.Evaluate(ctx, jobID, candidateID, resume, rubric)
	if err != nil {
		return nil, err
	}
	if !dryRun {
		if err := w.store.SaveEvaluation(jobID, candidateID, updated); err != nil {
			return nil, err
		}
	}

	comparison := &model.ReevaluationComparison{
		CandidateID:            candidateID,
		JobID:                  jobID,
		OriginalDecision:       original.Decision,
		NewDecision:            updated.Decision,
		OriginalConcerns:       original.ConcernIssues(),
		NewConcerns:            updated.ConcernIssues(),
		ClarificationEffective: updated.Decision != model.DecisionPass,
		ReevaluatedAt:          time.Now().UTC(),
	}
	if dryRun {
		zap.L().Info("dry run, re-evaluation not recorded",
			zap.String("candidate_id", candidateID),
			zap.String("original_decision", string(comparison.OriginalDecision)),
			zap.String("new_decision", string(comparison.NewDecision)))
		return comparison, nil
	}
	if err := w.store.SaveComparison(jobID, candidateID, comparison); err != nil {
		return nil, err
	}

	zap.L().Info("candidate re-evaluated",
		zap.String("job_id", jobID),
		zap.String("candidate_id", candidateID),
		zap.String("original_decision", string(comparison.OriginalDecision)),
		zap.String("new_decision", string(comparison.NewDecision)),
		zap.Bool("clarification_effective", comparison.ClarificationEffective))
	return comparison, nil
}

// augmentResume appends the parsed answers to the resume text and returns the
// augmented resume. The append is skipped when the addendum heading is already
// present, so force-runs do not stack duplicates. With dryRun the addendum is
// applied to the in-memory copy only.
func (w *Workflow) augmentResume(jobID, candidateID string, resp *model.ClarificationResponse, dryRun bool) (*model.ParsedResume, error) {
	resume, err := w.store.LoadResume(jobID, candidateID)
	if err != nil {
		return nil, err
	}
	if strings.Contains(resume.Text, "## "+responseHeading) {
		return resume, nil
	}
	if dryRun {
		resume.Text = resume.Text + "\n\n## " + responseHeading + "\n\n" + formatAnswers(resp.Answers) + "\n"
		return resume, nil
	}
	if err := w.store.AppendResumeAddendum(jobID, candidateID, responseHeading, formatAnswers(resp.Answers)); err != nil {
		return nil, err
	}
	return w.store.LoadResume(jobID, candidateID)
}

func formatAnswers(answers map[string]string) string {
	keys := make([]string, 0, len(answers))
	for k := range answers {
		if k == "full_response" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "**%s:** %s\n\n", strings.ToUpper(k), answers[k])
	}
	if b.Len() == 0 {
		if full, ok := answers["full_response"]; ok {
			b.WriteString(full)
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
