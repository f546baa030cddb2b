// Package dossier renders the human-readable candidate summary from the
// decision artifacts. The markdown is the review surface; the structured copy
// feeds exports.
package dossier

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vrijenattawar/ZoATS/internal/model"
	"github.com/vrijenattawar/ZoATS/internal/store"
)

// Structured is the machine-readable dossier payload.
type Structured struct {
	CandidateID    string           `json:"candidate_id"`
	JobID          string           `json:"job_id"`
	Decision       model.Decision   `json:"decision"`
	Confidence     model.Confidence `json:"confidence"`
	Strengths      []string         `json:"strengths"`
	Concerns       []string         `json:"concerns"`
	InterviewFocus []string         `json:"interview_focus,omitempty"`
	Narrative      string           `json:"narrative"`
	AILikelihood   string           `json:"ai_likelihood"`
	QuickTest      string           `json:"quick_test,omitempty"`
	GeneratedAt    time.Time        `json:"generated_at"`
}

// Generator builds dossiers from stored artifacts.
type Generator struct {
	store *store.JobStore
}

// NewGenerator creates a Generator.
func NewGenerator(st *store.JobStore) *Generator {
	return &Generator{store: st}
}

// Generate writes dossier.md and dossier.json for a candidate. It requires
// the gestalt evaluation; the quick-test result enriches the dossier when
// present but its absence is not an error.
func (g *Generator) Generate(jobID, candidateID string) (*Structured, error) {
	eval, err := g.store.LoadEvaluation(jobID, candidateID)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			return nil, eris.Errorf("dossier: candidate %s has no evaluation yet", candidateID)
		}
		return nil, err
	}

	quick, err := g.store.LoadQuickTest(jobID, candidateID)
	if err != nil && !eris.Is(err, store.ErrNotFound) {
		return nil, err
	}

	structured := &Structured{
		CandidateID:    candidateID,
		JobID:          jobID,
		Decision:       eval.Decision,
		Confidence:     eval.Confidence,
		Strengths:      eval.StrengthCategories(),
		Concerns:       eval.ConcernIssues(),
		InterviewFocus: eval.InterviewFocus,
		Narrative:      eval.OverallNarrative,
		AILikelihood:   eval.AIDetection.Likelihood,
		GeneratedAt:    time.Now().UTC(),
	}
	if quick != nil {
		structured.QuickTest = string(quick.Recommendation)
	}

	markdown := render(eval, quick)
	if err := g.store.SaveDossier(jobID, candidateID, markdown, structured); err != nil {
		return nil, err
	}

	zap.L().Info("dossier generated",
		zap.String("job_id", jobID),
		zap.String("candidate_id", candidateID),
		zap.String("decision", string(eval.Decision)))
	return structured, nil
}

func render(eval *model.GestaltEvaluation, quick *model.QuickTestResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Candidate Dossier: %s\n\n", eval.CandidateID)
	fmt.Fprintf(&b, "**Decision:** %s (%s confidence)\n\n", eval.Decision, eval.Confidence)
	fmt.Fprintf(&b, "**Evaluated:** %s\n\n", eval.Timestamp.UTC().Format("2006-01-02 15:04 MST"))

	if eval.OverallNarrative != "" {
		b.WriteString("## Summary\n\n")
		b.WriteString(eval.OverallNarrative)
		b.WriteString("\n\n")
	}

	if len(eval.KeyStrengths) > 0 {
		b.WriteString("## Key Strengths\n\n")
		for _, s := range eval.KeyStrengths {
			fmt.Fprintf(&b, "- **%s**: %s", s.Category, s.Evidence)
			if s.Relevance != "" {
				fmt.Fprintf(&b, " (%s)", s.Relevance)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(eval.Concerns) > 0 {
		b.WriteString("## Concerns\n\n")
		for _, c := range eval.Concerns {
			fmt.Fprintf(&b, "- %s (%s", c.Issue, c.Severity)
			if c.CanMitigate {
				b.WriteString(", mitigable")
			}
			b.WriteString(")\n")
		}
		b.WriteString("\n")
	}

	if len(eval.InterviewFocus) > 0 {
		b.WriteString("## Interview Focus\n\n")
		for _, f := range eval.InterviewFocus {
			fmt.Fprintf(&b, "- %s\n", f)
		}
		b.WriteString("\n")
	}

	if len(eval.ClarificationQuestions) > 0 {
		b.WriteString("## Open Clarification Questions\n\n")
		for i, q := range eval.ClarificationQuestions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, q.Question)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## AI Authorship\n\nLikelihood: %s", eval.AIDetection.Likelihood)
	if eval.AIDetection.Reasoning != "" {
		fmt.Fprintf(&b, "\n\n%s", eval.AIDetection.Reasoning)
	}
	b.WriteString("\n\n")

	if quick != nil {
		fmt.Fprintf(&b, "## Quick Test\n\nRecommendation: %s\n\n", quick.Recommendation)
		if quick.Reasoning != "" {
			b.WriteString(quick.Reasoning)
			b.WriteString("\n\n")
		}
		if quick.EarlyScoreEstimate != nil {
			fmt.Fprintf(&b, "Early score estimate: %d (%s confidence)\n\n", *quick.EarlyScoreEstimate, quick.Confidence)
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}
