package model

import "time"

// KeyStrength is what makes a candidate compelling.
type KeyStrength struct {
	Category  string `json:"category"`
	Evidence  string `json:"evidence"`
	Relevance string `json:"relevance"`
}

// Concern is what gives us pause about a candidate.
type Concern struct {
	Issue       string `json:"issue"`
	Severity    string `json:"severity"` // minor | moderate | major | disqualifying
	CanMitigate bool   `json:"can_mitigate"`
}

// MaxClarificationQuestions caps the question set sent to a candidate in a
// single clarification email.
const MaxClarificationQuestions = 3

// ClarificationQuestion is a targeted question to resolve uncertainty,
// routed through employer approval before it reaches the candidate.
type ClarificationQuestion struct {
	Question    string `json:"question"`
	WhyAsking   string `json:"why_asking"`
	DealBreaker bool   `json:"deal_breaker"`
}

// GestaltEvaluation is the canonical decision artifact. It is created by the
// first gestalt run and replaced in place by re-evaluation, with the prior
// version preserved in a ReevaluationComparison.
type GestaltEvaluation struct {
	CandidateID string     `json:"candidate_id"`
	JobID       string     `json:"job_id"`
	Decision    Decision   `json:"decision"`
	Confidence  Confidence `json:"confidence"`

	KeyStrengths     []KeyStrength `json:"key_strengths"`
	Concerns         []Concern     `json:"concerns"`
	OverallNarrative string        `json:"overall_narrative"`

	InterviewFocus []string `json:"interview_focus"`
	// ClarificationQuestions is populated only for MAYBE decisions, and holds
	// between one and three questions.
	ClarificationQuestions []ClarificationQuestion `json:"clarification_questions,omitempty"`

	AIDetection    AIDetection      `json:"ai_detection"`
	EliteSignals   []EliteSignal    `json:"elite_signals"`
	BusinessImpact []BusinessImpact `json:"business_impact"`

	Timestamp time.Time `json:"timestamp"`
}

// ConcernIssues returns the issue strings for comparison records and
// backup-list snapshots.
func (e *GestaltEvaluation) ConcernIssues() []string {
	out := make([]string, 0, len(e.Concerns))
	for _, c := range e.Concerns {
		out = append(out, c.Issue)
	}
	return out
}

// StrengthCategories returns the strength category names.
func (e *GestaltEvaluation) StrengthCategories() []string {
	out := make([]string, 0, len(e.KeyStrengths))
	for _, s := range e.KeyStrengths {
		out = append(out, s.Category)
	}
	return out
}

// ReevaluationComparison records the before/after decision diff written when
// a clarification response triggers re-evaluation.
type ReevaluationComparison struct {
	CandidateID            string    `json:"candidate_id"`
	JobID                  string    `json:"job_id"`
	OriginalDecision       Decision  `json:"original_decision"`
	NewDecision            Decision  `json:"new_decision"`
	OriginalConcerns       []string  `json:"original_concerns"`
	NewConcerns            []string  `json:"new_concerns"`
	ClarificationEffective bool      `json:"clarification_effective"`
	ReevaluatedAt          time.Time `json:"reevaluated_at"`
}
