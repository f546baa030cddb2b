package model

import "time"

// Recommendation is the quick-test verdict.
type Recommendation string

const (
	RecommendPass   Recommendation = "pass"
	RecommendReject Recommendation = "reject"
	RecommendReview Recommendation = "review"
)

// HardDisqualifier is a single deal-breaker verdict from the semantic checker.
type HardDisqualifier struct {
	Rule       string  `json:"rule"`
	Violated   bool    `json:"violated"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// SoftFlag is a review-warranting heuristic hit. Soft flags never force
// rejection on their own.
type SoftFlag struct {
	Flag     string `json:"flag"`
	Severity string `json:"severity"` // low | medium | high
	Detail   string `json:"detail"`
}

// RedFlag is an evidence-tagged resume warning.
type RedFlag struct {
	Flag     string `json:"flag"`
	Evidence string `json:"evidence"`
}

// QuickTestResult is the pre-screen artifact. It is created once per run and
// overwritten on re-run, never merged.
type QuickTestResult struct {
	Timestamp   time.Time `json:"timestamp"`
	CandidateID string    `json:"candidate_id"`
	JobID       string    `json:"job_id"`

	HardDisqualifiers      []HardDisqualifier `json:"hard_disqualifiers"`
	HardDisqualifierStatus string             `json:"hard_disqualifier_status"` // pass | fail

	SoftDisqualifiers []SoftFlag `json:"soft_disqualifiers"`
	RedFlags          []RedFlag  `json:"red_flags"`

	// EarlyScoreEstimate is nil when signals are mixed: the gate abstains and
	// defers to the full gestalt pass.
	EarlyScoreEstimate *int       `json:"early_score_estimate"`
	Confidence         Confidence `json:"confidence,omitempty"`

	Recommendation Recommendation `json:"recommendation"`
	Reasoning      string         `json:"reasoning"`

	Source string `json:"source"`
}
