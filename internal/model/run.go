package model

import "time"

// CandidateStatus is the orchestrator's per-candidate outcome. Failure values
// name the stage that short-circuited the rest of the pipeline.
type CandidateStatus string

const (
	StatusComplete             CandidateStatus = "complete"
	StatusPartialComplete      CandidateStatus = "partial_complete"
	StatusRejectedQuickTest    CandidateStatus = "rejected_quick_test"
	StatusClarificationPending CandidateStatus = "clarification_pending"
	StatusBackupList           CandidateStatus = "backup_list"
	StatusParserFailed         CandidateStatus = "parser_failed"
	StatusQuickTestFailed      CandidateStatus = "quick_test_failed"
	StatusScorerFailed         CandidateStatus = "scorer_failed"
	StatusDossierFailed        CandidateStatus = "dossier_failed"
	StatusError                CandidateStatus = "error"
)

// StepResult records one stage's outcome for a candidate.
type StepResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// CandidateResult aggregates a candidate's trip through the pipeline.
type CandidateResult struct {
	CandidateID     string                `json:"candidate_id"`
	Status          CandidateStatus       `json:"status"`
	Decision        Decision              `json:"decision,omitempty"`
	QuickTestResult Recommendation        `json:"quick_test_recommendation,omitempty"`
	Steps           map[string]StepResult `json:"steps"`
	Error           string                `json:"error,omitempty"`
}

// RunSummary is the consolidated pipeline_run.json payload.
type RunSummary struct {
	Job                 string            `json:"job"`
	StartedAt           time.Time         `json:"started_at"`
	FinishedAt          time.Time         `json:"finished_at"`
	CandidatesProcessed int               `json:"candidates_processed"`
	CandidateResults    []CandidateResult `json:"candidate_results"`
	Summary             RunTotals         `json:"summary"`
}

// RunTotals is the per-run rollup, including the decision histogram.
type RunTotals struct {
	Total                int              `json:"total"`
	Complete             int              `json:"complete"`
	Partial              int              `json:"partial"`
	ClarificationPending int              `json:"clarification_pending"`
	Failed               int              `json:"failed"`
	DecisionBreakdown    map[Decision]int `json:"decision_breakdown"`
}
