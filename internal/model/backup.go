package model

import "time"

// BackupStatus marks whether a backup-list entry is still parked or has been
// promoted back to active consideration.
type BackupStatus string

const (
	BackupParked   BackupStatus = "backup"
	BackupPromoted BackupStatus = "promoted"
)

// BackupEntry is one diverted candidate. Promotion flips Status in place; the
// entry is never removed.
type BackupEntry struct {
	CandidateID string       `json:"candidate_id"`
	AddedAt     time.Time    `json:"added_at"`
	Reason      string       `json:"reason"`
	Concerns    []string     `json:"concerns"`
	Strengths   []string     `json:"strengths"`
	Narrative   string       `json:"narrative"`
	Status      BackupStatus `json:"status"`
	PromotedAt  *time.Time   `json:"promoted_at,omitempty"`
}

// BackupList is the per-job append-only log of candidates diverted from
// clarification, revisited when the shortlist is under-filled.
type BackupList struct {
	JobID       string        `json:"job_id"`
	Candidates  []BackupEntry `json:"candidates"`
	Count       int           `json:"count"`
	CreatedAt   time.Time     `json:"created_at"`
	LastUpdated time.Time     `json:"last_updated"`
}

// Find returns the entry for a candidate, or nil.
func (b *BackupList) Find(candidateID string) *BackupEntry {
	for i := range b.Candidates {
		if b.Candidates[i].CandidateID == candidateID {
			return &b.Candidates[i]
		}
	}
	return nil
}
