// Package backup manages the per-job backup list: candidates diverted from
// clarification because they carried too many open questions, parked for when
// the shortlist is under-filled.
package backup

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vrijenattawar/ZoATS/internal/model"
	"github.com/vrijenattawar/ZoATS/internal/store"
)

// Manager mediates all backup-list mutations so entries stay append-only.
type Manager struct {
	store *store.JobStore
}

// NewManager creates a Manager.
func NewManager(st *store.JobStore) *Manager {
	return &Manager{store: st}
}

// Add parks a candidate on the backup list with a snapshot of the evaluation
// that diverted them. Adding an already-listed candidate is a no-op, so
// pipeline re-runs do not duplicate entries.
func (m *Manager) Add(jobID, candidateID, reason string, eval *model.GestaltEvaluation) (*model.BackupEntry, error) {
	list, err := m.store.LoadBackupList(jobID)
	if err != nil {
		return nil, err
	}
	if entry := list.Find(candidateID); entry != nil {
		zap.L().Debug("candidate already on backup list",
			zap.String("job_id", jobID),
			zap.String("candidate_id", candidateID))
		return entry, nil
	}

	now := time.Now().UTC()
	entry := model.BackupEntry{
		CandidateID: candidateID,
		AddedAt:     now,
		Reason:      reason,
		Status:      model.BackupParked,
	}
	if eval != nil {
		entry.Concerns = eval.ConcernIssues()
		entry.Strengths = eval.StrengthCategories()
		entry.Narrative = eval.OverallNarrative
	}

	if list.CreatedAt.IsZero() {
		list.CreatedAt = now
	}
	list.Candidates = append(list.Candidates, entry)
	list.Count = len(list.Candidates)
	list.LastUpdated = now

	if err := m.store.SaveBackupList(jobID, list); err != nil {
		return nil, err
	}
	zap.L().Info("candidate added to backup list",
		zap.String("job_id", jobID),
		zap.String("candidate_id", candidateID),
		zap.String("reason", reason),
		zap.Int("count", list.Count))
	return list.Find(candidateID), nil
}

// Promote flips a parked entry to promoted in place. The entry is never
// removed, so the list stays a full history of diversions. Promoting a
// missing or already-promoted candidate fails without touching the file.
func (m *Manager) Promote(jobID, candidateID string) (*model.BackupEntry, error) {
	list, err := m.store.LoadBackupList(jobID)
	if err != nil {
		return nil, err
	}
	entry := list.Find(candidateID)
	if entry == nil {
		return nil, eris.Errorf("backup: candidate %s is not on the backup list for %s", candidateID, jobID)
	}
	if entry.Status == model.BackupPromoted {
		return nil, eris.Errorf("backup: candidate %s was already promoted", candidateID)
	}

	now := time.Now().UTC()
	entry.Status = model.BackupPromoted
	entry.PromotedAt = &now
	list.LastUpdated = now

	if err := m.store.SaveBackupList(jobID, list); err != nil {
		return nil, err
	}
	zap.L().Info("candidate promoted from backup list",
		zap.String("job_id", jobID),
		zap.String("candidate_id", candidateID))
	return entry, nil
}

// List returns the backup list, optionally filtered to parked entries.
func (m *Manager) List(jobID string, parkedOnly bool) (*model.BackupList, error) {
	list, err := m.store.LoadBackupList(jobID)
	if err != nil {
		return nil, err
	}
	if !parkedOnly {
		return list, nil
	}
	filtered := &model.BackupList{
		JobID:       list.JobID,
		CreatedAt:   list.CreatedAt,
		LastUpdated: list.LastUpdated,
	}
	for _, e := range list.Candidates {
		if e.Status == model.BackupParked {
			filtered.Candidates = append(filtered.Candidates, e)
		}
	}
	filtered.Count = len(filtered.Candidates)
	return filtered, nil
}
