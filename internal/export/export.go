// Package export writes the job's decision roster to an XLSX workbook for
// sharing with the hiring team.
package export

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/vrijenattawar/ZoATS/internal/store"
)

// Exporter builds roster workbooks from stored artifacts.
type Exporter struct {
	store *store.JobStore
}

// NewExporter creates an Exporter.
func NewExporter(st *store.JobStore) *Exporter {
	return &Exporter{store: st}
}

// Export writes the roster for a job to path. Candidates without an
// evaluation appear with a blank decision rather than being dropped, so the
// sheet always covers the full candidate set.
func (e *Exporter) Export(jobID, path string) (int, error) {
	if err := e.store.RequireJob(jobID); err != nil {
		return 0, err
	}
	candidates, err := e.store.ListCandidates(jobID)
	if err != nil {
		return 0, err
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Candidates")
	if err != nil {
		return 0, eris.Wrap(err, "export: add sheet")
	}
	addRow(sheet, "Candidate", "Decision", "Confidence", "Quick Test", "AI Likelihood",
		"Strengths", "Concerns", "Clarification Effective", "Narrative")

	for _, cid := range candidates {
		row := []string{cid, "", "", "", "", "", "", "", ""}

		if eval, err := e.store.LoadEvaluation(jobID, cid); err == nil {
			row[1] = string(eval.Decision)
			row[2] = string(eval.Confidence)
			row[4] = eval.AIDetection.Likelihood
			row[5] = strings.Join(eval.StrengthCategories(), "; ")
			row[6] = strings.Join(eval.ConcernIssues(), "; ")
			row[8] = eval.OverallNarrative
		} else if !eris.Is(err, store.ErrNotFound) {
			return 0, err
		}

		if quick, err := e.store.LoadQuickTest(jobID, cid); err == nil {
			row[3] = string(quick.Recommendation)
		} else if !eris.Is(err, store.ErrNotFound) {
			return 0, err
		}

		if cmp, err := e.store.LoadComparison(jobID, cid); err == nil {
			row[7] = fmt.Sprintf("%t", cmp.ClarificationEffective)
		} else if !eris.Is(err, store.ErrNotFound) {
			return 0, err
		}

		addRow(sheet, row...)
	}

	if err := e.addBackupSheet(f, jobID); err != nil {
		return 0, err
	}

	if err := f.Save(path); err != nil {
		return 0, eris.Wrapf(err, "export: save %s", path)
	}

	zap.L().Info("roster exported",
		zap.String("job_id", jobID),
		zap.String("path", path),
		zap.Int("candidates", len(candidates)))
	return len(candidates), nil
}

func (e *Exporter) addBackupSheet(f *xlsx.File, jobID string) error {
	list, err := e.store.LoadBackupList(jobID)
	if err != nil {
		return err
	}
	if len(list.Candidates) == 0 {
		return nil
	}

	sheet, err := f.AddSheet("Backup List")
	if err != nil {
		return eris.Wrap(err, "export: add backup sheet")
	}
	addRow(sheet, "Candidate", "Status", "Added", "Reason", "Concerns")
	for _, entry := range list.Candidates {
		addRow(sheet,
			entry.CandidateID,
			string(entry.Status),
			entry.AddedAt.Format("2006-01-02"),
			entry.Reason,
			strings.Join(entry.Concerns, "; "))
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().Value = v
	}
}
