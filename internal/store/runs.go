package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/vrijenattawar/ZoATS/internal/model"
)

// RunStore records batch run history in a per-job SQLite database. The JSON
// artifact tree stays the source of truth for candidate state; the database
// exists so past runs can be queried after pipeline_run.json has been
// overwritten by a newer batch.
type RunStore struct {
	db *sql.DB
}

// OpenRunStore opens (creating if needed) the run history database for a job.
func OpenRunStore(jobDir string) (*RunStore, error) {
	db, err := sql.Open("sqlite", filepath.Join(jobDir, "runs.db"))
	if err != nil {
		return nil, eris.Wrap(err, "runstore: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "runstore: exec %s", pragma)
		}
	}
	return &RunStore{db: db}, nil
}

const runMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	job_id      TEXT NOT NULL,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME,
	totals      TEXT
);

CREATE TABLE IF NOT EXISTS candidate_runs (
	id           TEXT PRIMARY KEY,
	run_id       TEXT NOT NULL REFERENCES runs(id),
	candidate_id TEXT NOT NULL,
	status       TEXT NOT NULL,
	decision     TEXT,
	result       TEXT,
	recorded_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_job_id ON runs(job_id);
CREATE INDEX IF NOT EXISTS idx_candidate_runs_run_id ON candidate_runs(run_id);
CREATE INDEX IF NOT EXISTS idx_candidate_runs_candidate_id ON candidate_runs(candidate_id);
`

func (s *RunStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, runMigration)
	return eris.Wrap(err, "runstore: migrate")
}

func (s *RunStore) Close() error {
	return s.db.Close()
}

// BeginRun records the start of a batch run and returns its id.
func (s *RunStore) BeginRun(ctx context.Context, jobID string, startedAt time.Time) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, job_id, started_at) VALUES (?, ?, ?)`,
		id, jobID, startedAt.UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "runstore: insert run")
	}
	return id, nil
}

// FinishRun closes out a batch run with its aggregate totals.
func (s *RunStore) FinishRun(ctx context.Context, runID string, finishedAt time.Time, totals *model.RunTotals) error {
	totalsJSON, err := json.Marshal(totals)
	if err != nil {
		return eris.Wrap(err, "runstore: marshal totals")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, totals = ? WHERE id = ?`,
		finishedAt.UTC(), string(totalsJSON), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "runstore: finish run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

// RecordCandidate appends a per-candidate outcome to a run.
func (s *RunStore) RecordCandidate(ctx context.Context, runID string, result *model.CandidateResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "runstore: marshal candidate result")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO candidate_runs (id, run_id, candidate_id, status, decision, result, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), runID, result.CandidateID,
		string(result.Status), string(result.Decision), string(resultJSON), time.Now().UTC(),
	)
	return eris.Wrapf(err, "runstore: record candidate %s", result.CandidateID)
}

// RunRecord is a stored batch run with its totals.
type RunRecord struct {
	ID         string
	JobID      string
	StartedAt  time.Time
	FinishedAt *time.Time
	Totals     *model.RunTotals
}

// ListRuns returns the most recent runs for a job, newest first.
func (s *RunStore) ListRuns(ctx context.Context, jobID string, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_id, started_at, finished_at, totals FROM runs
		 WHERE job_id = ? ORDER BY started_at DESC LIMIT ?`,
		jobID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "runstore: list runs")
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		var finished sql.NullTime
		var totalsJSON sql.NullString
		if err := rows.Scan(&r.ID, &r.JobID, &r.StartedAt, &finished, &totalsJSON); err != nil {
			return nil, eris.Wrap(err, "runstore: scan run")
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		if totalsJSON.Valid {
			r.Totals = &model.RunTotals{}
			if err := json.Unmarshal([]byte(totalsJSON.String), r.Totals); err != nil {
				return nil, eris.Wrap(err, "runstore: unmarshal totals")
			}
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "runstore: list runs iterate")
}

// CandidateHistory returns every recorded outcome for a candidate across
// runs, newest first.
func (s *RunStore) CandidateHistory(ctx context.Context, candidateID string) ([]model.CandidateResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT result FROM candidate_runs WHERE candidate_id = ? ORDER BY recorded_at DESC`,
		candidateID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "runstore: candidate history")
	}
	defer rows.Close()

	var out []model.CandidateResult
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, eris.Wrap(err, "runstore: scan candidate run")
		}
		var cr model.CandidateResult
		if err := json.Unmarshal([]byte(raw), &cr); err != nil {
			return nil, eris.Wrap(err, "runstore: unmarshal candidate run")
		}
		out = append(out, cr)
	}
	return out, eris.Wrap(rows.Err(), "runstore: candidate history iterate")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
