// Package store persists the per-job artifact tree. Every artifact is a JSON
// file scoped to (job, candidate) or to the job; writes are atomic (temp file
// + rename) so a crashed worker never leaves a half-written artifact.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// ErrNotFound marks a missing required artifact or directory. Stage workers
// treat it as a missing-precondition failure: fatal to the stage, never
// fabricated around.
var ErrNotFound = eris.New("store: not found")

// JobStore resolves and reads/writes the artifact tree under a jobs root.
type JobStore struct {
	root string
}

// New creates a JobStore rooted at the jobs directory.
func New(root string) *JobStore {
	return &JobStore{root: root}
}

// Root returns the jobs root directory.
func (s *JobStore) Root() string { return s.root }

// JobDir returns the directory for a job.
func (s *JobStore) JobDir(job string) string {
	return filepath.Join(s.root, job)
}

// CandidateDir returns the directory for a candidate within a job.
func (s *JobStore) CandidateDir(job, candidate string) string {
	return filepath.Join(s.root, job, "candidates", candidate)
}

// CandidatesDir returns the parent directory of all candidates in a job.
func (s *JobStore) CandidatesDir(job string) string {
	return filepath.Join(s.root, job, "candidates")
}

// OutputsDir returns a candidate's derived-artifact directory.
func (s *JobStore) OutputsDir(job, candidate string) string {
	return filepath.Join(s.CandidateDir(job, candidate), "outputs")
}

// RequireJob verifies the job directory exists.
func (s *JobStore) RequireJob(job string) error {
	if _, err := os.Stat(s.JobDir(job)); err != nil {
		return eris.Wrapf(ErrNotFound, "job directory %s", s.JobDir(job))
	}
	return nil
}

// RequireCandidate verifies both the job and candidate directories exist.
func (s *JobStore) RequireCandidate(job, candidate string) error {
	if err := s.RequireJob(job); err != nil {
		return err
	}
	if _, err := os.Stat(s.CandidateDir(job, candidate)); err != nil {
		return eris.Wrapf(ErrNotFound, "candidate directory %s", s.CandidateDir(job, candidate))
	}
	return nil
}

// ListCandidates returns the candidate ids present under a job.
func (s *JobStore) ListCandidates(job string) ([]string, error) {
	entries, err := os.ReadDir(s.CandidatesDir(job))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: list candidates for %s", job)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// ReadJSON unmarshals a JSON artifact into v. Returns ErrNotFound when the
// file is absent.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return eris.Wrapf(ErrNotFound, "%s", path)
		}
		return eris.Wrapf(err, "store: read %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return eris.Wrapf(err, "store: unmarshal %s", path)
	}
	return nil
}

// WriteJSON marshals v and writes it atomically, creating parent directories
// as needed.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "store: marshal %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "store: mkdir for %s", path)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return eris.Wrapf(err, "store: temp file for %s", path)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrapf(err, "store: write %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return eris.Wrapf(err, "store: close %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return eris.Wrapf(err, "store: rename into %s", path)
	}
	return nil
}

// Exists reports whether a path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
