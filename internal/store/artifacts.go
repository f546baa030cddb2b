package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/vrijenattawar/ZoATS/internal/model"
)

// Artifact file names within a candidate's outputs directory.
const (
	fileQuickTest  = "quick_test.json"
	fileEvaluation = "gestalt_evaluation.json"
	fileExtraction = "signal_extraction_cache.json"
	fileComparison = "reevaluation_comparison.json"
	fileResponse   = "clarification_response.json"
	fileEmailDraft = "clarification_email_draft.json"
	fileDossier    = "dossier.json"
)

// --- Job-level artifacts ---

// LoadRubric reads the job rubric. A missing rubric is fatal: every stage
// downstream of parsing needs it.
func (s *JobStore) LoadRubric(job string) (*model.Rubric, error) {
	var r model.Rubric
	if err := ReadJSON(filepath.Join(s.JobDir(job), "rubric.json"), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// SaveRubric writes the job rubric.
func (s *JobStore) SaveRubric(job string, r *model.Rubric) error {
	return WriteJSON(filepath.Join(s.JobDir(job), "rubric.json"), r)
}

// LoadDealBreakers reads the job's hard disqualification rules. An absent
// file means the job has none configured.
func (s *JobStore) LoadDealBreakers(job string) ([]string, error) {
	var rules []string
	err := ReadJSON(filepath.Join(s.JobDir(job), "deal_breakers.json"), &rules)
	if eris.Is(err, ErrNotFound) {
		return nil, nil
	}
	return rules, err
}

// SaveDealBreakers writes the job's hard disqualification rules.
func (s *JobStore) SaveDealBreakers(job string, rules []string) error {
	return WriteJSON(filepath.Join(s.JobDir(job), "deal_breakers.json"), rules)
}

// --- Candidate resume ---

// LoadResume reads a candidate's parsed resume text and structured fields.
func (s *JobStore) LoadResume(job, candidate string) (*model.ParsedResume, error) {
	dir := filepath.Join(s.CandidateDir(job, candidate), "parsed")
	text, err := os.ReadFile(filepath.Join(dir, "text.md"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, eris.Wrapf(ErrNotFound, "parsed resume for %s/%s", job, candidate)
		}
		return nil, eris.Wrapf(err, "store: read resume text for %s/%s", job, candidate)
	}
	resume := &model.ParsedResume{Text: string(text)}
	if err := ReadJSON(filepath.Join(dir, "fields.json"), &resume.Fields); err != nil && !eris.Is(err, ErrNotFound) {
		return nil, err
	}
	return resume, nil
}

// SaveResume writes a candidate's parsed resume.
func (s *JobStore) SaveResume(job, candidate string, resume *model.ParsedResume) error {
	dir := filepath.Join(s.CandidateDir(job, candidate), "parsed")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "store: mkdir parsed for %s/%s", job, candidate)
	}
	if err := os.WriteFile(filepath.Join(dir, "text.md"), []byte(resume.Text), 0o644); err != nil {
		return eris.Wrapf(err, "store: write resume text for %s/%s", job, candidate)
	}
	return WriteJSON(filepath.Join(dir, "fields.json"), resume.Fields)
}

// AppendResumeAddendum appends a labeled section to the resume text so later
// readers can tell candidate-authored content from post-hoc additions.
func (s *JobStore) AppendResumeAddendum(job, candidate, heading, body string) error {
	path := filepath.Join(s.CandidateDir(job, candidate), "parsed", "text.md")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsNotExist(err) {
			return eris.Wrapf(ErrNotFound, "parsed resume for %s/%s", job, candidate)
		}
		return eris.Wrapf(err, "store: open resume for append %s/%s", job, candidate)
	}
	defer f.Close()
	stamp := time.Now().UTC().Format("2006-01-02")
	if _, err := fmt.Fprintf(f, "\n\n---\n\n## %s (%s)\n\n%s\n", heading, stamp, body); err != nil {
		return eris.Wrapf(err, "store: append addendum for %s/%s", job, candidate)
	}
	return nil
}

// --- Candidate outputs ---

func (s *JobStore) outputPath(job, candidate, name string) string {
	return filepath.Join(s.OutputsDir(job, candidate), name)
}

func (s *JobStore) LoadQuickTest(job, candidate string) (*model.QuickTestResult, error) {
	var r model.QuickTestResult
	if err := ReadJSON(s.outputPath(job, candidate, fileQuickTest), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *JobStore) SaveQuickTest(job, candidate string, r *model.QuickTestResult) error {
	return WriteJSON(s.outputPath(job, candidate, fileQuickTest), r)
}

func (s *JobStore) LoadEvaluation(job, candidate string) (*model.GestaltEvaluation, error) {
	var e model.GestaltEvaluation
	if err := ReadJSON(s.outputPath(job, candidate, fileEvaluation), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *JobStore) SaveEvaluation(job, candidate string, e *model.GestaltEvaluation) error {
	return WriteJSON(s.outputPath(job, candidate, fileEvaluation), e)
}

func (s *JobStore) LoadComparison(job, candidate string) (*model.ReevaluationComparison, error) {
	var c model.ReevaluationComparison
	if err := ReadJSON(s.outputPath(job, candidate, fileComparison), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *JobStore) SaveComparison(job, candidate string, c *model.ReevaluationComparison) error {
	return WriteJSON(s.outputPath(job, candidate, fileComparison), c)
}

func (s *JobStore) LoadClarificationResponse(job, candidate string) (*model.ClarificationResponse, error) {
	var r model.ClarificationResponse
	if err := ReadJSON(s.outputPath(job, candidate, fileResponse), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *JobStore) SaveClarificationResponse(job, candidate string, r *model.ClarificationResponse) error {
	return WriteJSON(s.outputPath(job, candidate, fileResponse), r)
}

func (s *JobStore) LoadEmailDraft(job, candidate string) (*model.ClarificationEmail, error) {
	var d model.ClarificationEmail
	if err := ReadJSON(s.outputPath(job, candidate, fileEmailDraft), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *JobStore) SaveEmailDraft(job, candidate string, d *model.ClarificationEmail) error {
	return WriteJSON(s.outputPath(job, candidate, fileEmailDraft), d)
}

// SaveDossier writes both the rendered markdown dossier and its structured
// companion.
func (s *JobStore) SaveDossier(job, candidate, markdown string, structured any) error {
	dir := s.OutputsDir(job, candidate)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "store: mkdir outputs for %s/%s", job, candidate)
	}
	if err := os.WriteFile(filepath.Join(dir, "dossier.md"), []byte(markdown), 0o644); err != nil {
		return eris.Wrapf(err, "store: write dossier for %s/%s", job, candidate)
	}
	return WriteJSON(filepath.Join(dir, fileDossier), structured)
}

// --- Extraction cache ---

// CachedExtraction returns a previously stored extraction result, or nil when
// none exists.
func (s *JobStore) CachedExtraction(job, candidate string) (*model.ExtractionResult, error) {
	var r model.ExtractionResult
	err := ReadJSON(s.outputPath(job, candidate, fileExtraction), &r)
	if eris.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// SaveExtraction stores an extraction result for reuse by later evaluations.
func (s *JobStore) SaveExtraction(job, candidate string, r *model.ExtractionResult) error {
	return WriteJSON(s.outputPath(job, candidate, fileExtraction), r)
}

// --- Approvals ---

func (s *JobStore) approvalsDir(job string) string {
	return filepath.Join(s.JobDir(job), "approvals")
}

// SaveApproval persists an approval request keyed by its request id.
func (s *JobStore) SaveApproval(job string, req *model.ApprovalRequest) error {
	return WriteJSON(filepath.Join(s.approvalsDir(job), req.RequestID+".json"), req)
}

// LoadApproval reads an approval request by id.
func (s *JobStore) LoadApproval(job, requestID string) (*model.ApprovalRequest, error) {
	var req model.ApprovalRequest
	if err := ReadJSON(filepath.Join(s.approvalsDir(job), requestID+".json"), &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// ListApprovals returns all approval requests for a job, oldest first.
func (s *JobStore) ListApprovals(job string) ([]*model.ApprovalRequest, error) {
	entries, err := os.ReadDir(s.approvalsDir(job))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: list approvals for %s", job)
	}
	var out []*model.ApprovalRequest
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		var req model.ApprovalRequest
		if err := ReadJSON(filepath.Join(s.approvalsDir(job), e.Name()), &req); err != nil {
			return nil, err
		}
		out = append(out, &req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// FindOpenApproval returns the candidate's open approval request, or nil when
// every request for the candidate has reached a terminal state. At most one
// open request may exist per candidate.
func (s *JobStore) FindOpenApproval(job, candidate string) (*model.ApprovalRequest, error) {
	reqs, err := s.ListApprovals(job)
	if err != nil {
		return nil, err
	}
	for _, req := range reqs {
		if req.CandidateID == candidate && req.Status.Open() {
			return req, nil
		}
	}
	return nil, nil
}

// FindApprovalByRequestID reads an approval request by id, returning
// ErrNotFound when no such request exists.
func (s *JobStore) FindApprovalByRequestID(job, requestID string) (*model.ApprovalRequest, error) {
	return s.LoadApproval(job, requestID)
}

// --- Send queue ---

func (s *JobStore) sendQueueDir(job string) string {
	return filepath.Join(s.JobDir(job), "send_queue")
}

// EnqueueSend persists a send request keyed by its request id.
func (s *JobStore) EnqueueSend(job string, req *model.SendRequest) error {
	return WriteJSON(filepath.Join(s.sendQueueDir(job), req.RequestID+"_send.json"), req)
}

// SaveSend rewrites an existing send request (status, attempts, result).
func (s *JobStore) SaveSend(job string, req *model.SendRequest) error {
	return s.EnqueueSend(job, req)
}

// PendingSends returns queue entries still awaiting dispatch, oldest first.
func (s *JobStore) PendingSends(job string) ([]*model.SendRequest, error) {
	all, err := s.ListSends(job)
	if err != nil {
		return nil, err
	}
	var out []*model.SendRequest
	for _, req := range all {
		if req.Status == model.SendPending {
			out = append(out, req)
		}
	}
	return out, nil
}

// ListSends returns every queue entry for a job, oldest first.
func (s *JobStore) ListSends(job string) ([]*model.SendRequest, error) {
	entries, err := os.ReadDir(s.sendQueueDir(job))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: list send queue for %s", job)
	}
	var out []*model.SendRequest
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		var req model.SendRequest
		if err := ReadJSON(filepath.Join(s.sendQueueDir(job), e.Name()), &req); err != nil {
			return nil, err
		}
		out = append(out, &req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QueuedAt.Before(out[j].QueuedAt) })
	return out, nil
}

// --- Reevaluation queue ---

func (s *JobStore) reevalQueueDir(job string) string {
	return filepath.Join(s.JobDir(job), "reevaluation_queue")
}

// EnqueueReevaluation persists a reevaluation task keyed by candidate id, so
// repeat response processing overwrites rather than duplicates.
func (s *JobStore) EnqueueReevaluation(job string, task *model.ReevaluationTask) error {
	return WriteJSON(filepath.Join(s.reevalQueueDir(job), task.CandidateID+"_reeval.json"), task)
}

// SaveReevaluation rewrites a task after processing.
func (s *JobStore) SaveReevaluation(job string, task *model.ReevaluationTask) error {
	return s.EnqueueReevaluation(job, task)
}

// PendingReevaluations returns tasks awaiting processing, oldest first.
func (s *JobStore) PendingReevaluations(job string) ([]*model.ReevaluationTask, error) {
	entries, err := os.ReadDir(s.reevalQueueDir(job))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: list reevaluation queue for %s", job)
	}
	var out []*model.ReevaluationTask
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		var task model.ReevaluationTask
		if err := ReadJSON(filepath.Join(s.reevalQueueDir(job), e.Name()), &task); err != nil {
			return nil, err
		}
		if task.Status == model.TaskPending {
			out = append(out, &task)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// --- Backup list ---

func (s *JobStore) backupListPath(job string) string {
	return filepath.Join(s.JobDir(job), "backup_list.json")
}

// LoadBackupList reads the job's backup list. An absent file yields an empty
// list.
func (s *JobStore) LoadBackupList(job string) (*model.BackupList, error) {
	var list model.BackupList
	err := ReadJSON(s.backupListPath(job), &list)
	if eris.Is(err, ErrNotFound) {
		return &model.BackupList{JobID: job}, nil
	}
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// SaveBackupList writes the job's backup list.
func (s *JobStore) SaveBackupList(job string, list *model.BackupList) error {
	return WriteJSON(s.backupListPath(job), list)
}

// --- Run summary ---

// SavePipelineRun writes the latest batch run summary for a job.
func (s *JobStore) SavePipelineRun(job string, run *model.RunSummary) error {
	return WriteJSON(filepath.Join(s.JobDir(job), "pipeline_run.json"), run)
}

// LoadPipelineRun reads the latest batch run summary.
func (s *JobStore) LoadPipelineRun(job string) (*model.RunSummary, error) {
	var run model.RunSummary
	if err := ReadJSON(filepath.Join(s.JobDir(job), "pipeline_run.json"), &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// EnsureJob creates the job directory skeleton.
func (s *JobStore) EnsureJob(job string) error {
	for _, dir := range []string{
		s.JobDir(job),
		s.CandidatesDir(job),
		s.approvalsDir(job),
		s.sendQueueDir(job),
		s.reevalQueueDir(job),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "store: ensure job %s", job)
		}
	}
	return nil
}

// EnsureCandidate creates the candidate directory skeleton.
func (s *JobStore) EnsureCandidate(job, candidate string) error {
	for _, dir := range []string{
		filepath.Join(s.CandidateDir(job, candidate), "raw"),
		filepath.Join(s.CandidateDir(job, candidate), "parsed"),
		s.OutputsDir(job, candidate),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "store: ensure candidate %s/%s", job, candidate)
		}
	}
	return nil
}
