package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrijenattawar/ZoATS/internal/backup"
	"github.com/vrijenattawar/ZoATS/internal/clarify"
	"github.com/vrijenattawar/ZoATS/internal/config"
	"github.com/vrijenattawar/ZoATS/internal/mailer"
	"github.com/vrijenattawar/ZoATS/internal/model"
	"github.com/vrijenattawar/ZoATS/internal/store"
)

type apiFixture struct {
	store   *store.JobStore
	handler http.Handler
	wf      *clarify.Workflow
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	st := store.New(t.TempDir())
	require.NoError(t, st.EnsureCandidate("job-001", "cand-1"))
	require.NoError(t, st.SaveResume("job-001", "cand-1", &model.ParsedResume{
		Text:   "Strategy analyst.",
		Fields: model.ParsedFields{Name: "Pat Lee", Email: "pat@example.com"},
	}))

	wf, err := clarify.NewWorkflow(st, mailer.NewSimSender(), mailer.NewSimInbox(), nil,
		config.ClarifyConfig{ResponseDeadlineDays: 5}, config.EmailConfig{CompanyName: "Northstar Advisory"})
	require.NoError(t, err)

	srv := NewServer(st, wf, backup.NewManager(st))
	return &apiFixture{store: st, handler: srv.Router(), wf: wf}
}

func (f *apiFixture) seedApproval(t *testing.T) *model.ApprovalRequest {
	t.Helper()
	require.NoError(t, f.store.SaveEvaluation("job-001", "cand-1", &model.GestaltEvaluation{
		CandidateID: "cand-1",
		JobID:       "job-001",
		Decision:    model.DecisionMaybe,
		ClarificationQuestions: []model.ClarificationQuestion{
			{Question: "Describe a project where you drove measurable impact.", WhyAsking: "impact unclear"},
		},
	}))
	req, err := f.wf.Initiate(context.Background(), "job-001", "cand-1", false)
	require.NoError(t, err)
	return req
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestListApprovals(t *testing.T) {
	f := newAPIFixture(t)
	f.seedApproval(t)

	rec := f.do(t, http.MethodGet, "/jobs/job-001/approvals", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Approvals []model.ApprovalRequest `json:"approvals"`
		Count     int                     `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, "cand-1", out.Approvals[0].CandidateID)

	// Status filtering.
	rec = f.do(t, http.MethodGet, "/jobs/job-001/approvals?status=approved", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 0, out.Count)
}

func TestGetApproval(t *testing.T) {
	f := newAPIFixture(t)
	req := f.seedApproval(t)

	rec := f.do(t, http.MethodGet, "/jobs/job-001/approvals/"+req.RequestID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.ApprovalRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, req.RequestID, got.RequestID)
	assert.Equal(t, model.ApprovalPending, got.Status)

	rec = f.do(t, http.MethodGet, "/jobs/job-001/approvals/req-missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDecideApproval_Approve(t *testing.T) {
	f := newAPIFixture(t)
	req := f.seedApproval(t)

	rec := f.do(t, http.MethodPost, "/jobs/job-001/approvals/"+req.RequestID+"/decision",
		map[string]any{"action": "approve"})
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.ApprovalRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, model.ApprovalApproved, got.Status)

	pending, err := f.store.PendingSends("job-001")
	require.NoError(t, err)
	assert.Len(t, pending, 1, "approval queues the candidate email")
}

func TestDecideApproval_Errors(t *testing.T) {
	f := newAPIFixture(t)
	req := f.seedApproval(t)

	rec := f.do(t, http.MethodPost, "/jobs/job-001/approvals/"+req.RequestID+"/decision", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing action")

	rec = f.do(t, http.MethodPost, "/jobs/job-001/approvals/req-missing/decision",
		map[string]any{"action": "approve"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Double decision conflicts.
	rec = f.do(t, http.MethodPost, "/jobs/job-001/approvals/"+req.RequestID+"/decision",
		map[string]any{"action": "reject"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodPost, "/jobs/job-001/approvals/"+req.RequestID+"/decision",
		map[string]any{"action": "approve"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetEvaluation(t *testing.T) {
	f := newAPIFixture(t)
	require.NoError(t, f.store.SaveEvaluation("job-001", "cand-1", &model.GestaltEvaluation{
		CandidateID: "cand-1",
		Decision:    model.DecisionInterview,
	}))

	rec := f.do(t, http.MethodGet, "/jobs/job-001/candidates/cand-1/evaluation", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.GestaltEvaluation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, model.DecisionInterview, got.Decision)

	rec = f.do(t, http.MethodGet, "/jobs/job-001/candidates/ghost/evaluation", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBackupEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	bm := backup.NewManager(f.store)
	_, err := bm.Add("job-001", "cand-1", "too many clarifiable concerns", nil)
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/jobs/job-001/backup", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list model.BackupList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Candidates, 1)

	rec = f.do(t, http.MethodPost, "/jobs/job-001/backup/cand-1/promote", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entry model.BackupEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, model.BackupPromoted, entry.Status)

	// Filtered view hides the promoted entry.
	rec = f.do(t, http.MethodGet, "/jobs/job-001/backup?parked=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list.Candidates)

	rec = f.do(t, http.MethodPost, "/jobs/job-001/backup/cand-1/promote", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
