package clarify

import (
	"context"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrijenattawar/ZoATS/internal/config"
	"github.com/vrijenattawar/ZoATS/internal/gestalt"
	"github.com/vrijenattawar/ZoATS/internal/mailer"
	"github.com/vrijenattawar/ZoATS/internal/model"
	"github.com/vrijenattawar/ZoATS/internal/store"
)

type fixedExtractor struct {
	result *model.ExtractionResult
}

func (f *fixedExtractor) ExtractSignals(_ context.Context, _, _ string) (*model.ExtractionResult, error) {
	return f.result, nil
}

type quietDetector struct{}

func (quietDetector) DetectAI(_ context.Context, _ string) (*model.AIDetection, error) {
	return &model.AIDetection{Likelihood: "low", Confidence: 0.7}, nil
}

type testEnv struct {
	store    *store.JobStore
	sender   *mailer.SimSender
	inbox    *mailer.SimInbox
	workflow *Workflow
}

func newTestEnv(t *testing.T, extraction *model.ExtractionResult) *testEnv {
	t.Helper()

	st := store.New(t.TempDir())
	require.NoError(t, st.EnsureCandidate("job-001", "cand-1"))
	require.NoError(t, st.SaveResume("job-001", "cand-1", &model.ParsedResume{
		Text:   "Rhodes Scholar with a research background.",
		Fields: model.ParsedFields{Name: "Jordan Reyes", Email: "jordan@example.com", YearsExperience: 4},
	}))
	require.NoError(t, st.SaveRubric("job-001", &model.Rubric{JobTitle: "Associate Consultant", Company: "Northstar Advisory"}))

	if extraction == nil {
		extraction = &model.ExtractionResult{
			EliteSignals: []model.EliteSignal{
				{Type: "fellowship", Detail: "Rhodes Scholar", BoostFactor: 1.2},
			},
			ConsultingExperience: model.ConsultingExperience{Confidence: 0.5},
			RoleMatch:            model.RoleMatch{FitScore: 0.4},
		}
	}
	engine := gestalt.New(&fixedExtractor{result: extraction}, quietDetector{}, nil,
		config.GestaltConfig{MaxClarifiableConcerns: 3, MajorImpactMillions: 50})

	sender := mailer.NewSimSender()
	inbox := mailer.NewSimInbox()
	wf, err := NewWorkflow(st, sender, inbox, engine, config.ClarifyConfig{ResponseDeadlineDays: 5}, config.EmailConfig{
		From:        "screening@northstar.test",
		EmployerTo:  "hiring@northstar.test",
		CompanyName: "Northstar Advisory",
	})
	require.NoError(t, err)

	return &testEnv{store: st, sender: sender, inbox: inbox, workflow: wf}
}

func seedMaybe(t *testing.T, st *store.JobStore) {
	t.Helper()
	require.NoError(t, st.SaveEvaluation("job-001", "cand-1", &model.GestaltEvaluation{
		CandidateID: "cand-1",
		JobID:       "job-001",
		Decision:    model.DecisionMaybe,
		Confidence:  model.ConfidenceLow,
		ClarificationQuestions: []model.ClarificationQuestion{
			{Question: "Can you share examples of measurable business impact?", WhyAsking: "Resume lacks quantified outcomes"},
			{Question: "Describe your quantitative analysis experience.", WhyAsking: "Analytical depth unclear"},
		},
		OverallNarrative: "Intriguing elite background but key gaps.",
	}))
}

func TestInitiate_CreatesPendingApproval(t *testing.T) {
	env := newTestEnv(t, nil)
	seedMaybe(t, env.store)

	req, err := env.workflow.Initiate(context.Background(), "job-001", "cand-1", false)
	require.NoError(t, err)

	assert.Equal(t, model.ApprovalPending, req.Status)
	assert.NotEmpty(t, req.RequestID)
	assert.Len(t, req.Questions, 2)
	assert.Equal(t, "jordan@example.com", req.CandidateEmail)

	draft, err := env.store.LoadEmailDraft("job-001", "cand-1")
	require.NoError(t, err)
	assert.Contains(t, draft.Subject, "Associate Consultant")
	assert.Contains(t, draft.Body, "1. Can you share examples")
	assert.Contains(t, draft.Body, "Northstar Advisory")

	// Employer got the review email.
	require.Len(t, env.sender.Sent, 1)
	assert.Equal(t, "hiring@northstar.test", env.sender.Sent[0].To)
	assert.Contains(t, env.sender.Sent[0].Body, req.RequestID)
}

func TestInitiate_RefusesSecondOpenRequest(t *testing.T) {
	env := newTestEnv(t, nil)
	seedMaybe(t, env.store)

	_, err := env.workflow.Initiate(context.Background(), "job-001", "cand-1", false)
	require.NoError(t, err)

	_, err = env.workflow.Initiate(context.Background(), "job-001", "cand-1", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open approval request")
}

func TestInitiate_RefusesNonMaybe(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, env.store.SaveEvaluation("job-001", "cand-1", &model.GestaltEvaluation{
		CandidateID: "cand-1",
		JobID:       "job-001",
		Decision:    model.DecisionInterview,
	}))

	_, err := env.workflow.Initiate(context.Background(), "job-001", "cand-1", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAYBE")
}

func TestInitiate_DryRunWritesNothing(t *testing.T) {
	env := newTestEnv(t, nil)
	seedMaybe(t, env.store)

	req, err := env.workflow.Initiate(context.Background(), "job-001", "cand-1", true)
	require.NoError(t, err)
	assert.Len(t, req.Questions, 2)

	_, err = env.store.FindApprovalByRequestID("job-001", req.RequestID)
	assert.True(t, eris.Is(err, store.ErrNotFound), "no approval persisted in dry run")
	_, err = env.store.LoadEmailDraft("job-001", "cand-1")
	assert.True(t, eris.Is(err, store.ErrNotFound), "no draft persisted in dry run")
	assert.Empty(t, env.sender.Sent, "employer not notified in dry run")
}

func TestInitiate_DryRunStillChecksEligibility(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, env.store.SaveEvaluation("job-001", "cand-1", &model.GestaltEvaluation{
		CandidateID: "cand-1",
		JobID:       "job-001",
		Decision:    model.DecisionInterview,
	}))

	_, err := env.workflow.Initiate(context.Background(), "job-001", "cand-1", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAYBE")
}

func TestRecordDecision_ApproveQueuesEmail(t *testing.T) {
	env := newTestEnv(t, nil)
	seedMaybe(t, env.store)
	req, err := env.workflow.Initiate(context.Background(), "job-001", "cand-1", false)
	require.NoError(t, err)

	updated, err := env.workflow.RecordDecision(context.Background(), "job-001", req.RequestID, ActionApprove, nil, "", false)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalApproved, updated.Status)
	require.NotNil(t, updated.ResolvedAt)

	pending, err := env.store.PendingSends("job-001")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, req.RequestID, pending[0].RequestID)
	assert.Equal(t, "jordan@example.com", pending[0].To)
	assert.Equal(t, model.SendPending, pending[0].Status)
}

func TestRecordDecision_ModifySubstitutesQuestions(t *testing.T) {
	env := newTestEnv(t, nil)
	seedMaybe(t, env.store)
	req, err := env.workflow.Initiate(context.Background(), "job-001", "cand-1", false)
	require.NoError(t, err)

	replacement := []string{"How many years of direct client work do you have?"}
	updated, err := env.workflow.RecordDecision(context.Background(), "job-001", req.RequestID, ActionModify, replacement, "", false)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalModified, updated.Status)
	assert.Equal(t, replacement, updated.FinalQuestions())

	pending, err := env.store.PendingSends("job-001")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Contains(t, pending[0].Body, replacement[0])
	assert.NotContains(t, pending[0].Body, "measurable business impact")
}

func TestRecordDecision_RejectQueuesNothing(t *testing.T) {
	env := newTestEnv(t, nil)
	seedMaybe(t, env.store)
	req, err := env.workflow.Initiate(context.Background(), "job-001", "cand-1", false)
	require.NoError(t, err)

	updated, err := env.workflow.RecordDecision(context.Background(), "job-001", req.RequestID, ActionReject, nil, "prefer stronger analytics", false)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalRejected, updated.Status)
	assert.Equal(t, "prefer stronger analytics", updated.EmployerFeedback)

	pending, err := env.store.PendingSends("job-001")
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Rejection is terminal, so the candidate lands on the backup list.
	list, err := env.store.LoadBackupList("job-001")
	require.NoError(t, err)
	entry := list.Find("cand-1")
	require.NotNil(t, entry)
	assert.Equal(t, model.BackupParked, entry.Status)
	assert.Contains(t, entry.Reason, "rejected")
}

func TestRecordDecision_DryRunLeavesRequestPending(t *testing.T) {
	env := newTestEnv(t, nil)
	seedMaybe(t, env.store)
	req, err := env.workflow.Initiate(context.Background(), "job-001", "cand-1", false)
	require.NoError(t, err)

	updated, err := env.workflow.RecordDecision(context.Background(), "job-001", req.RequestID, ActionReject, nil, "not a fit", true)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalRejected, updated.Status, "transition is validated in dry run")

	// On disk the request is untouched and the candidate is not parked.
	saved, err := env.store.FindApprovalByRequestID("job-001", req.RequestID)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalPending, saved.Status)

	list, err := env.store.LoadBackupList("job-001")
	require.NoError(t, err)
	assert.Nil(t, list.Find("cand-1"))

	pending, err := env.store.PendingSends("job-001")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRecordDecision_ResolvedRequestIsImmutable(t *testing.T) {
	env := newTestEnv(t, nil)
	seedMaybe(t, env.store)
	req, err := env.workflow.Initiate(context.Background(), "job-001", "cand-1", false)
	require.NoError(t, err)

	_, err = env.workflow.RecordDecision(context.Background(), "job-001", req.RequestID, ActionReject, nil, "", false)
	require.NoError(t, err)

	_, err = env.workflow.RecordDecision(context.Background(), "job-001", req.RequestID, ActionApprove, nil, "", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid transition")
}

func TestRecordDecision_ModifyBoundsQuestionCount(t *testing.T) {
	env := newTestEnv(t, nil)
	seedMaybe(t, env.store)
	req, err := env.workflow.Initiate(context.Background(), "job-001", "cand-1", false)
	require.NoError(t, err)

	tooMany := []string{"q1", "q2", "q3", "q4"}
	_, err = env.workflow.RecordDecision(context.Background(), "job-001", req.RequestID, ActionModify, tooMany, "", false)
	require.Error(t, err)

	_, err = env.workflow.RecordDecision(context.Background(), "job-001", req.RequestID, ActionModify, nil, "", false)
	require.Error(t, err)
}

func approveAndQueue(t *testing.T, env *testEnv) *model.ApprovalRequest {
	t.Helper()
	seedMaybe(t, env.store)
	req, err := env.workflow.Initiate(context.Background(), "job-001", "cand-1", false)
	require.NoError(t, err)
	_, err = env.workflow.RecordDecision(context.Background(), "job-001", req.RequestID, ActionApprove, nil, "", false)
	require.NoError(t, err)
	return req
}

func TestProcessSendQueue_SendsOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	req := approveAndQueue(t, env)
	candidateEmails := func() int {
		n := 0
		for _, m := range env.sender.Sent {
			if m.To == "jordan@example.com" {
				n++
			}
		}
		return n
	}

	report, err := env.workflow.ProcessSendQueue(context.Background(), "job-001", false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 1, candidateEmails())

	approval, err := env.store.FindApprovalByRequestID("job-001", req.RequestID)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalSent, approval.Status)
	require.NotNil(t, approval.EmailSentAt)
	assert.NotEmpty(t, approval.EmailMessageID)

	// Second invocation finds nothing pending: at-most-once by status.
	report, err = env.workflow.ProcessSendQueue(context.Background(), "job-001", false)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Sent)
	assert.Equal(t, 1, candidateEmails())
}

type failingSender struct{ calls int }

func (f *failingSender) Send(_ context.Context, _ mailer.Message) (*mailer.SendReceipt, error) {
	f.calls++
	return nil, eris.New("smtp: connection refused")
}

func TestProcessSendQueue_FailureStaysPending(t *testing.T) {
	env := newTestEnv(t, nil)
	approveAndQueue(t, env)

	broken := &failingSender{}
	env.workflow.sender = broken

	report, err := env.workflow.ProcessSendQueue(context.Background(), "job-001", false)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Sent)
	assert.Equal(t, 1, report.Failed)

	pending, err := env.store.PendingSends("job-001")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, model.SendPending, pending[0].Status)
	assert.Equal(t, 1, pending[0].Attempts)
	assert.Contains(t, pending[0].LastError, "connection refused")

	// Restore the working sender: the same entry goes out on retry.
	env.workflow.sender = env.sender
	report, err = env.workflow.ProcessSendQueue(context.Background(), "job-001", false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
}

func TestProcessSendQueue_DryRunSendsNothing(t *testing.T) {
	env := newTestEnv(t, nil)
	approveAndQueue(t, env)
	before := len(env.sender.Sent)

	report, err := env.workflow.ProcessSendQueue(context.Background(), "job-001", true)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Sent)
	assert.Len(t, env.sender.Sent, before)

	pending, err := env.store.PendingSends("job-001")
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func sendAndGetApproval(t *testing.T, env *testEnv) *model.ApprovalRequest {
	t.Helper()
	req := approveAndQueue(t, env)
	_, err := env.workflow.ProcessSendQueue(context.Background(), "job-001", false)
	require.NoError(t, err)
	approval, err := env.store.FindApprovalByRequestID("job-001", req.RequestID)
	require.NoError(t, err)
	return approval
}

func TestTrackResponses_MatchesAndQueuesReevaluation(t *testing.T) {
	env := newTestEnv(t, nil)
	approval := sendAndGetApproval(t, env)

	env.inbox.Messages = []mailer.InboxMessage{
		{
			ID:   "msg-1",
			From: "Jordan Reyes <jordan@example.com>",
			Body: "Hi,\n\n1. I grew a research grant program from $1M to $4M.\n2. I built statistical models in R for five years.\n\nThanks!",
		},
	}

	report, err := env.workflow.TrackResponses(context.Background(), "job-001", 50, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Matched)

	resp, err := env.store.LoadClarificationResponse("job-001", "cand-1")
	require.NoError(t, err)
	assert.Equal(t, approval.RequestID, resp.RequestID)
	assert.Contains(t, resp.Answers["q1"], "research grant")
	assert.Contains(t, resp.Answers["q2"], "statistical models")
	assert.Equal(t, "received", resp.Status)

	updated, err := env.store.FindApprovalByRequestID("job-001", approval.RequestID)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalResponded, updated.Status)
	require.NotNil(t, updated.ResponseReceivedAt)

	tasks, err := env.store.PendingReevaluations("job-001")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "cand-1", tasks[0].CandidateID)
	assert.Equal(t, "clarification_response", tasks[0].Trigger)
}

func TestTrackResponses_MatchesByRequestID(t *testing.T) {
	env := newTestEnv(t, nil)
	approval := sendAndGetApproval(t, env)

	env.inbox.Messages = []mailer.InboxMessage{
		{
			ID:   "msg-2",
			From: "forwarded@different-relay.example",
			Body: "Re your questions (ref " + approval.RequestID + "):\n1. See attached portfolio.",
		},
	}

	report, err := env.workflow.TrackResponses(context.Background(), "job-001", 50, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Matched)
}

func TestTrackResponses_IgnoresUnrelatedMail(t *testing.T) {
	env := newTestEnv(t, nil)
	sendAndGetApproval(t, env)

	env.inbox.Messages = []mailer.InboxMessage{
		{ID: "spam-1", From: "noreply@jobboard.example", Body: "New candidates await!"},
	}

	report, err := env.workflow.TrackResponses(context.Background(), "job-001", 50, false)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Matched)
}

func TestTrackResponses_DryRunRecordsNothing(t *testing.T) {
	env := newTestEnv(t, nil)
	approval := sendAndGetApproval(t, env)

	env.inbox.Messages = []mailer.InboxMessage{
		{
			ID:   "msg-1",
			From: "jordan@example.com",
			Body: "1. Grew grant funding from $1M to $4M.\n2. Five years of statistical modeling.",
		},
	}

	report, err := env.workflow.TrackResponses(context.Background(), "job-001", 50, true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Matched, "matching still runs in dry run")

	_, err = env.store.LoadClarificationResponse("job-001", "cand-1")
	assert.True(t, eris.Is(err, store.ErrNotFound))

	saved, err := env.store.FindApprovalByRequestID("job-001", approval.RequestID)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalSent, saved.Status)

	tasks, err := env.store.PendingReevaluations("job-001")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestParseAnswers(t *testing.T) {
	questions := []string{"first", "second", "third"}

	tests := []struct {
		name string
		body string
		want map[string]string
	}{
		{
			name: "numbered answers",
			body: "1. Alpha answer\n2. Beta answer\n3. Gamma answer",
			want: map[string]string{"q1": "Alpha answer", "q2": "Beta answer", "q3": "Gamma answer"},
		},
		{
			name: "q-prefixed answers",
			body: "Q1: Alpha\nQ2: Beta\nQ3: Gamma",
			want: map[string]string{"q1": "Alpha", "q2": "Beta", "q3": "Gamma"},
		},
		{
			name: "freeform falls back",
			body: "I answered everything inline in one paragraph.",
			want: map[string]string{
				"q1": "[See full response below]",
				"q2": "[See full response below]",
				"q3": "[See full response below]",
			},
		},
		{
			name: "partial answers keep fallback for the rest",
			body: "1. Only the first one.",
			want: map[string]string{
				"q1": "Only the first one.",
				"q2": "[See full response below]",
				"q3": "[See full response below]",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAnswers(tt.body, questions)
			assert.Equal(t, strings.TrimSpace(tt.body), got["full_response"])
			for k, v := range tt.want {
				assert.Equal(t, v, got[k], k)
			}
		})
	}
}

func respondedEnv(t *testing.T, extraction *model.ExtractionResult) *testEnv {
	t.Helper()
	env := newTestEnv(t, extraction)
	sendAndGetApproval(t, env)
	env.inbox.Messages = []mailer.InboxMessage{
		{
			ID:   "msg-1",
			From: "jordan@example.com",
			Body: "1. Grew grant funding from $1M to $4M.\n2. Five years of statistical modeling.",
		},
	}
	_, err := env.workflow.TrackResponses(context.Background(), "job-001", 50, false)
	require.NoError(t, err)
	return env
}

func TestReevaluate_WritesComparison(t *testing.T) {
	// After clarification the candidate shows consulting experience, so the
	// engine lands on INTERVIEW instead of MAYBE.
	env := respondedEnv(t, &model.ExtractionResult{
		ConsultingExperience: model.ConsultingExperience{HasDirect: true, Years: 3},
		RoleMatch:            model.RoleMatch{FitScore: 0.5},
	})

	comparison, err := env.workflow.Reevaluate(context.Background(), "job-001", "cand-1", false, false)
	require.NoError(t, err)

	assert.Equal(t, model.DecisionMaybe, comparison.OriginalDecision)
	assert.Equal(t, model.DecisionInterview, comparison.NewDecision)
	assert.True(t, comparison.ClarificationEffective)

	eval, err := env.store.LoadEvaluation("job-001", "cand-1")
	require.NoError(t, err)
	assert.Equal(t, model.DecisionInterview, eval.Decision)

	saved, err := env.store.LoadComparison("job-001", "cand-1")
	require.NoError(t, err)
	assert.Equal(t, comparison.NewDecision, saved.NewDecision)

	resume, err := env.store.LoadResume("job-001", "cand-1")
	require.NoError(t, err)
	assert.Contains(t, resume.Text, "CLARIFICATION RESPONSES")
	assert.Contains(t, resume.Text, "grant funding")
}

func TestReevaluate_DryRunLeavesArtifactsUntouched(t *testing.T) {
	env := respondedEnv(t, &model.ExtractionResult{
		ConsultingExperience: model.ConsultingExperience{HasDirect: true, Years: 3},
		RoleMatch:            model.RoleMatch{FitScore: 0.5},
	})

	comparison, err := env.workflow.Reevaluate(context.Background(), "job-001", "cand-1", false, true)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionInterview, comparison.NewDecision, "engine still runs in dry run")

	eval, err := env.store.LoadEvaluation("job-001", "cand-1")
	require.NoError(t, err)
	assert.Equal(t, model.DecisionMaybe, eval.Decision, "stored evaluation unchanged")

	_, err = env.store.LoadComparison("job-001", "cand-1")
	assert.True(t, eris.Is(err, store.ErrNotFound))

	resume, err := env.store.LoadResume("job-001", "cand-1")
	require.NoError(t, err)
	assert.NotContains(t, resume.Text, "CLARIFICATION RESPONSES")
}

func TestReevaluate_PassMeansIneffective(t *testing.T) {
	env := respondedEnv(t, &model.ExtractionResult{
		RoleMatch: model.RoleMatch{FitScore: 0.4},
	})

	comparison, err := env.workflow.Reevaluate(context.Background(), "job-001", "cand-1", false, false)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionPass, comparison.NewDecision)
	assert.False(t, comparison.ClarificationEffective)
}

func TestReevaluate_RequiresResponse(t *testing.T) {
	env := newTestEnv(t, nil)
	seedMaybe(t, env.store)

	_, err := env.workflow.Reevaluate(context.Background(), "job-001", "cand-1", false, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no clarification response")
}

func TestReevaluate_RefusesNonMaybeWithoutForce(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, env.store.SaveEvaluation("job-001", "cand-1", &model.GestaltEvaluation{
		CandidateID: "cand-1", JobID: "job-001", Decision: model.DecisionPass,
	}))

	_, err := env.workflow.Reevaluate(context.Background(), "job-001", "cand-1", false, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "force")
}

func TestReevaluate_AddendumNotDuplicated(t *testing.T) {
	env := respondedEnv(t, &model.ExtractionResult{
		ConsultingExperience: model.ConsultingExperience{HasDirect: true},
		RoleMatch:            model.RoleMatch{FitScore: 0.5},
	})

	_, err := env.workflow.Reevaluate(context.Background(), "job-001", "cand-1", false, false)
	require.NoError(t, err)
	_, err = env.workflow.Reevaluate(context.Background(), "job-001", "cand-1", true, false)
	require.NoError(t, err)

	resume, err := env.store.LoadResume("job-001", "cand-1")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(resume.Text, "CLARIFICATION RESPONSES"))
}

func TestProcessReevaluations_DrainsQueue(t *testing.T) {
	env := respondedEnv(t, &model.ExtractionResult{
		ConsultingExperience: model.ConsultingExperience{HasDirect: true},
		RoleMatch:            model.RoleMatch{FitScore: 0.5},
	})
	env.workflow.cfg.ReevalTimeoutSecs = 30

	report, err := env.workflow.ProcessReevaluations(context.Background(), "job-001", false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Completed)
	assert.Equal(t, 0, report.Failed)

	tasks, err := env.store.PendingReevaluations("job-001")
	require.NoError(t, err)
	assert.Empty(t, tasks, "completed tasks leave the pending queue")

	// Nothing left to do on a second pass.
	report, err = env.workflow.ProcessReevaluations(context.Background(), "job-001", false)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Completed)
}

func TestProcessReevaluations_DryRunKeepsQueue(t *testing.T) {
	env := respondedEnv(t, &model.ExtractionResult{
		ConsultingExperience: model.ConsultingExperience{HasDirect: true},
		RoleMatch:            model.RoleMatch{FitScore: 0.5},
	})
	env.workflow.cfg.ReevalTimeoutSecs = 30

	report, err := env.workflow.ProcessReevaluations(context.Background(), "job-001", true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Completed)

	tasks, err := env.store.PendingReevaluations("job-001")
	require.NoError(t, err)
	assert.Len(t, tasks, 1, "dry run leaves the task pending")

	eval, err := env.store.LoadEvaluation("job-001", "cand-1")
	require.NoError(t, err)
	assert.Equal(t, model.DecisionMaybe, eval.Decision)
}
