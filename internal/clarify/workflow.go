// Package clarify implements the clarification loop for MAYBE candidates:
// employer approval of proposed questions, candidate email dispatch through a
// durable send queue, response tracking, and re-evaluation.
package clarify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vrijenattawar/ZoATS/internal/backup"
	"github.com/vrijenattawar/ZoATS/internal/config"
	"github.com/vrijenattawar/ZoATS/internal/gestalt"
	"github.com/vrijenattawar/ZoATS/internal/mailer"
	"github.com/vrijenattawar/ZoATS/internal/model"
	"github.com/vrijenattawar/ZoATS/internal/store"
)

// Workflow runs the clarification loop against a job's store.
type Workflow struct {
	store  *store.JobStore
	sender mailer.Sender
	inbox  mailer.InboxReader
	engine *gestalt.Engine
	backup *backup.Manager
	cfg    config.ClarifyConfig
	email  config.EmailConfig
	tmpl   *Templates
}

// NewWorkflow creates a Workflow. The engine may be nil when re-evaluation is
// not needed (initiate / approve / send / track only).
func NewWorkflow(st *store.JobStore, sender mailer.Sender, inbox mailer.InboxReader, engine *gestalt.Engine, cfg config.ClarifyConfig, email config.EmailConfig) (*Workflow, error) {
	tmpl, err := LoadTemplates(cfg.TemplatesPath)
	if err != nil {
		return nil, err
	}
	return &Workflow{
		store:  st,
		sender: sender,
		inbox:  inbox,
		engine: engine,
		backup: backup.NewManager(st),
		cfg:    cfg,
		email:  email,
		tmpl:   tmpl,
	}, nil
}

// Initiate creates an approval request for a MAYBE candidate's clarification
// questions, drafts the candidate email, and notifies the employer. It fails
// when the candidate is not MAYBE, has no questions, or already has an open
// request. With dryRun the eligibility checks and the draft still run, but
// nothing is persisted and no email goes out.
func (w *Workflow) Initiate(ctx context.Context, jobID, candidateID string, dryRun bool) (*model.ApprovalRequest, error) {
	eval, err := w.store.LoadEvaluation(jobID, candidateID)
	if err != nil {
		return nil, err
	}
	if eval.Decision != model.DecisionMaybe {
		return nil, eris.Errorf("clarify: candidate %s is %s, clarification applies to MAYBE only", candidateID, eval.Decision)
	}
	if len(eval.ClarificationQuestions) == 0 {
		return nil, eris.Errorf("clarify: candidate %s has no clarification questions", candidateID)
	}

	open, err := w.store.FindOpenApproval(jobID, candidateID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, eris.Errorf("clarify: candidate %s already has open approval request %s (%s)", candidateID, open.RequestID, open.Status)
	}

	resume, err := w.store.LoadResume(jobID, candidateID)
	if err != nil {
		return nil, err
	}
	if resume.Fields.Email == "" {
		return nil, eris.Errorf("clarify: candidate %s has no email address on file", candidateID)
	}

	rubric, err := w.store.LoadRubric(jobID)
	if err != nil {
		if !eris.Is(err, store.ErrNotFound) {
			return nil, err
		}
		rubric = &model.Rubric{}
	}

	questions := make([]string, 0, len(eval.ClarificationQuestions))
	rationale := make([]string, 0, len(eval.ClarificationQuestions))
	for _, q := range eval.ClarificationQuestions {
		questions = append(questions, q.Question)
		if q.WhyAsking != "" {
			rationale = append(rationale, q.WhyAsking)
		}
	}

	req := &model.ApprovalRequest{
		RequestID:        uuid.New().String(),
		CandidateID:      candidateID,
		JobID:            jobID,
		Questions:        questions,
		Rationale:        strings.Join(rationale, " "),
		CandidateSummary: eval.OverallNarrative,
		CandidateEmail:   resume.Fields.Email,
		Status:           model.ApprovalPending,
		CreatedAt:        time.Now().UTC(),
	}

	draft, err := w.composeCandidateEmail(req, rubric)
	if err != nil {
		return nil, err
	}
	if dryRun {
		zap.L().Info("dry run, approval request not created",
			zap.String("job_id", jobID),
			zap.String("candidate_id", candidateID),
			zap.Int("questions", len(questions)))
		return req, nil
	}
	if err := w.store.SaveEmailDraft(jobID, candidateID, draft); err != nil {
		return nil, err
	}
	if err := w.store.SaveApproval(jobID, req); err != nil {
		return nil, err
	}

	// Employer notification is advisory. The request stays actionable through
	// the CLI and the approvals API even when the email does not go out.
	if err := w.notifyEmployer(ctx, req, rubric); err != nil {
		zap.L().Warn("employer notification failed",
			zap.String("request_id", req.RequestID),
			zap.Error(err))
	}

	zap.L().Info("approval request created",
		zap.String("job_id", jobID),
		zap.String("candidate_id", candidateID),
		zap.String("request_id", req.RequestID),
		zap.Int("questions", len(questions)))
	return req, nil
}

func (w *Workflow) notifyEmployer(ctx context.Context, req *model.ApprovalRequest, rubric *model.Rubric) error {
	if w.email.EmployerTo == "" {
		zap.L().Debug("no employer address configured, skipping notification")
		return nil
	}
	subject, body, err := w.tmpl.ApprovalRequest.Render(map[string]any{
		"CandidateID":       req.CandidateID,
		"JobTitle":          rubric.Title(req.JobID),
		"CandidateSummary":  req.CandidateSummary,
		"Rationale":         req.Rationale,
		"NumberedQuestions": numberQuestions(req.Questions),
		"RequestID":         req.RequestID,
	})
	if err != nil {
		return err
	}
	_, err = w.sender.Send(ctx, mailer.Message{
		To:      w.email.EmployerTo,
		Subject: subject,
		Body:    body,
	})
	return err
}

func numberQuestions(questions []string) string {
	var b strings.Builder
	for i, q := range questions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n")
}
