package clarify

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vrijenattawar/ZoATS/internal/mailer"
	"github.com/vrijenattawar/ZoATS/internal/model"
	"github.com/vrijenattawar/ZoATS/internal/store"
)

// Approval actions.
const (
	ActionApprove = "approve"
	ActionModify  = "modify"
	ActionReject  = "reject"
)

// RecordDecision applies an employer decision to a pending approval request.
// Approve and modify queue the candidate email for dispatch; reject closes
// the request without sending anything. Transitions on resolved requests are
// refused. With dryRun the lookup, validation, and transition checks all run,
// but no artifact is written and no email goes out.
func (w *Workflow) RecordDecision(ctx context.Context, jobID, requestID, action string, modifiedQuestions []string, feedback string, dryRun bool) (*model.ApprovalRequest, error) {
	req, err := w.store.FindApprovalByRequestID(jobID, requestID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	switch action {
	case ActionApprove:
		if err := req.Transition(model.ApprovalApproved); err != nil {
			return nil, err
		}
	case ActionModify:
		if len(modifiedQuestions) < 1 || len(modifiedQuestions) > model.MaxClarificationQuestions {
			return nil, eris.Errorf("clarify: modify requires 1-%d questions, got %d", model.MaxClarificationQuestions, len(modifiedQuestions))
		}
		req.ModifiedQuestions = modifiedQuestions
		if err := req.Transition(model.ApprovalModified); err != nil {
			return nil, err
		}
	case ActionReject:
		req.EmployerFeedback = feedback
		if err := req.Transition(model.ApprovalRejected); err != nil {
			return nil, err
		}
	default:
		return nil, eris.Errorf("clarify: unknown action %q (want approve, modify, or reject)", action)
	}
	req.ResolvedAt = &now

	if dryRun {
		zap.L().Info("dry run, decision not recorded",
			zap.String("job_id", jobID),
			zap.String("request_id", requestID),
			zap.String("status", string(req.Status)))
		return req, nil
	}

	if err := w.store.SaveApproval(jobID, req); err != nil {
		return nil, err
	}

	if req.Status == model.ApprovalApproved || req.Status == model.ApprovalModified {
		if err := w.queueCandidateEmail(jobID, req); err != nil {
			return nil, err
		}
	}

	// A rejected request is terminal: the candidate is parked on the backup
	// list instead of being emailed.
	if req.Status == model.ApprovalRejected {
		eval, err := w.store.LoadEvaluation(jobID, req.CandidateID)
		if err != nil {
			if !eris.Is(err, store.ErrNotFound) {
				return nil, err
			}
			eval = nil
		}
		if _, err := w.backup.Add(jobID, req.CandidateID, "clarification request rejected by employer", eval); err != nil {
			return nil, err
		}
	}

	if err := w.confirmToEmployer(ctx, req); err != nil {
		zap.L().Warn("employer confirmation failed",
			zap.String("request_id", req.RequestID),
			zap.Error(err))
	}

	zap.L().Info("approval decision recorded",
		zap.String("job_id", jobID),
		zap.String("request_id", requestID),
		zap.String("status", string(req.Status)))
	return req, nil
}

// queueCandidateEmail re-renders the candidate email with the final question
// set and enqueues it for dispatch. Delivery happens in ProcessSendQueue, not
// here, so an SMTP outage cannot lose an approved request.
func (w *Workflow) queueCandidateEmail(jobID string, req *model.ApprovalRequest) error {
	rubric, err := w.store.LoadRubric(jobID)
	if err != nil {
		if !eris.Is(err, store.ErrNotFound) {
			return err
		}
		rubric = &model.Rubric{}
	}

	draft, err := w.renderCandidateEmail(req, rubric, req.FinalQuestions())
	if err != nil {
		return err
	}
	draft.Status = "approved"
	if err := w.store.SaveEmailDraft(jobID, req.CandidateID, draft); err != nil {
		return err
	}

	return w.store.EnqueueSend(jobID, &model.SendRequest{
		Type:      "clarification_email",
		RequestID: req.RequestID,
		To:        draft.ToEmail,
		Subject:   draft.Subject,
		Body:      draft.Body,
		Method:    "smtp",
		Status:    model.SendPending,
		QueuedAt:  time.Now().UTC(),
	})
}

func (w *Workflow) confirmToEmployer(ctx context.Context, req *model.ApprovalRequest) error {
	if w.email.EmployerTo == "" {
		return nil
	}
	rubric, err := w.store.LoadRubric(req.JobID)
	if err != nil {
		if !eris.Is(err, store.ErrNotFound) {
			return err
		}
		rubric = &model.Rubric{}
	}

	questions := req.FinalQuestions()
	if req.Status == model.ApprovalRejected {
		questions = nil
	}
	subject, body, err := w.tmpl.ApprovalOutcome.Render(map[string]any{
		"CandidateID":       req.CandidateID,
		"JobTitle":          rubric.Title(req.JobID),
		"Action":            strings.ToUpper(string(req.Status)),
		"Questions":         questions,
		"NumberedQuestions": numberQuestions(questions),
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
