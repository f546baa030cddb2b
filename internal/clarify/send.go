package clarify

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/vrijenattawar/ZoATS/internal/mailer"
	"github.com/vrijenattawar/ZoATS/internal/model"
	"github.com/vrijenattawar/ZoATS/internal/store"
)

// SendReport summarizes one ProcessSendQueue invocation.
type SendReport struct {
	Sent   int
	Failed int
}

// ProcessSendQueue dispatches every pending_send request. The durable status
// field is the at-most-once guard: only pending_send entries are attempted,
// and an entry flips to sent before anything else happens after delivery. A
// failed attempt keeps the entry pending with the error recorded, so the next
// invocation retries it.
func (w *Workflow) ProcessSendQueue(ctx context.Context, jobID string, dryRun bool) (SendReport, error) {
	var report SendReport

	pending, err := w.store.PendingSends(jobID)
	if err != nil {
		return report, err
	}
	if len(pending) == 0 {
		zap.L().Info("send queue empty", zap.String("job_id", jobID))
		return report, nil
	}

	for _, req := range pending {
		if req.Status != model.SendPending {
			continue
		}
		if dryRun {
			zap.L().Info("would send",
				zap.String("request_id", req.RequestID),
				zap.String("to", req.To),
				zap.String("subject", req.Subject))
			continue
		}

		receipt, err := w.sender.Send(ctx, mailer.Message{
			To:      req.To,
			Subject: req.Subject,
			Body:    req.Body,
		})
		if err != nil {
			req.Attempts++
			req.LastError = err.Error()
			if saveErr := w.store.SaveSend(jobID, req); saveErr != nil {
				return report, saveErr
			}
			report.Failed++
			zap.L().Warn("send failed, left pending",
				zap.String("request_id", req.RequestID),
				zap.String("to", req.To),
				zap.Int("attempts", req.Attempts),
				zap.Error(err))
			continue
		}

		req.Status = model.SendSent
		req.Result = &model.SendResult{
			MessageID: receipt.MessageID,
			SentAt:    receipt.SentAt,
		}
		if err := w.store.SaveSend(jobID, req); err != nil {
			return report, err
		}
		report.Sent++

		if err := w.markApprovalSent(jobID, req); err != nil {
			zap.L().Warn("approval not updated after send",
				zap.String("request_id", req.RequestID),
				zap.Error(err))
		}

		zap.L().Info("clarification email sent",
			zap.String("request_id", req.RequestID),
			zap.String("to", req.To),
			zap.String("message_id", receipt.MessageID))
	}

	return report, nil
}

func (w *Workflow) markApprovalSent(jobID string, req *model.SendRequest) error {
	approval, err := w.store.FindApprovalByRequestID(jobID, req.RequestID)
	if err != nil {
		if eris.Is(err, store.ErrNotFound) {
			// Send queue entries for other email types have no approval.
			return nil
		}
		return err
	}
	if err := approval.Transition(model.ApprovalSent); err != nil {
		return err
	}
	approval.EmailSentAt = &req.Result.SentAt
	approval.EmailMessageID = req.Result.MessageID
	return w.store.SaveApproval(jobID, approval)
}
