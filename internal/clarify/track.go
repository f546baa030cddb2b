package clarify

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vrijenattawar/ZoATS/internal/mailer"
	"github.com/vrijenattawar/ZoATS/internal/model"
)

// TrackReport summarizes one TrackResponses invocation.
type TrackReport struct {
	Checked int
	Matched int
}

// TrackResponses polls the inbox for candidate replies to sent clarification
// emails. A message matches a request when the candidate's address appears in
// the From header or the request id appears in the body. Matches are parsed,
// recorded, and queued for re-evaluation; the source message is then marked
// read so it is not matched twice. With dryRun the poll and matching still
// run, but nothing is recorded and messages stay unread.
func (w *Workflow) TrackResponses(ctx context.Context, jobID string, maxMessages int, dryRun bool) (TrackReport, error) {
	var report TrackReport

	approvals, err := w.store.ListApprovals(jobID)
	if err != nil {
		return report, err
	}
	awaiting := make([]*model.ApprovalRequest, 0, len(approvals))
	for _, a := range approvals {
		if a.Status == model.ApprovalSent {
			awaiting = append(awaiting, a)
		}
	}
	if len(awaiting) == 0 {
		zap.L().Info("no requests awaiting responses", zap.String("job_id", jobID))
		return report, nil
	}

	messages, err := w.inbox.Unread(ctx, maxMessages)
	if err != nil {
		return report, err
	}
	report.Checked = len(messages)

	for _, msg := range messages {
		approval := matchApproval(awaiting, msg)
		if approval == nil {
			continue
		}
		if dryRun {
			zap.L().Info("dry run, response not recorded",
				zap.String("request_id", approval.RequestID),
				zap.String("message_id", msg.ID))
			report.Matched++
			continue
		}
		if err := w.recordResponse(jobID, approval, msg); err != nil {
			zap.L().Warn("response not recorded",
				zap.String("request_id", approval.RequestID),
				zap.String("message_id", msg.ID),
				zap.Error(err))
			continue
		}
		if err := w.inbox.MarkRead(ctx, msg.ID); err != nil {
			zap.L().Warn("message not marked read",
				zap.String("message_id", msg.ID),
				zap.Error(err))
		}
		report.Matched++
	}

	zap.L().Info("response tracking complete",
		zap.String("job_id", jobID),
		zap.Int("checked", report.Checked),
		zap.Int("matched", report.Matched))
	return report, nil
}

func matchApproval(awaiting []*model.ApprovalRequest, msg mailer.InboxMessage) *model.ApprovalRequest {
	from := strings.ToLower(msg.From)
	for _, a := range awaiting {
		if a.CandidateEmail != "" && strings.Contains(from, strings.ToLower(a.CandidateEmail)) {
			return a
		}
		if strings.Contains(msg.Body, a.RequestID) {
			return a
		}
	}
	return nil
}

func (w *Workflow) recordResponse(jobID string, approval *model.ApprovalRequest, msg mailer.InboxMessage) error {
	now := time.Now().UTC()
	resp := &model.ClarificationResponse{
		RequestID:   approval.RequestID,
		CandidateID: approval.CandidateID,
		JobID:       jobID,
		ReceivedAt:  now,
		Answers:     ParseAnswers(msg.Body, approval.FinalQuestions()),
		RawEmail:    msg.Body,
		Status:      "received",
	}
	if err := w.store.SaveClarificationResponse(jobID, approval.CandidateID, resp); err != nil {
		return err
	}

	if err := approval.Transition(model.ApprovalResponded); err != nil {
		return err
	}
	approval.ResponseReceivedAt = &now
	if err := w.store.SaveApproval(jobID, approval); err != nil {
		return err
	}

	if err := w.store.EnqueueReevaluation(jobID, &model.ReevaluationTask{
		CandidateID: approval.CandidateID,
		JobID:       jobID,
		Trigger:     "clarification_response",
		Status:      model.TaskPending,
		CreatedAt:   now,
	}); err != nil {
		return err
	}

	zap.L().Info("clarification response recorded",
		zap.String("candidate_id", approval.CandidateID),
		zap.String("request_id", approval.RequestID))
	return nil
}

// ParseAnswers splits a reply body into per-question answers keyed q1..qN.
// Answers are recognized by numbered markers (1., 1), Q1:, Question 1:) at
// the start of a line. Questions without a recognizable answer map to a
// placeholder, and the full reply is always preserved under full_response.
func ParseAnswers(body string, questions []string) map[string]string {
	answers := make(map[string]string, len(questions)+1)

	type marker struct {
		index int
		start int
		end   int
	}
	markers := make([]marker, 0, len(questions))
	for i := 1; i <= len(questions); i++ {
		re := regexp.MustCompile(fmt.Sprintf(`(?mi)^[ \t]*(?:%d[.)]|Q%d:?|Question[ \t]*%d:?)[ \t]*`, i, i, i))
		if loc := re.FindStringIndex(body); loc != nil {
			markers = append(markers, marker{index: i, start: loc[0], end: loc[1]})
		}
	}
	sort.Slice(markers, func(a, b int) bool { return markers[a].start < markers[b].start })

	for j, m := range markers {
		end := len(body)
		if j+1 < len(markers) {
			end = markers[j+1].start
		}
		if answer := strings.TrimSpace(body[m.end:end]); answer != "" {
			answers[fmt.Sprintf("q%d", m.index)] = answer
		}
	}

	for i := 1; i <= len(questions); i++ {
		key := fmt.Sprintf("q%d", i)
		if _, ok := answers[key]; !ok {
			answers[key] = "[See full response below]"
		}
	}
	answers["full_response"] = strings.TrimSpace(body)
	return answers
}
