package clarify

import (
	"time"

	"github.com/vrijenattawar/ZoATS/internal/model"
)

// composeCandidateEmail renders the clarification email draft for the
// candidate using the proposed questions. The draft is re-rendered with the
// final question set when the request is approved, so employer modifications
// always reach the candidate.
func (w *Workflow) composeCandidateEmail(req *model.ApprovalRequest, rubric *model.Rubric) (*model.ClarificationEmail, error) {
	return w.renderCandidateEmail(req, rubric, req.Questions)
}

func (w *Workflow) renderCandidateEmail(req *model.ApprovalRequest, rubric *model.Rubric, questions []string) (*model.ClarificationEmail, error) {
	deadline := time.Now().UTC().AddDate(0, 0, w.cfg.ResponseDeadlineDays)
	company := w.email.CompanyName
	if rubric.Company != "" {
		company = rubric.Company
	}

	subject, body, err := w.tmpl.Clarification.Render(map[string]any{
		"JobTitle":          rubric.Title(req.JobID),
		"NumberedQuestions": numberQuestions(questions),
		"Deadline":          deadline.Format("January 2, 2006"),
		"CompanyName":       company,
	})
	if err != nil {
		return nil, err
	}

	return &model.ClarificationEmail{
		CandidateID: req.CandidateID,
		JobID:       req.JobID,
		ToEmail:     req.CandidateEmail,
		Subject:     subject,
		Body:        body,
		Questions:   questions,
		Deadline:    deadline,
		Status:      "draft",
		CreatedAt:   time.Now().UTC(),
	}, nil
}
