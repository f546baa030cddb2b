package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// ApprovalStatus tracks an approval request through its lifecycle. Status
// transitions are monotonic: a resolved request is never reopened.
type ApprovalStatus string

const (
	ApprovalPending   ApprovalStatus = "pending"
	ApprovalApproved  ApprovalStatus = "approved"
	ApprovalModified  ApprovalStatus = "modified"
	ApprovalRejected  ApprovalStatus = "rejected"
	ApprovalSent      ApprovalStatus = "sent"
	ApprovalResponded ApprovalStatus = "responded"
)

// approvalTransitions maps each status to the statuses reachable from it.
var approvalTransitions = map[ApprovalStatus][]ApprovalStatus{
	ApprovalPending:   {ApprovalApproved, ApprovalModified, ApprovalRejected},
	ApprovalApproved:  {ApprovalSent},
	ApprovalModified:  {ApprovalSent},
	ApprovalRejected:  {},
	ApprovalSent:      {ApprovalResponded},
	ApprovalResponded: {},
}

// CanTransition reports whether to is reachable from s.
func (s ApprovalStatus) CanTransition(to ApprovalStatus) bool {
	for _, t := range approvalTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// Open reports whether the request still blocks creation of a new one for
// the same candidate. Only terminal states release the slot.
func (s ApprovalStatus) Open() bool {
	return s != ApprovalRejected && s != ApprovalResponded
}

// ApprovalRequest tracks a proposed set of clarification questions awaiting
// a human decision. Exactly one open request exists per candidate at a time.
type ApprovalRequest struct {
	RequestID        string         `json:"request_id"`
	CandidateID      string         `json:"candidate_id"`
	JobID            string         `json:"job_id"`
	Questions        []string       `json:"questions"`
	Rationale        string         `json:"rationale"`
	CandidateSummary string         `json:"candidate_summary"`
	CandidateEmail   string         `json:"candidate_email"`
	Status           ApprovalStatus `json:"status"`

	EmployerFeedback  string   `json:"employer_feedback,omitempty"`
	ModifiedQuestions []string `json:"modified_questions,omitempty"`

	CreatedAt          time.Time  `json:"created_at"`
	ResolvedAt         *time.Time `json:"resolved_at,omitempty"`
	EmailSentAt        *time.Time `json:"email_sent_at,omitempty"`
	EmailMessageID     string     `json:"email_message_id,omitempty"`
	ResponseReceivedAt *time.Time `json:"response_received_at,omitempty"`
}

// Transition moves the request to a new status, enforcing monotonicity.
func (r *ApprovalRequest) Transition(to ApprovalStatus) error {
	if !r.Status.CanTransition(to) {
		return eris.Errorf("model: approval %s: invalid transition %s -> %s", r.RequestID, r.Status, to)
	}
	r.Status = to
	return nil
}

// FinalQuestions returns the question set to send: the employer-substituted
// questions when present, otherwise the proposed ones.
func (r *ApprovalRequest) FinalQuestions() []string {
	if len(r.ModifiedQuestions) > 0 {
		return r.ModifiedQuestions
	}
	return r.Questions
}
