package model

import "time"

// SendStatus is the lifecycle of a queued outbound email. The status field on
// the durable queue entry is the only source of truth for dispatch: a request
// is executed at most once per request id.
type SendStatus string

const (
	SendPending SendStatus = "pending_send"
	SendSent    SendStatus = "sent"
)

// SendResult records the delivery confirmation from the email collaborator.
type SendResult struct {
	MessageID string    `json:"message_id"`
	SentAt    time.Time `json:"sent_at"`
}

// SendRequest is a durable send-queue entry. Failed dispatches keep status
// pending_send with the error recorded, and are retried on the next
// invocation.
type SendRequest struct {
	Type      string      `json:"type"`
	RequestID string      `json:"request_id"`
	To        string      `json:"to"`
	Subject   string      `json:"subject"`
	Body      string      `json:"body"`
	Method    string      `json:"method"`
	Status    SendStatus  `json:"status"`
	Result    *SendResult `json:"result,omitempty"`
	Attempts  int         `json:"attempts,omitempty"`
	LastError string      `json:"last_error,omitempty"`
	QueuedAt  time.Time   `json:"queued_at"`
}

// TaskStatus is the lifecycle of a re-evaluation queue entry.
type TaskStatus string

const (
	TaskPending  TaskStatus = "pending"
	TaskComplete TaskStatus = "complete"
	TaskFailed   TaskStatus = "failed"
)

// ReevaluationTask is queued when a clarification response arrives and
// consumed by the re-evaluation runner. Only pending tasks are actioned;
// failures flip the status to failed with an error note.
type ReevaluationTask struct {
	CandidateID string     `json:"candidate_id"`
	JobID       string     `json:"job_id"`
	Trigger     string     `json:"trigger"`
	Status      TaskStatus `json:"status"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ClarificationResponse holds the candidate's parsed answers, keyed q1..qN
// by question index, plus the raw reply.
type ClarificationResponse struct {
	RequestID   string            `json:"request_id"`
	CandidateID string            `json:"candidate_id"`
	JobID       string            `json:"job_id"`
	ReceivedAt  time.Time         `json:"received_at"`
	Answers     map[string]string `json:"answers"`
	RawEmail    string            `json:"raw_email"`
	Status      string            `json:"status"`
}

// ClarificationEmail is the draft email to a MAYBE candidate. The body is
// rebuilt with the final (possibly employer-modified) questions at send time.
type ClarificationEmail struct {
	CandidateID string    `json:"candidate_id"`
	JobID       string    `json:"job_id"`
	ToEmail     string    `json:"to_email"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	Questions   []string  `json:"questions"`
	Deadline    time.Time `json:"deadline"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
