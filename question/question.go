package question

import (
	"context"
	"time"
)

// Status of a submitted question.
type Status string

const (
	// StatusPending awaits filtering or a manual decision.
	StatusPending Status = "pending"
	// StatusApproved is cleared for answering.
	StatusApproved Status = "approved"
	// StatusAnswered has been spoken by the presenter.
	StatusAnswered Status = "answered"
	// StatusRejected was declined.
	StatusRejected Status = "rejected"
	// StatusFlagged was held back by the filter for review.
	StatusFlagged Status = "flagged"
)

// MaxLength caps submitted question text.
const MaxLength = 500

// AutoApproveScore is the minimum relevance score for automatic approval.
const AutoApproveScore = 6

// Question is one audience submission.
type Question struct {
	ID             int        `json:"id"`
	Name           string     `json:"name,omitempty"`
	Question       string     `json:"question"`
	SubmittedAt    time.Time  `json:"submitted_at"`
	Status         Status     `json:"status"`
	RelevanceScore int        `json:"score,omitempty"`
	Flag           string     `json:"flag,omitempty"`
	FlagReason     string     `json:"flag_reason,omitempty"`
	Answer         string     `json:"answer,omitempty"`
	AnsweredAt     *time.Time `json:"answered_at,omitempty"`
}

// DisplayName returns the submitter's name or "Anonymous".
func (q Question) DisplayName() string {
	if q.Name == "" {
		return "Anonymous"
	}
	return q.Name
}

// Counts summarizes the queue for status surfaces.
type Counts struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Answered int `json:"answered"`
}

// Store mirrors question state to durable storage. Implementations must
// tolerate being called for questions they have never seen (upsert
// semantics); the in-memory queue is the source of truth during a session.
type Store interface {
	Insert(ctx context.Context, q Question) error
	Update(ctx context.Context, q Question) error
}
