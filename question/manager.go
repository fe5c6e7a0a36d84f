package question

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/stagehand/logging"
)

// ManagerOptions configure the question manager.
type ManagerOptions struct {
	// Store mirrors writes to durable storage; nil disables persistence.
	Store  Store
	Logger logging.Logger
}

// Manager owns the in-memory question queue for one session. All methods are
// safe for concurrent use; returned questions are copies.
type Manager struct {
	mu        sync.Mutex
	questions []*Question
	nextID    int

	store  Store
	logger logging.Logger
}

// NewManager creates an empty manager.
func NewManager(optFns ...func(o *ManagerOptions)) *Manager {
	opts := ManagerOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Manager{nextID: 1, store: opts.Store, logger: opts.Logger}
}

// Submit validates and records a new audience question. Persistence is best
// effort; a store failure is logged and the submission still succeeds.
func (m *Manager) Submit(ctx context.Context, name, text string) (Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Question{}, fmt.Errorf("question must not be empty")
	}
	if len(text) > MaxLength {
		return Question{}, fmt.Errorf("question exceeds %d characters", MaxLength)
	}

	m.mu.Lock()
	q := &Question{
		ID:          m.nextID,
		Name:        strings.TrimSpace(name),
		Question:    text,
		SubmittedAt: time.Now().UTC(),
		Status:      StatusPending,
	}
	m.nextID++
	m.questions = append(m.questions, q)
	clone := *q
	m.mu.Unlock()

	m.logger.Info("Question submitted", "id", clone.ID, "name", clone.DisplayName())
	m.persist(ctx, clone, true)
	return clone, nil
}

// ApplyFilter records the AI relevance result. A flag holds the question for
// review; a score at or above AutoApproveScore approves it; anything else
// stays pending.
func (m *Manager) ApplyFilter(ctx context.Context, id, score int, flag, reason string) (Question, bool) {
	m.mu.Lock()
	q := m.find(id)
	if q == nil {
		m.mu.Unlock()
		return Question{}, false
	}
	q.RelevanceScore = score
	q.Flag = flag
	q.FlagReason = reason
	switch {
	case flag != "":
		q.Status = StatusFlagged
	case score >= AutoApproveScore:
		q.Status = StatusApproved
	}
	clone := *q
	m.mu.Unlock()

	m.logger.Info("Question filtered", "id", id, "score", score, "status", clone.Status)
	m.persist(ctx, clone, false)
	return clone, true
}

// Pick manually selects a question for answering. Already-answered questions
// cannot be picked again.
func (m *Manager) Pick(ctx context.Context, id int) (Question, bool) {
	m.mu.Lock()
	q := m.find(id)
	if q == nil || q.Status == StatusAnswered {
		m.mu.Unlock()
		return Question{}, false
	}
	q.Status = StatusApproved
	clone := *q
	m.mu.Unlock()

	m.persist(ctx, clone, false)
	return clone, true
}

// MarkAnswered records the spoken answer for a question.
func (m *Manager) MarkAnswered(ctx context.Context, id int, answer string) {
	m.mu.Lock()
	q := m.find(id)
	if q == nil {
		m.mu.Unlock()
		return
	}
	now := time.Now().UTC()
	q.Status = StatusAnswered
	q.Answer = answer
	q.AnsweredAt = &now
	clone := *q
	m.mu.Unlock()

	m.logger.Info("Question answered", "id", id)
	m.persist(ctx, clone, false)
}

// Get returns a question by id.
func (m *Manager) Get(id int) (Question, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.find(id)
	if q == nil {
		return Question{}, false
	}
	return *q, true
}

// NextApproved returns the oldest approved question, FIFO order.
func (m *Manager) NextApproved() (Question, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.questions {
		if q.Status == StatusApproved {
			return *q, true
		}
	}
	return Question{}, false
}

// All returns copies of every question in submission order.
func (m *Manager) All() []Question {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Question, 0, len(m.questions))
	for _, q := range m.questions {
		out = append(out, *q)
	}
	return out
}

// Pending returns the questions still awaiting a decision.
func (m *Manager) Pending() []Question {
	return m.filter(StatusPending)
}

// Approved returns the questions cleared for answering.
func (m *Manager) Approved() []Question {
	return m.filter(StatusApproved)
}

// Counts summarizes the queue.
func (m *Manager) Counts() Counts {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := Counts{Total: len(m.questions)}
	for _, q := range m.questions {
		switch q.Status {
		case StatusPending:
			c.Pending++
		case StatusApproved:
			c.Approved++
		case StatusAnswered:
			c.Answered++
		}
	}
	return c
}

// Clear drops all questions and resets ids.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.questions = nil
	m.nextID = 1
}

func (m *Manager) filter(status Status) []Question {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Question
	for _, q := range m.questions {
		if q.Status == status {
			out = append(out, *q)
		}
	}
	return out
}

// find must be called with the lock held.
func (m *Manager) find(id int) *Question {
	for _, q := range m.questions {
		if q.ID == id {
			return q
		}
	}
	return nil
}

func (m *Manager) persist(ctx context.Context, q Question, insert bool) {
	if m.store == nil {
		return
	}
	var err error
	if insert {
		err = m.store.Insert(ctx, q)
	} else {
		err = m.store.Update(ctx, q)
	}
	if err != nil {
		m.logger.Warn("Question persistence failed", "id", q.ID, "error", err)
	}
}
