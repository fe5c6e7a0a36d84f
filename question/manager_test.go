package question

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingStore captures persistence calls for assertions.
type recordingStore struct {
	inserts []Question
	updates []Question
	err     error
}

func (s *recordingStore) Insert(_ context.Context, q Question) error {
	s.inserts = append(s.inserts, q)
	return s.err
}

func (s *recordingStore) Update(_ context.Context, q Question) error {
	s.updates = append(s.updates, q)
	return s.err
}

func TestSubmitAssignsSequentialIDs(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	q1, err := m.Submit(ctx, "Maria", "How do we start?")
	require.NoError(t, err)
	q2, err := m.Submit(ctx, "", "What about pricing?")
	require.NoError(t, err)

	assert.Equal(t, 1, q1.ID)
	assert.Equal(t, 2, q2.ID)
	assert.Equal(t, StatusPending, q1.Status)
	assert.Equal(t, "Anonymous", q2.DisplayName())
	assert.Equal(t, 2, m.Counts().Total)
}

func TestSubmitValidation(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	_, err := m.Submit(ctx, "x", "   ")
	assert.Error(t, err)

	_, err = m.Submit(ctx, "x", strings.Repeat("a", MaxLength+1))
	assert.Error(t, err)

	_, err = m.Submit(ctx, "x", strings.Repeat("a", MaxLength))
	assert.NoError(t, err)
}

func TestApplyFilter(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	q, _ := m.Submit(ctx, "a", "relevant question")
	filtered, ok := m.ApplyFilter(ctx, q.ID, 8, "", "on topic")
	require.True(t, ok)
	assert.Equal(t, StatusApproved, filtered.Status)
	assert.Equal(t, 8, filtered.RelevanceScore)

	q, _ = m.Submit(ctx, "b", "borderline question")
	filtered, _ = m.ApplyFilter(ctx, q.ID, 4, "", "weak")
	assert.Equal(t, StatusPending, filtered.Status)

	q, _ = m.Submit(ctx, "c", "hostile question")
	filtered, _ = m.ApplyFilter(ctx, q.ID, 9, "inappropriate", "tone")
	assert.Equal(t, StatusFlagged, filtered.Status)
	assert.Equal(t, "inappropriate", filtered.Flag)

	_, ok = m.ApplyFilter(ctx, 999, 5, "", "")
	assert.False(t, ok)
}

func TestPickAndMarkAnswered(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	q, _ := m.Submit(ctx, "a", "pick me")
	picked, ok := m.Pick(ctx, q.ID)
	require.True(t, ok)
	assert.Equal(t, StatusApproved, picked.Status)

	m.MarkAnswered(ctx, q.ID, "here is the answer")
	got, _ := m.Get(q.ID)
	assert.Equal(t, StatusAnswered, got.Status)
	assert.Equal(t, "here is the answer", got.Answer)
	assert.NotNil(t, got.AnsweredAt)

	// Answered questions cannot be picked again.
	_, ok = m.Pick(ctx, q.ID)
	assert.False(t, ok)

	_, ok = m.Pick(ctx, 42)
	assert.False(t, ok)
}

func TestListsAndCounts(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	a, _ := m.Submit(ctx, "a", "first")
	b, _ := m.Submit(ctx, "b", "second")
	m.Submit(ctx, "c", "third")

	m.ApplyFilter(ctx, a.ID, 9, "", "")
	m.ApplyFilter(ctx, b.ID, 7, "", "")
	m.MarkAnswered(ctx, a.ID, "done")

	counts := m.Counts()
	assert.Equal(t, 3, counts.Total)
	assert.Equal(t, 1, counts.Pending)
	assert.Equal(t, 1, counts.Approved)
	assert.Equal(t, 1, counts.Answered)

	assert.Len(t, m.Pending(), 1)
	assert.Len(t, m.Approved(), 1)
	assert.Len(t, m.All(), 3)

	next, ok := m.NextApproved()
	require.True(t, ok)
	assert.Equal(t, b.ID, next.ID)
}

func TestPersistenceBestEffort(t *testing.T) {
	store := &recordingStore{}
	m := NewManager(func(o *ManagerOptions) { o.Store = store })
	ctx := context.Background()

	q, err := m.Submit(ctx, "a", "persist me")
	require.NoError(t, err)
	require.Len(t, store.inserts, 1)
	assert.Equal(t, q.ID, store.inserts[0].ID)

	m.ApplyFilter(ctx, q.ID, 8, "", "")
	m.MarkAnswered(ctx, q.ID, "answer")
	assert.Len(t, store.updates, 2)

	// A failing store never fails the submission.
	store.err = assert.AnError
	_, err = m.Submit(ctx, "b", "still works")
	assert.NoError(t, err)
}

func TestClear(t *testing.T) {
	m := NewManager()
	ctx := context.Background()
	m.Submit(ctx, "a", "q")
	m.Clear()

	assert.Zero(t, m.Counts().Total)
	q, _ := m.Submit(ctx, "a", "fresh")
	assert.Equal(t, 1, q.ID)
}
