// Package postgres implements question.Store on a Postgres database using
// pgx. Rows are keyed by (session_id, local_id) so multiple presentation
// sessions can share one table; the in-memory manager stays the source of
// truth during a session and this store is the durable mirror.
//
// Expected schema:
//
//	CREATE TABLE IF NOT EXISTS questions (
//	    session_id  TEXT        NOT NULL,
//	    local_id    INTEGER     NOT NULL,
//	    name        TEXT        NOT NULL DEFAULT 'Anonymous',
//	    question    TEXT        NOT NULL,
//	    status      TEXT        NOT NULL,
//	    score       INTEGER,
//	    flag        TEXT,
//	    flag_reason TEXT,
//	    answer      TEXT,
//	    submitted_at TIMESTAMPTZ NOT NULL,
//	    answered_at  TIMESTAMPTZ,
//	    PRIMARY KEY (session_id, local_id)
//	);
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hupe1980/stagehand/logging"
	"github.com/hupe1980/stagehand/question"
)

// Options configure the Postgres store.
type Options struct {
	// SessionID separates rows of concurrent or past presentations.
	SessionID string
	Logger    logging.Logger
}

// Store persists questions via a pgx connection pool.
type Store struct {
	pool      *pgxpool.Pool
	sessionID string
	logger    logging.Logger
}

// New connects to the database and verifies the connection.
func New(ctx context.Context, dsn string, optFns ...func(o *Options)) (*Store, error) {
	opts := Options{SessionID: "default", Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool, sessionID: opts.SessionID, logger: opts.Logger}, nil
}

var _ question.Store = (*Store)(nil)

// Insert implements question.Store.
func (s *Store) Insert(ctx context.Context, q question.Question) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO questions (session_id, local_id, name, question, status, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id, local_id) DO NOTHING`,
		s.sessionID, q.ID, q.DisplayName(), q.Question, string(q.Status), q.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("insert question #%d: %w", q.ID, err)
	}
	s.logger.Debug("Question persisted", "id", q.ID, "session_id", s.sessionID)
	return nil
}

// Update implements question.Store.
func (s *Store) Update(ctx context.Context, q question.Question) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE questions
		SET status = $3, score = $4, flag = $5, flag_reason = $6, answer = $7, answered_at = $8
		WHERE session_id = $1 AND local_id = $2`,
		s.sessionID, q.ID, string(q.Status), q.RelevanceScore, q.Flag, q.FlagReason, q.Answer, q.AnsweredAt,
	)
	if err != nil {
		return fmt.Errorf("update question #%d: %w", q.ID, err)
	}
	return nil
}

// List returns the session's questions in submission order, useful for
// post-presentation review.
func (s *Store) List(ctx context.Context) ([]question.Question, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT local_id, name, question, status, COALESCE(score, 0), COALESCE(flag, ''),
		       COALESCE(flag_reason, ''), COALESCE(answer, ''), submitted_at, answered_at
		FROM questions
		WHERE session_id = $1
		ORDER BY local_id`,
		s.sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var out []question.Question
	for rows.Next() {
		var q question.Question
		var status string
		if err := rows.Scan(&q.ID, &q.Name, &q.Question, &status, &q.RelevanceScore,
			&q.Flag, &q.FlagReason, &q.Answer, &q.SubmittedAt, &q.AnsweredAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Status = question.Status(status)
		out = append(out, q)
	}
	return out, rows.Err()
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
