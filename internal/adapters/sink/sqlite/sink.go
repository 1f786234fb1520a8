// Package sqlite records broadcast results in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bnema/social-accounts-cli/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS post_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	correlation_id TEXT NOT NULL,
	account_id TEXT NOT NULL,
	status TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL DEFAULT '',
	content_id TEXT NOT NULL DEFAULT '',
	content_url TEXT NOT NULL DEFAULT '',
	recorded_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_post_results_correlation ON post_results(correlation_id);

CREATE TABLE IF NOT EXISTS engagement_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	correlation_id TEXT NOT NULL,
	account_id TEXT NOT NULL,
	term TEXT NOT NULL,
	status TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL DEFAULT '',
	liked INTEGER NOT NULL DEFAULT 0,
	skipped INTEGER NOT NULL DEFAULT 0,
	failed INTEGER NOT NULL DEFAULT 0,
	liked_ids TEXT NOT NULL DEFAULT '',
	recorded_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_engagement_results_correlation ON engagement_results(correlation_id);
`

var ErrClosed = errors.New("result sink closed")

type Sink struct {
	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// Open creates the database file and its tables when missing.
func Open(ctx context.Context, path string) (*Sink, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create sink directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sink database: %w", err)
	}
	// A single connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sink schema: %w", err)
	}

	return &Sink{db: db}, nil
}

func (s *Sink) RecordPost(ctx context.Context, result domain.PostResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO post_results
			(correlation_id, account_id, status, reason, message, content_id, content_url, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.CorrelationID,
		string(result.AccountID),
		string(result.Outcome.Status),
		string(result.Outcome.Reason),
		result.Outcome.Message,
		result.ContentID,
		result.ContentURL,
		formatTime(result.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("insert post result: %w", err)
	}
	return nil
}

func (s *Sink) RecordEngagement(ctx context.Context, result domain.EngagementResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO engagement_results
			(correlation_id, account_id, term, status, reason, message, liked, skipped, failed, liked_ids, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.CorrelationID,
		string(result.AccountID),
		result.Term,
		string(result.Outcome.Status),
		string(result.Outcome.Reason),
		result.Outcome.Message,
		result.Liked,
		result.Skipped,
		result.Failed,
		strings.Join(result.LikedIDs, ","),
		formatTime(result.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("insert engagement result: %w", err)
	}
	return nil
}

// PostResults returns the recorded post results of one broadcast in insertion order.
func (s *Sink) PostResults(ctx context.Context, correlationID string) ([]domain.PostResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT correlation_id, account_id, status, reason, message, content_id, content_url, recorded_at
		FROM post_results WHERE correlation_id = ? ORDER BY id`, correlationID)
	if err != nil {
		return nil, fmt.Errorf("query post results: %w", err)
	}
	defer rows.Close()

	var results []domain.PostResult
	for rows.Next() {
		var (
			result                    domain.PostResult
			accountID, status, reason string
			recordedAt                string
		)
		if err := rows.Scan(
			&result.CorrelationID, &accountID, &status, &reason, &result.Outcome.Message,
			&result.ContentID, &result.ContentURL, &recordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan post result: %w", err)
		}
		result.AccountID = domain.AccountID(accountID)
		result.Outcome.Status = domain.OutcomeStatus(status)
		result.Outcome.Reason = domain.ErrorKind(reason)
		result.Timestamp = parseTime(recordedAt)
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate post results: %w", err)
	}
	return results, nil
}

// EngagementResults returns the recorded engagement results of one broadcast
// in insertion order.
func (s *Sink) EngagementResults(ctx context.Context, correlationID string) ([]domain.EngagementResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT correlation_id, account_id, term, status, reason, message, liked, skipped, failed, liked_ids, recorded_at
		FROM engagement_results WHERE correlation_id = ? ORDER BY id`, correlationID)
	if err != nil {
		return nil, fmt.Errorf("query engagement results: %w", err)
	}
	defer rows.Close()

	var results []domain.EngagementResult
	for rows.Next() {
		var (
			result                    domain.EngagementResult
			accountID, status, reason string
			likedIDs, recordedAt      string
		)
		if err := rows.Scan(
			&result.CorrelationID, &accountID, &result.Term, &status, &reason, &result.Outcome.Message,
			&result.Liked, &result.Skipped, &result.Failed, &likedIDs, &recordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan engagement result: %w", err)
		}
		result.AccountID = domain.AccountID(accountID)
		result.Outcome.Status = domain.OutcomeStatus(status)
		result.Outcome.Reason = domain.ErrorKind(reason)
		if likedIDs != "" {
			result.LikedIDs = strings.Split(likedIDs, ",")
		}
		result.Timestamp = parseTime(recordedAt)
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate engagement results: %w", err)
	}
	return results, nil
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
