package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yourflix/catalogd/internal/metadata"
)

// Queue item statuses.
const (
	StatusPending = "pending"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// QueueItem is one deferred lookup waiting for the backfill driver.
type QueueItem struct {
	ID         string    `json:"id"`
	Identifier string    `json:"identifier"`
	Hint       string    `json:"hint,omitempty"`
	Status     string    `json:"status"`
	Attempts   int       `json:"attempts"`
	LastError  string    `json:"lastError,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Store provides lookup cache and queue persistence on top of DB.
type Store struct {
	db *DB
}

// NewStore creates a store over an open database.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// GetCached returns a previously resolved record, or nil on a miss.
func (s *Store) GetCached(ctx context.Context, identifier, hint string) (*metadata.Resolved, error) {
	var payload string
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT payload FROM lookup_cache WHERE identifier = ? AND hint = ?`,
		identifier, hint,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query lookup cache: %w", err)
	}

	var resolved metadata.Resolved
	if err := json.Unmarshal([]byte(payload), &resolved); err != nil {
		return nil, fmt.Errorf("failed to decode cached record: %w", err)
	}
	return &resolved, nil
}

// SaveCached upserts a resolved record for an identifier/hint pair.
func (s *Store) SaveCached(ctx context.Context, identifier, hint string, r *metadata.Resolved) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	_, err = s.db.conn.ExecContext(ctx,
		`INSERT INTO lookup_cache (identifier, hint, payload) VALUES (?, ?, ?)
		 ON CONFLICT(identifier, hint) DO UPDATE SET payload = excluded.payload, created_at = CURRENT_TIMESTAMP`,
		identifier, hint, string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to save cached record: %w", err)
	}
	return nil
}

// DeleteCached removes one cached record.
func (s *Store) DeleteCached(ctx context.Context, identifier, hint string) error {
	_, err := s.db.conn.ExecContext(ctx,
		`DELETE FROM lookup_cache WHERE identifier = ? AND hint = ?`,
		identifier, hint,
	)
	if err != nil {
		return fmt.Errorf("failed to delete cached record: %w", err)
	}
	return nil
}

// Enqueue adds a lookup to the backfill queue and returns its ID.
func (s *Store) Enqueue(ctx context.Context, identifier, hint string) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO lookup_queue (id, identifier, hint, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, identifier, hint, StatusPending, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue lookup: %w", err)
	}
	return id, nil
}

// NextPending returns up to limit pending queue items, oldest first.
func (s *Store) NextPending(ctx context.Context, limit int) ([]QueueItem, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT id, identifier, hint, status, attempts, last_error, created_at, updated_at
		 FROM lookup_queue WHERE status = ? ORDER BY created_at ASC, rowid ASC LIMIT ?`,
		StatusPending, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query queue: %w", err)
	}
	defer rows.Close()

	var items []QueueItem
	for rows.Next() {
		var item QueueItem
		var createdAt, updatedAt string
		if err := rows.Scan(&item.ID, &item.Identifier, &item.Hint, &item.Status,
			&item.Attempts, &item.LastError, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan queue item: %w", err)
		}
		item.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		item.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		items = append(items, item)
	}
	return items, rows.Err()
}

// MarkDone marks a queue item as completed.
func (s *Store) MarkDone(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, StatusDone, "")
}

// MarkFailed marks a queue item as failed and records the error.
func (s *Store) MarkFailed(ctx context.Context, id string, lastError string) error {
	return s.setStatus(ctx, id, StatusFailed, lastError)
}

func (s *Store) setStatus(ctx context.Context, id, status, lastError string) error {
	_, err := s.db.conn.ExecContext(ctx,
		`UPDATE lookup_queue
		 SET status = ?, last_error = ?, attempts = attempts + 1, updated_at = ?
		 WHERE id = ?`,
		status, lastError, time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update queue item: %w", err)
	}
	return nil
}

// QueueCounts returns the number of queue items per status.
func (s *Store) QueueCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM lookup_queue GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count queue items: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
