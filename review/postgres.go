// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package review

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// Ensure PostgresRepository implements Repository
var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a new PostgreSQL repository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Migrate creates the review tables if they do not exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS ai_review_queue (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL DEFAULT '',
		user_id TEXT NOT NULL,
		agent_id TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		content_type TEXT NOT NULL DEFAULT 'text',
		input TEXT NOT NULL DEFAULT '',
		output TEXT NOT NULL,
		edited_output TEXT,
		safety_score INT NOT NULL DEFAULT 0,
		safety_flags TEXT[] NOT NULL DEFAULT '{}',
		priority TEXT NOT NULL DEFAULT 'normal',
		status TEXT NOT NULL DEFAULT 'pending',
		reviewer_id TEXT,
		review_notes TEXT,
		metadata JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_review_queue_status ON ai_review_queue(status);
	CREATE INDEX IF NOT EXISTS idx_review_queue_user ON ai_review_queue(user_id);

	CREATE TABLE IF NOT EXISTS ai_review_history (
		id TEXT PRIMARY KEY,
		item_id TEXT NOT NULL REFERENCES ai_review_queue(id),
		event TEXT NOT NULL,
		actor_id TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		edited BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_review_history_item ON ai_review_history(item_id);`

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate review schema: %w", err)
	}
	return nil
}

// Create inserts a new pending item.
func (r *PostgresRepository) Create(ctx context.Context, item *Item) error {
	if item == nil || item.ID == "" {
		return ErrInvalidInput
	}

	metadata, err := json.Marshal(item.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO ai_review_queue (
			id, session_id, user_id, agent_id, title, content_type,
			input, output, safety_score, safety_flags,
			priority, status, metadata,
			created_at, updated_at, expires_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12, $13,
			$14, $15, $16
		)`

	_, err = r.db.ExecContext(ctx, query,
		item.ID, item.SessionID, item.UserID, item.AgentID, item.Title, string(item.ContentType),
		item.Input, item.Output, item.SafetyScore, pq.Array(item.SafetyFlags),
		string(item.Priority), string(item.Status), metadata,
		item.CreatedAt, item.UpdatedAt, item.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create review item: %w", err)
	}
	return nil
}

// Get returns an item by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Item, error) {
	query := selectColumns + ` FROM ai_review_queue WHERE id = $1`
	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review item: %w", err)
	}
	return item, nil
}

// List returns items matching the filter, critical first, newest change
// first within the same priority.
func (r *PostgresRepository) List(ctx context.Context, filter QueueFilter) ([]*Item, error) {
	var conditions []string
	var args []interface{}

	addCondition := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.Status != "" {
		addCondition("status = $%d", string(filter.Status))
	}
	if filter.Priority != "" {
		addCondition("priority = $%d", string(filter.Priority))
	}
	if filter.UserID != "" {
		addCondition("user_id = $%d", filter.UserID)
	}
	if filter.AgentID != "" {
		addCondition("agent_id = $%d", filter.AgentID)
	}

	query := selectColumns + ` FROM ai_review_queue`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += `
		ORDER BY CASE priority
			WHEN 'critical' THEN 0
			WHEN 'high' THEN 1
			WHEN 'normal' THEN 2
			ELSE 3
		END, updated_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list review items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateStatusIfPending performs the conditional terminal transition. The
// WHERE clause carries the state check so concurrent reviewers cannot both
// win; RowsAffected tells the loser apart from a missing row. An edited
// output replaces the stored output for release; the edit itself is kept in
// edited_output.
func (r *PostgresRepository) UpdateStatusIfPending(ctx context.Context, id string, status Status, reviewerID, notes string, editedOutput *string) (bool, error) {
	query := `
		UPDATE ai_review_queue
		SET status = $2,
			reviewer_id = $3,
			review_notes = $4,
			output = COALESCE($5, output),
			edited_output = COALESCE($5, edited_output),
			updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`

	result, err := r.db.ExecContext(ctx, query,
		id, string(status), reviewerID, notes, editedOutput)
	if err != nil {
		return false, fmt.Errorf("failed to update review item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected == 1, nil
}

// AppendHistory records one lifecycle event.
func (r *PostgresRepository) AppendHistory(ctx context.Context, entry *HistoryEntry) error {
	query := `
		INSERT INTO ai_review_history (id, item_id, event, actor_id, notes, edited, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.ItemID, entry.Event, entry.ActorID, entry.Notes, entry.Edited, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append review history: %w", err)
	}
	return nil
}

// History returns an item's events oldest first.
func (r *PostgresRepository) History(ctx context.Context, itemID string) ([]*HistoryEntry, error) {
	query := `
		SELECT id, item_id, event, actor_id, notes, edited, created_at
		FROM ai_review_history
		WHERE item_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query review history: %w", err)
	}
	defer rows.Close()

	var entries []*HistoryEntry
	for rows.Next() {
		entry := &HistoryEntry{}
		if err := rows.Scan(&entry.ID, &entry.ItemID, &entry.Event,
			&entry.ActorID, &entry.Notes, &entry.Edited, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Stats summarizes the queue. Expired is computed at read time from pending
// items past their expiry.
func (r *PostgresRepository) Stats(ctx context.Context) (*QueueStats, error) {
	stats := &QueueStats{
		ByStatus:   make(map[Status]int),
		ByPriority: make(map[Priority]int),
		ByAgent:    make(map[string]int),
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT status, priority, agent_id, COUNT(*)
		FROM ai_review_queue
		GROUP BY status, priority, agent_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query review stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status, priority, agentID string
		var count int
		if err := rows.Scan(&status, &priority, &agentID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan review stats: %w", err)
		}
		stats.Total += count
		stats.ByStatus[Status(status)] += count
		stats.ByPriority[Priority(priority)] += count
		if agentID != "" {
			stats.ByAgent[agentID] += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM ai_review_queue
		WHERE status = 'pending' AND expires_at < NOW()`).Scan(&stats.Expired)
	if err != nil {
		return nil, fmt.Errorf("failed to count expired items: %w", err)
	}

	return stats, nil
}

const selectColumns = `
	SELECT id, session_id, user_id, agent_id, title, content_type,
		input, output, edited_output, safety_score, safety_flags,
		priority, status, reviewer_id, review_notes, metadata,
		created_at, updated_at, expires_at`

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*Item, error) {
	item := &Item{}
	var contentType, priority, status string
	var editedOutput, reviewerID, reviewNotes sql.NullString
	var flags pq.StringArray
	var metadata []byte
	var createdAt, updatedAt, expiresAt time.Time

	err := row.Scan(
		&item.ID, &item.SessionID, &item.UserID, &item.AgentID, &item.Title, &contentType,
		&item.Input, &item.Output, &editedOutput, &item.SafetyScore, &flags,
		&priority, &status, &reviewerID, &reviewNotes, &metadata,
		&createdAt, &updatedAt, &expiresAt,
	)
	if err != nil {
		return nil, err
	}

	item.ContentType = ContentType(contentType)
	item.Priority = Priority(priority)
	item.Status = Status(status)
	item.EditedOutput = editedOutput.String
	item.ReviewerID = reviewerID.String
	item.ReviewNotes = reviewNotes.String
	item.SafetyFlags = []string(flags)
	item.CreatedAt = createdAt
	item.UpdatedAt = updatedAt
	item.ExpiresAt = expiresAt

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &item.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return item, nil
}
