package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fbetancur/CrediSync360/database"
	"github.com/fbetancur/CrediSync360/models"
)

// SyncQueueRepository implements the service.SyncQueueRepository
// interface. The auto-increment primary key preserves enqueue order so
// FIFO draining is a simple ORDER BY.
type SyncQueueRepository struct {
	q Queryable
}

// NewSyncQueueRepository creates a new sync queue repository
func NewSyncQueueRepository(db *database.DB) *SyncQueueRepository {
	return &SyncQueueRepository{q: db.DB}
}

const queueColumns = `
	id, operation_type, payload, enqueued_at, retry_count, status, last_error, last_attempt_at, synced_at`

func scanQueueItem(s scanner) (*models.SyncQueueItem, error) {
	var (
		item        models.SyncQueueItem
		payload     string
		enqueuedAt  int64
		lastError   sql.NullString
		lastAttempt sql.NullInt64
		syncedAt    sql.NullInt64
	)
	err := s.Scan(
		&item.ID, &item.Operation, &payload, &enqueuedAt,
		&item.RetryCount, &item.Status, &lastError, &lastAttempt, &syncedAt,
	)
	if err != nil {
		return nil, err
	}

	item.EnqueuedAt = fromMillis(enqueuedAt)
	item.LastError = lastError.String
	if lastAttempt.Valid {
		t := fromMillis(lastAttempt.Int64)
		item.LastAttemptAt = &t
	}
	if syncedAt.Valid {
		t := fromMillis(syncedAt.Int64)
		item.SyncedAt = &t
	}

	if item.Payload, err = models.DecodeSyncPayload(item.Operation, []byte(payload)); err != nil {
		return nil, err
	}
	return &item, nil
}

// Append stores a new queue item and sets its auto-increment ID
func (r *SyncQueueRepository) Append(ctx context.Context, item *models.SyncQueueItem) error {
	payload, err := json.Marshal(item.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", item.Operation, err)
	}

	query := `
		INSERT INTO sync_queue (operation_type, payload, enqueued_at, retry_count, status)
		VALUES (?, ?, ?, ?, ?)`

	result, err := r.q.ExecContext(ctx, query,
		string(item.Operation), string(payload), toMillis(item.EnqueuedAt),
		item.RetryCount, string(item.Status))
	if err != nil {
		return fmt.Errorf("failed to append %s to sync queue: %w", item.Operation, err)
	}

	item.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read sync queue item id: %w", err)
	}
	return nil
}

// Get retrieves a queue item by id, returning (nil, nil) when absent
func (r *SyncQueueRepository) Get(ctx context.Context, id int64) (*models.SyncQueueItem, error) {
	query := `SELECT ` + queueColumns + ` FROM sync_queue WHERE id = ?`

	item, err := scanQueueItem(r.q.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync queue item %d: %w", id, err)
	}
	return item, nil
}

// ListPending returns PENDING items in enqueue order
func (r *SyncQueueRepository) ListPending(ctx context.Context) ([]*models.SyncQueueItem, error) {
	query := `
		SELECT ` + queueColumns + `
		FROM sync_queue
		WHERE status = ?
		ORDER BY enqueued_at, id`
	return r.list(ctx, query, string(models.SyncStatusPending))
}

// MarkSynced transitions an item to SYNCED and stamps syncedAt
func (r *SyncQueueRepository) MarkSynced(ctx context.Context, id int64, at time.Time) error {
	query := `
		UPDATE sync_queue SET status = ?, synced_at = ?, last_attempt_at = ?, last_error = NULL
		WHERE id = ?`

	_, err := r.q.ExecContext(ctx, query,
		string(models.SyncStatusSynced), toMillis(at), toMillis(at), id)
	if err != nil {
		return fmt.Errorf("failed to mark sync queue item %d synced: %w", id, err)
	}
	return nil
}

// MarkRetry records a failed attempt that stays PENDING
func (r *SyncQueueRepository) MarkRetry(ctx context.Context, id int64, retryCount int, lastError string, at time.Time) error {
	query := `
		UPDATE sync_queue SET retry_count = ?, last_error = ?, last_attempt_at = ?
		WHERE id = ?`

	_, err := r.q.ExecContext(ctx, query, retryCount, lastError, toMillis(at), id)
	if err != nil {
		return fmt.Errorf("failed to mark sync queue item %d for retry: %w", id, err)
	}
	return nil
}

// MarkFailed transitions an item to FAILED after exhausting retries
func (r *SyncQueueRepository) MarkFailed(ctx context.Context, id int64, retryCount int, lastError string, at time.Time) error {
	query := `
		UPDATE sync_queue SET status = ?, retry_count = ?, last_error = ?, last_attempt_at = ?
		WHERE id = ?`

	_, err := r.q.ExecContext(ctx, query,
		string(models.SyncStatusFailed), retryCount, lastError, toMillis(at), id)
	if err != nil {
		return fmt.Errorf("failed to mark sync queue item %d failed: %w", id, err)
	}
	return nil
}

// CountByStatus returns the number of queue items per status
func (r *SyncQueueRepository) CountByStatus(ctx context.Context) (map[models.SyncStatus]int, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT status, COUNT(*) FROM sync_queue GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count sync queue items: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.SyncStatus]int)
	for rows.Next() {
		var (
			status models.SyncStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan sync queue count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// ListFailed returns FAILED items in enqueue order
func (r *SyncQueueRepository) ListFailed(ctx context.Context) ([]*models.SyncQueueItem, error) {
	query := `
		SELECT ` + queueColumns + `
		FROM sync_queue
		WHERE status = ?
		ORDER BY enqueued_at, id`
	return r.list(ctx, query, string(models.SyncStatusFailed))
}

// ResetFailed returns FAILED items to PENDING with retryCount zeroed
func (r *SyncQueueRepository) ResetFailed(ctx context.Context) (int, error) {
	query := `
		UPDATE sync_queue SET status = ?, retry_count = 0, last_error = NULL, last_attempt_at = NULL
		WHERE status = ?`

	result, err := r.q.ExecContext(ctx, query,
		string(models.SyncStatusPending), string(models.SyncStatusFailed))
	if err != nil {
		return 0, fmt.Errorf("failed to reset failed sync queue items: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count reset sync queue items: %w", err)
	}
	return int(n), nil
}

// DeleteSyncedBefore removes SYNCED items older than cutoff
func (r *SyncQueueRepository) DeleteSyncedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	query := `DELETE FROM sync_queue WHERE status = ? AND synced_at < ?`

	result, err := r.q.ExecContext(ctx, query,
		string(models.SyncStatusSynced), toMillis(cutoff))
	if err != nil {
		return 0, fmt.Errorf("failed to delete synced queue items: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted queue items: %w", err)
	}
	return int(n), nil
}

func (r *SyncQueueRepository) list(ctx context.Context, query string, args ...any) ([]*models.SyncQueueItem, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync queue items: %w", err)
	}
	defer rows.Close()

	var items []*models.SyncQueueItem
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync queue item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
