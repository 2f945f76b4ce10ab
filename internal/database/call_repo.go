package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/observer/parley/internal/domain"
)

// CallRecordRepository persists call attempts. It implements call.Store.
type CallRecordRepository struct {
	db *DB
}

// NewCallRecordRepository creates a new CallRecordRepository
func NewCallRecordRepository(db *DB) *CallRecordRepository {
	return &CallRecordRepository{db: db}
}

// Insert creates a new call record.
func (r *CallRecordRepository) Insert(ctx context.Context, record *domain.CallRecord) error {
	query := `
		INSERT INTO call_records (id, caller_id, receiver_id, call_type, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		record.ID, record.CallerID, record.ReceiverID, record.Kind, record.Status, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert call record: %w", err)
	}
	return nil
}

// Update applies the non-nil fields of upd to the record.
func (r *CallRecordRepository) Update(ctx context.Context, id uuid.UUID, upd domain.CallRecordUpdate) error {
	sets := make([]string, 0, 4)
	args := []interface{}{id}

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Status != nil {
		add("status", *upd.Status)
	}
	if upd.StartedAt != nil {
		add("started_at", *upd.StartedAt)
	}
	if upd.EndedAt != nil {
		add("ended_at", *upd.EndedAt)
	}
	if upd.DurationSeconds != nil {
		add("duration_seconds", *upd.DurationSeconds)
	}
	if len(sets) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE call_records SET %s WHERE id = $1", strings.Join(sets, ", "))
	tag, err := r.db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update call record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// Get returns one call record with participant names joined in.
func (r *CallRecordRepository) Get(ctx context.Context, id uuid.UUID) (*domain.CallRecord, error) {
	query := `
		SELECT c.id, c.caller_id, c.receiver_id, c.call_type, c.status,
		       c.started_at, c.ended_at, c.duration_seconds, c.created_at,
		       COALESCE(cp.full_name, ''), COALESCE(rp.full_name, '')
		FROM call_records c
		LEFT JOIN profiles cp ON cp.id = c.caller_id
		LEFT JOIN profiles rp ON rp.id = c.receiver_id
		WHERE c.id = $1
	`

	var rec domain.CallRecord
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&rec.ID, &rec.CallerID, &rec.ReceiverID, &rec.Kind, &rec.Status,
		&rec.StartedAt, &rec.EndedAt, &rec.DurationSeconds, &rec.CreatedAt,
		&rec.CallerName, &rec.ReceiverName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("get call record: %w", err)
	}
	return &rec, nil
}

// ListForParticipant returns a participant's call history, newest first.
func (r *CallRecordRepository) ListForParticipant(ctx context.Context, participantID uuid.UUID, limit, offset int) ([]domain.CallRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT c.id, c.caller_id, c.receiver_id, c.call_type, c.status,
		       c.started_at, c.ended_at, c.duration_seconds, c.created_at,
		       COALESCE(cp.full_name, ''), COALESCE(rp.full_name, '')
		FROM call_records c
		LEFT JOIN profiles cp ON cp.id = c.caller_id
		LEFT JOIN profiles rp ON rp.id = c.receiver_id
		WHERE c.caller_id = $1 OR c.receiver_id = $1
		ORDER BY c.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, participantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list call records: %w", err)
	}
	defer rows.Close()

	records := make([]domain.CallRecord, 0, limit)
	for rows.Next() {
		var rec domain.CallRecord
		if err := rows.Scan(
			&rec.ID, &rec.CallerID, &rec.ReceiverID, &rec.Kind, &rec.Status,
			&rec.StartedAt, &rec.EndedAt, &rec.DurationSeconds, &rec.CreatedAt,
			&rec.CallerName, &rec.ReceiverName,
		); err != nil {
			return nil, fmt.Errorf("scan call record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
