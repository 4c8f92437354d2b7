package events

import (
	"context"
	"database/sql"
	"fmt"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PostgresRepo stores events in the events table.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	return insert(ctx, r.db, e)
}

// AppendTx inserts e as part of a caller-owned transaction.
func AppendTx(ctx context.Context, tx *sql.Tx, e Event) error {
	return insert(ctx, tx, e)
}

func insert(ctx context.Context, db execer, e Event) error {
	const q = `
INSERT INTO events (id, request_id, type, call_sid, message, created_at)
VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6)
`
	if _, err := db.ExecContext(ctx, q, e.ID, e.RequestID, string(e.Type), e.CallSID, e.Message, e.CreatedAt); err != nil {
		return fmt.Errorf("events: insert: %w", err)
	}
	return nil
}

func (r *PostgresRepo) ListByRequest(ctx context.Context, requestID string) ([]Event, error) {
	const q = `
SELECT id, request_id, type, COALESCE(call_sid, ''), COALESCE(message, ''), created_at
FROM events
WHERE request_id = $1
ORDER BY created_at ASC, id ASC
`
	rows, err := r.db.QueryContext(ctx, q, requestID)
	if err != nil {
		return nil, fmt.Errorf("events: list: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var t string
		if err := rows.Scan(&e.ID, &e.RequestID, &t, &e.CallSID, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("events: scan: %w", err)
		}
		e.Type = Type(t)
		out = append(out, e)
	}
	return out, rows.Err()
}
