package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"squadlink/pkg/platform/audit"
)

// ClaimBatch locks up to limit unpublished outbox rows, hands them to fn and
// marks them published only when fn succeeds. SKIP LOCKED lets several relay
// instances drain the outbox without double-publishing.
func (s *Store) ClaimBatch(ctx context.Context, limit int, fn func([]audit.OutboxMessage) error) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin outbox tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, category, payload, created_at
		FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY seq
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return 0, fmt.Errorf("select outbox batch: %w", err)
	}

	var (
		batch []audit.OutboxMessage
		ids   []string
	)
	for rows.Next() {
		var (
			msg      audit.OutboxMessage
			category string
			payload  string
		)
		if err := rows.Scan(&msg.ID, &msg.AggregateType, &msg.AggregateID, &msg.EventType, &category, &payload, &msg.CreatedAt); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan outbox row: %w", err)
		}
		msg.Category = audit.EventCategory(category)
		msg.Payload = []byte(payload)
		batch = append(batch, msg)
		ids = append(ids, msg.ID.String())
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate outbox rows: %w", err)
	}
	if len(batch) == 0 {
		return 0, nil
	}

	if err := fn(batch); err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE audit_outbox SET published_at = NOW()
		WHERE id = ANY($1::uuid[])
	`, pq.Array(ids)); err != nil {
		return 0, fmt.Errorf("mark outbox published: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit outbox tx: %w", err)
	}
	return len(batch), nil
}

// Pending counts unpublished outbox rows.
func (s *Store) Pending(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_outbox WHERE published_at IS NULL`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pending outbox: %w", err)
	}
	return n, nil
}
