package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"squadlink/internal/platform/postgres"
	"squadlink/pkg/platform/audit"
	"squadlink/pkg/platform/sentinel"
	txcontext "squadlink/pkg/platform/tx"
	"squadlink/pkg/requestcontext"
)

// Store implements audit.Store on the link_audit table and writes every entry
// to the transactional outbox in the same transaction. When the context
// carries a transaction (see pkg/platform/tx) entries join it; otherwise the
// store opens its own.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const entryColumns = `
	seq, id, action_type, actor_type, actor_id, target_type, target_id,
	before_state, after_state, severity, security_finding, request_id,
	created_at, prev_hash, hash`

func (s *Store) Append(ctx context.Context, entry *audit.Entry) error {
	return s.inTx(ctx, func(q txcontext.Querier) error {
		if err := lockChain(ctx, q, entry); err != nil {
			return err
		}
		return s.appendLocked(ctx, q, entry)
	})
}

func (s *Store) AppendIfChanged(ctx context.Context, entry *audit.Entry) (bool, error) {
	written := false
	err := s.inTx(ctx, func(q txcontext.Querier) error {
		if err := lockChain(ctx, q, entry); err != nil {
			return err
		}
		var after sql.NullString
		err := q.QueryRowContext(ctx, `
			SELECT after_state FROM link_audit
			WHERE target_type = $1 AND target_id = $2 AND action_type = $3
			ORDER BY seq DESC LIMIT 1
		`, entry.TargetType, entry.TargetID, string(entry.ActionType)).Scan(&after)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("load latest audit entry: %w", err)
		case bytes.Equal([]byte(after.String), entry.AfterState):
			return nil
		}
		written = true
		return s.appendLocked(ctx, q, entry)
	})
	if err != nil {
		return false, err
	}
	return written, nil
}

func (s *Store) inTx(ctx context.Context, fn func(q txcontext.Querier) error) error {
	if tx, ok := txcontext.From(ctx); ok {
		return fn(tx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin audit tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit audit tx: %w", err)
	}
	return nil
}

// lockChain serializes appends per target. Advisory locks are re-entrant
// within a session, so callers already holding the identity tx are fine.
func lockChain(ctx context.Context, q txcontext.Querier, entry *audit.Entry) error {
	if _, err := q.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`,
		postgres.LockPrefixAudit+entry.ChainKey()); err != nil {
		return fmt.Errorf("lock audit chain: %w", err)
	}
	return nil
}

func (s *Store) appendLocked(ctx context.Context, q txcontext.Querier, entry *audit.Entry) error {
	var prev []byte
	err := q.QueryRowContext(ctx, `
		SELECT hash FROM link_audit
		WHERE target_type = $1 AND target_id = $2
		ORDER BY seq DESC LIMIT 1
	`, entry.TargetType, entry.TargetID).Scan(&prev)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("load audit chain head: %w", err)
	}

	entry.Seal(prev, requestcontext.Now(ctx))

	err = q.QueryRowContext(ctx, `
		INSERT INTO link_audit (
			id, action_type, actor_type, actor_id, target_type, target_id,
			before_state, after_state, severity, security_finding, request_id,
			created_at, prev_hash, hash
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING seq
	`,
		entry.ID,
		string(entry.ActionType),
		string(entry.ActorType),
		entry.ActorID,
		entry.TargetType,
		entry.TargetID,
		nullableJSON(entry.BeforeState),
		nullableJSON(entry.AfterState),
		string(entry.Severity),
		entry.SecurityFinding,
		entry.RequestID,
		entry.CreatedAt,
		nullableBytes(entry.PrevHash),
		entry.Hash,
	).Scan(&entry.Seq)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO audit_outbox (id, aggregate_type, aggregate_id, event_type, category, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		uuid.New(),
		entry.TargetType,
		entry.TargetID,
		string(entry.ActionType),
		string(entry.ActionType.Category()),
		string(payload),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// List returns entries matching q in append order.
func (s *Store) List(ctx context.Context, q audit.Query) ([]*audit.Entry, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if q.ActorID != "" {
		add("actor_id = $%d", q.ActorID)
	}
	if q.TargetType != "" {
		add("target_type = $%d", q.TargetType)
	}
	if q.TargetID != "" {
		add("target_id = $%d", q.TargetID)
	}
	if q.Action != "" {
		add("action_type = $%d", string(q.Action))
	}
	if !q.Since.IsZero() {
		add("created_at >= $%d", q.Since)
	}
	if !q.Until.IsZero() {
		add("created_at < $%d", q.Until)
	}

	query := "SELECT" + entryColumns + " FROM link_audit"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq ASC"
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := txcontext.QuerierFrom(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*audit.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

func (s *Store) Latest(ctx context.Context, targetType, targetID string, action audit.ActionType) (*audit.Entry, error) {
	row := txcontext.QuerierFrom(ctx, s.db).QueryRowContext(ctx, `
		SELECT`+entryColumns+` FROM link_audit
		WHERE target_type = $1 AND target_id = $2 AND action_type = $3
		ORDER BY seq DESC LIMIT 1
	`, targetType, targetID, string(action))
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

type entryRow interface {
	Scan(dest ...any) error
}

func scanEntry(row entryRow) (*audit.Entry, error) {
	var (
		e              audit.Entry
		action, actor  string
		severity       string
		before, after  sql.NullString
		prevHash, hash []byte
	)
	err := row.Scan(
		&e.Seq,
		&e.ID,
		&action,
		&actor,
		&e.ActorID,
		&e.TargetType,
		&e.TargetID,
		&before,
		&after,
		&severity,
		&e.SecurityFinding,
		&e.RequestID,
		&e.CreatedAt,
		&prevHash,
		&hash,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan audit entry: %w", err)
	}
	e.ActionType = audit.ActionType(action)
	e.ActorType = audit.ActorType(actor)
	e.Severity = audit.Severity(severity)
	if before.Valid {
		e.BeforeState = json.RawMessage(before.String)
	}
	if after.Valid {
		e.AfterState = json.RawMessage(after.String)
	}
	if len(prevHash) > 0 {
		e.PrevHash = prevHash
	}
	e.Hash = hash
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func nullableBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
