package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"squadlink/internal/linking/ports"
	"squadlink/internal/platform/postgres"
	"squadlink/pkg/platform/audit"
	"squadlink/pkg/platform/sentinel"
	txcontext "squadlink/pkg/platform/tx"
)

// TxRunner implements ports.LinkStoreTx with a transaction-scoped advisory
// lock on the Discord identity. The lock is taken with try semantics and is
// released by Postgres on commit or rollback.
type TxRunner struct {
	db      *sql.DB
	links   *LinkStore
	unlinks *UnlinkStore
	audit   audit.Appender
}

// NewTxRunner wires stores that join the runner's transaction through context.
// auditLog must also read its transaction from context.
func NewTxRunner(db *sql.DB, links *LinkStore, unlinks *UnlinkStore, auditLog audit.Appender) *TxRunner {
	return &TxRunner{db: db, links: links, unlinks: unlinks, audit: auditLog}
}

func (r *TxRunner) RunInTx(ctx context.Context, discordUserID string, fn func(ctx context.Context, stores ports.TxStores) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin link tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var locked bool
	if err := tx.QueryRowContext(ctx, `SELECT pg_try_advisory_xact_lock(hashtextextended($1, 0))`,
		postgres.LockPrefixIdentity+discordUserID).Scan(&locked); err != nil {
		if postgres.IsLockContention(err) {
			return fmt.Errorf("identity %s: %w", discordUserID, sentinel.ErrConflict)
		}
		return fmt.Errorf("lock identity: %w", err)
	}
	if !locked {
		return fmt.Errorf("identity %s: %w", discordUserID, sentinel.ErrConflict)
	}

	txCtx := txcontext.WithTx(ctx, tx)
	if err := fn(txCtx, ports.TxStores{
		Links:   r.links,
		Unlinks: r.unlinks,
		Audit:   r.audit,
	}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit link tx: %w", err)
	}
	return nil
}
