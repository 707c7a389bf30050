// Package ports declares the boundaries of the link engine: stores,
// the transactional runner, the privilege guard and the role-archive restorer.
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"squadlink/internal/linking/models"
	archive "squadlink/internal/rolearchive/models"
	"squadlink/pkg/platform/audit"
)

// LinkReader reads committed link state.
type LinkReader interface {
	// ListByDiscordUser returns the identity's links in insertion order.
	ListByDiscordUser(ctx context.Context, discordUserID string) ([]*models.Link, error)
	// FindByID returns sentinel.ErrNotFound when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Link, error)
	// ListMultiLinkIdentities returns Discord IDs holding more than one link, sorted.
	ListMultiLinkIdentities(ctx context.Context) ([]string, error)
	// ListIdentities returns every Discord ID holding at least one link, sorted.
	ListIdentities(ctx context.Context) ([]string, error)
}

// LinkStore is the link table as seen inside an identity transaction.
type LinkStore interface {
	ListByDiscordUser(ctx context.Context, discordUserID string) ([]*models.Link, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Link, error)
	// FindByKey looks a link up by its upsert key. sentinel.ErrNotFound when absent.
	FindByKey(ctx context.Context, discordUserID string, game models.GameIdentity) (*models.Link, error)
	// Insert assigns CreatedAt, strictly increasing per identity.
	Insert(ctx context.Context, link *models.Link) error
	// Update persists ConfidenceScore, Source, DisplayName and UpdatedAt only.
	Update(ctx context.Context, link *models.Link) error
	SetPrimary(ctx context.Context, id uuid.UUID, primary bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// UnlinkStore is the append-only unlink history.
type UnlinkStore interface {
	Append(ctx context.Context, record *models.UnlinkRecord) error
}

// UnlinkReader queries unlink history. Zero times do not filter; until is exclusive.
type UnlinkReader interface {
	ListByDiscordUser(ctx context.Context, discordUserID string, since, until time.Time) ([]*models.UnlinkRecord, error)
}

// TxStores are the stores bound to one identity transaction.
type TxStores struct {
	Links   LinkStore
	Unlinks UnlinkStore
	Audit   audit.Appender
}

// LinkStoreTx runs fn inside a transaction holding the identity lock for
// discordUserID. The lock is acquired with try semantics: when another
// transaction holds it, RunInTx returns sentinel.ErrConflict without calling
// fn. Writes made through stores become visible only if fn returns nil.
type LinkStoreTx interface {
	RunInTx(ctx context.Context, discordUserID string, fn func(ctx context.Context, stores TxStores) error) error
}

// PrivilegeGuard answers whether an identity currently holds a privileged role.
// It must be safe for concurrent use and never mutate engine state.
type PrivilegeGuard interface {
	HasPrivilegedRole(ctx context.Context, discordUserID string) (bool, error)
}

// Restorer reclaims a role archive when an identity re-links.
type Restorer interface {
	TryRestore(ctx context.Context, discordUserID string) (*archive.RestoredSnapshot, error)
}
