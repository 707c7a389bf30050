// Package postgres persists links and unlink history in PostgreSQL.
//
// Stores are pure I/O. They read the transaction from context when one is
// present (see TxRunner) and fall back to the pool otherwise.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"squadlink/internal/linking/models"
	"squadlink/internal/platform/postgres"
	"squadlink/pkg/platform/sentinel"
	txcontext "squadlink/pkg/platform/tx"
	"squadlink/pkg/requestcontext"
)

// LinkStore implements ports.LinkReader and ports.LinkStore.
type LinkStore struct {
	db *sql.DB
}

func NewLinkStore(db *sql.DB) *LinkStore {
	return &LinkStore{db: db}
}

const linkColumns = `id, discord_user_id, game_id64, online_service_id, display_name,
	confidence_score, source, is_primary, created_at, updated_at`

func (s *LinkStore) ListByDiscordUser(ctx context.Context, discordUserID string) ([]*models.Link, error) {
	rows, err := txcontext.QuerierFrom(ctx, s.db).QueryContext(ctx, `
		SELECT `+linkColumns+`
		FROM identity_links
		WHERE discord_user_id = $1
		ORDER BY created_at
	`, discordUserID)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	var links []*models.Link
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}
	return links, nil
}

func (s *LinkStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Link, error) {
	row := txcontext.QuerierFrom(ctx, s.db).QueryRowContext(ctx, `
		SELECT `+linkColumns+` FROM identity_links WHERE id = $1
	`, id)
	return scanOne(row)
}

func (s *LinkStore) FindByKey(ctx context.Context, discordUserID string, game models.GameIdentity) (*models.Link, error) {
	q := txcontext.QuerierFrom(ctx, s.db)
	var row *sql.Row
	if game.GameID64 != nil {
		row = q.QueryRowContext(ctx, `
			SELECT `+linkColumns+` FROM identity_links
			WHERE discord_user_id = $1 AND game_id64 = $2
		`, discordUserID, *game.GameID64)
	} else {
		row = q.QueryRowContext(ctx, `
			SELECT `+linkColumns+` FROM identity_links
			WHERE discord_user_id = $1 AND game_id64 IS NULL AND online_service_id = $2
		`, discordUserID, game.OnlineServiceID)
	}
	return scanOne(row)
}

// Insert assigns CreatedAt after the newest existing link of the identity.
// Callers hold the identity lock, so the read-then-write cannot race.
func (s *LinkStore) Insert(ctx context.Context, link *models.Link) error {
	q := txcontext.QuerierFrom(ctx, s.db)

	var last sql.NullTime
	if err := q.QueryRowContext(ctx, `
		SELECT MAX(created_at) FROM identity_links WHERE discord_user_id = $1
	`, link.DiscordUserID).Scan(&last); err != nil {
		return fmt.Errorf("load latest created_at: %w", err)
	}
	created := requestcontext.Now(ctx).UTC().Truncate(time.Microsecond)
	if last.Valid && !created.After(last.Time) {
		created = last.Time.UTC().Add(time.Microsecond)
	}
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	link.CreatedAt = created
	link.UpdatedAt = created

	_, err := q.ExecContext(ctx, `
		INSERT INTO identity_links (`+linkColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		link.ID,
		link.DiscordUserID,
		link.GameID64,
		link.OnlineServiceID,
		link.DisplayName,
		link.ConfidenceScore,
		string(link.Source),
		link.IsPrimary,
		link.CreatedAt,
		link.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("insert link: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("insert link: %w", err)
	}
	return nil
}

func (s *LinkStore) Update(ctx context.Context, link *models.Link) error {
	res, err := txcontext.QuerierFrom(ctx, s.db).ExecContext(ctx, `
		UPDATE identity_links
		SET confidence_score = $2, source = $3, display_name = $4, updated_at = $5
		WHERE id = $1
	`, link.ID, link.ConfidenceScore, string(link.Source), link.DisplayName, link.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update link: %w", err)
	}
	return requireRow(res, "update link")
}

func (s *LinkStore) SetPrimary(ctx context.Context, id uuid.UUID, primary bool) error {
	res, err := txcontext.QuerierFrom(ctx, s.db).ExecContext(ctx, `
		UPDATE identity_links SET is_primary = $2 WHERE id = $1
	`, id, primary)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("set primary: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("set primary: %w", err)
	}
	return requireRow(res, "set primary")
}

func (s *LinkStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := txcontext.QuerierFrom(ctx, s.db).ExecContext(ctx, `DELETE FROM identity_links WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	return requireRow(res, "delete link")
}

func (s *LinkStore) ListMultiLinkIdentities(ctx context.Context) ([]string, error) {
	return s.identities(ctx, 2)
}

func (s *LinkStore) ListIdentities(ctx context.Context) ([]string, error) {
	return s.identities(ctx, 1)
}

func (s *LinkStore) identities(ctx context.Context, minLinks int) ([]string, error) {
	rows, err := txcontext.QuerierFrom(ctx, s.db).QueryContext(ctx, `
		SELECT discord_user_id
		FROM identity_links
		GROUP BY discord_user_id
		HAVING COUNT(*) >= $1
		ORDER BY discord_user_id
	`, minLinks)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return ids, nil
}

type linkRow interface {
	Scan(dest ...any) error
}

func scanOne(row linkRow) (*models.Link, error) {
	l, err := scanLink(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

func scanLink(row linkRow) (*models.Link, error) {
	var (
		l                         models.Link
		gameID, onlineID, display sql.NullString
		source                    string
	)
	err := row.Scan(
		&l.ID,
		&l.DiscordUserID,
		&gameID,
		&onlineID,
		&display,
		&l.ConfidenceScore,
		&source,
		&l.IsPrimary,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan link: %w", err)
	}
	l.GameID64 = nullString(gameID)
	l.OnlineServiceID = nullString(onlineID)
	l.DisplayName = nullString(display)
	l.Source = models.Source(source)
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	return &l, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
	}
	return nil
}
