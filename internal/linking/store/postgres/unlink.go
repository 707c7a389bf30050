package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"squadlink/internal/linking/models"
	txcontext "squadlink/pkg/platform/tx"
)

// UnlinkStore implements ports.UnlinkStore and ports.UnlinkReader.
type UnlinkStore struct {
	db *sql.DB
}

func NewUnlinkStore(db *sql.DB) *UnlinkStore {
	return &UnlinkStore{db: db}
}

func (s *UnlinkStore) Append(ctx context.Context, record *models.UnlinkRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	_, err := txcontext.QuerierFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO unlink_history (
			id, discord_user_id, link_id, game_id64, online_service_id, display_name,
			reason, actor_type, actor_id, unlinked_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		record.ID,
		record.DiscordUserID,
		record.LinkID,
		record.GameID64,
		record.OnlineServiceID,
		record.DisplayName,
		record.Reason,
		record.ActorType,
		record.ActorID,
		record.UnlinkedAt,
	)
	if err != nil {
		return fmt.Errorf("insert unlink history: %w", err)
	}
	return nil
}

func (s *UnlinkStore) ListByDiscordUser(ctx context.Context, discordUserID string, since, until time.Time) ([]*models.UnlinkRecord, error) {
	query := `
		SELECT id, discord_user_id, link_id, game_id64, online_service_id, display_name,
			reason, actor_type, actor_id, unlinked_at
		FROM unlink_history
		WHERE discord_user_id = $1`
	args := []any{discordUserID}
	if !since.IsZero() {
		args = append(args, since)
		query += fmt.Sprintf(" AND unlinked_at >= $%d", len(args))
	}
	if !until.IsZero() {
		args = append(args, until)
		query += fmt.Sprintf(" AND unlinked_at < $%d", len(args))
	}
	query += " ORDER BY unlinked_at"

	rows, err := txcontext.QuerierFrom(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list unlink history: %w", err)
	}
	defer rows.Close()

	var records []*models.UnlinkRecord
	for rows.Next() {
		var (
			r                         models.UnlinkRecord
			gameID, onlineID, display sql.NullString
			reason                    sql.NullString
		)
		if err := rows.Scan(
			&r.ID,
			&r.DiscordUserID,
			&r.LinkID,
			&gameID,
			&onlineID,
			&display,
			&reason,
			&r.ActorType,
			&r.ActorID,
			&r.UnlinkedAt,
		); err != nil {
			return nil, fmt.Errorf("scan unlink history: %w", err)
		}
		r.GameID64 = nullString(gameID)
		r.OnlineServiceID = nullString(onlineID)
		r.DisplayName = nullString(display)
		r.Reason = nullString(reason)
		r.UnlinkedAt = r.UnlinkedAt.UTC()
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unlink history: %w", err)
	}
	return records, nil
}
