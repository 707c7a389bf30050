package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"squadlink/internal/linking/models"
	"squadlink/internal/linking/ports"
	"squadlink/pkg/platform/audit"
	"squadlink/pkg/requestcontext"
)

// RemoveLink deletes a link, recording an unlink history row and a
// link_removed audit entry in the same transaction, then re-elects the
// identity's primary.
//
// A failed re-election does not undo the removal: the result carries a nil
// Resolution and the remediation pass repairs the identity later.
func (s *Service) RemoveLink(ctx context.Context, linkID uuid.UUID, reason *string) (*models.UnlinkResult, error) {
	link, err := s.links.FindByID(ctx, linkID)
	if err != nil {
		return nil, translate(err, "remove link")
	}
	discordUserID := link.DiscordUserID

	var record *models.UnlinkRecord
	err = s.tx.RunInTx(ctx, discordUserID, func(ctx context.Context, stores ports.TxStores) error {
		current, err := stores.Links.FindByID(ctx, linkID)
		if err != nil {
			return err
		}
		actor := requestcontext.Actor(ctx)
		record = &models.UnlinkRecord{
			DiscordUserID:   discordUserID,
			LinkID:          current.ID,
			GameID64:        current.GameID64,
			OnlineServiceID: current.OnlineServiceID,
			DisplayName:     current.DisplayName,
			UnlinkedAt:      requestcontext.Now(ctx).UTC(),
			Reason:          reason,
			ActorType:       string(actor.Type),
			ActorID:         actor.ID,
		}
		if err := stores.Unlinks.Append(ctx, record); err != nil {
			return err
		}
		if err := stores.Audit.Append(ctx, newEntry(ctx, audit.ActionLinkRemoved, discordUserID, current.Snapshot(), nil)); err != nil {
			return err
		}
		return stores.Links.Delete(ctx, current.ID)
	})
	if err != nil {
		return nil, translate(err, "remove link")
	}

	s.metrics.IncLinkMutation("removed", string(link.Source))
	s.logAudit(ctx, string(audit.ActionLinkRemoved),
		"discord_user_id", discordUserID,
		"link_id", linkID.String(),
		"was_primary", link.IsPrimary,
	)

	result := &models.UnlinkResult{Record: record}
	resolution, err := s.ResolveWithRetry(ctx, discordUserID)
	if err != nil {
		s.logger.ErrorContext(ctx, "re-election after unlink failed",
			"discord_user_id", discordUserID,
			"link_id", linkID.String(),
			"error", err,
		)
		return result, nil
	}
	result.Resolution = resolution
	return result, nil
}

// ListUnlinks returns unlink history for an identity within [since, until).
// Zero times leave that side of the range open.
func (s *Service) ListUnlinks(ctx context.Context, discordUserID string, since, until time.Time) ([]*models.UnlinkRecord, error) {
	if err := models.ValidateDiscordUserID(discordUserID); err != nil {
		return nil, err
	}
	records, err := s.unlinks.ListByDiscordUser(ctx, discordUserID, since, until)
	if err != nil {
		return nil, translate(err, "list unlinks")
	}
	return records, nil
}
