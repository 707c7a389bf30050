package service

import (
	"context"
	"errors"

	"squadlink/internal/linking/models"
	"squadlink/internal/linking/ports"
	archive "squadlink/internal/rolearchive/models"
	dErrors "squadlink/pkg/domain-errors"
	"squadlink/pkg/platform/audit"
	"squadlink/pkg/platform/sentinel"
	"squadlink/pkg/requestcontext"
)

// UpsertLink records a producer's assertion that discordUserID owns game.
//
// An existing link with the same key has its confidence, source and display
// name replaced; a nil display name keeps the stored one. IsPrimary is never
// touched here: callers run ResolvePrimary afterwards.
func (s *Service) UpsertLink(ctx context.Context, discordUserID string, game models.GameIdentity, confidence float64, source models.Source) (*models.UpsertResult, error) {
	if err := models.ValidateDiscordUserID(discordUserID); err != nil {
		return nil, err
	}
	if err := models.ValidateConfidence(confidence); err != nil {
		return nil, err
	}
	if !source.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid source: "+string(source))
	}
	game = game.Normalize()
	if err := game.Validate(); err != nil {
		return nil, err
	}

	result, err := s.upsert(ctx, discordUserID, game, confidence, source)
	if err != nil {
		return nil, translate(err, "upsert link")
	}

	switch {
	case result.Created:
		s.metrics.IncLinkMutation("created", string(source))
		s.logAudit(ctx, string(audit.ActionLinkCreated),
			"discord_user_id", discordUserID,
			"link_id", result.Link.ID.String(),
			"source", string(source),
		)
	case result.Changed:
		s.metrics.IncLinkMutation("updated", string(source))
		s.logAudit(ctx, string(audit.ActionLinkUpdated),
			"discord_user_id", discordUserID,
			"link_id", result.Link.ID.String(),
			"source", string(source),
		)
	}

	if result.Created && result.Link.MeetsFloor() {
		result.Restored = s.restoreArchive(ctx, discordUserID)
	}
	return result, nil
}

func (s *Service) upsert(ctx context.Context, discordUserID string, game models.GameIdentity, confidence float64, source models.Source) (*models.UpsertResult, error) {
	result := &models.UpsertResult{}
	err := s.tx.RunInTx(ctx, discordUserID, func(ctx context.Context, stores ports.TxStores) error {
		existing, err := stores.Links.FindByKey(ctx, discordUserID, game)
		if errors.Is(err, sentinel.ErrNotFound) {
			link := &models.Link{
				DiscordUserID:   discordUserID,
				GameID64:        game.GameID64,
				OnlineServiceID: game.OnlineServiceID,
				DisplayName:     game.DisplayName,
				ConfidenceScore: confidence,
				Source:          source,
			}
			if err := stores.Links.Insert(ctx, link); err != nil {
				return err
			}
			result.Link = link
			result.Created = true
			return stores.Audit.Append(ctx, newEntry(ctx, audit.ActionLinkCreated, discordUserID, nil, link.Snapshot()))
		}
		if err != nil {
			return err
		}

		updated := existing.Clone()
		updated.ConfidenceScore = confidence
		updated.Source = source
		if game.DisplayName != nil {
			updated.DisplayName = game.DisplayName
		}
		result.Link = updated
		if !linkChanged(existing, updated) {
			return nil
		}

		updated.UpdatedAt = requestcontext.Now(ctx).UTC()
		if err := stores.Links.Update(ctx, updated); err != nil {
			return err
		}
		result.Changed = true
		return stores.Audit.Append(ctx, newEntry(ctx, audit.ActionLinkUpdated, discordUserID, existing.Snapshot(), updated.Snapshot()))
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func linkChanged(before, after *models.Link) bool {
	if before.ConfidenceScore != after.ConfidenceScore || before.Source != after.Source {
		return true
	}
	switch {
	case before.DisplayName == nil && after.DisplayName == nil:
		return false
	case before.DisplayName == nil || after.DisplayName == nil:
		return true
	default:
		return *before.DisplayName != *after.DisplayName
	}
}

// restoreArchive reclaims a role archive for a newly trusted link. Failures
// are logged; the link itself is already committed.
func (s *Service) restoreArchive(ctx context.Context, discordUserID string) *archive.RestoredSnapshot {
	if s.restorer == nil {
		return nil
	}
	snapshot, err := s.restorer.TryRestore(ctx, discordUserID)
	if err != nil {
		s.logger.WarnContext(ctx, "role archive restore failed",
			"discord_user_id", discordUserID,
			"error", err,
		)
		return nil
	}
	return snapshot
}

// ListLinks returns the identity's links in insertion order.
func (s *Service) ListLinks(ctx context.Context, discordUserID string) ([]*models.Link, error) {
	if err := models.ValidateDiscordUserID(discordUserID); err != nil {
		return nil, err
	}
	links, err := s.links.ListByDiscordUser(ctx, discordUserID)
	if err != nil {
		return nil, translate(err, "list links")
	}
	return links, nil
}
