package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"squadlink/internal/linking/models"
	"squadlink/internal/linking/ports"
	"squadlink/pkg/platform/audit"
)

// DetectAnomalies cross-checks an identity's links against its audit trail.
//
// It reports a broken hash chain, links whose IsPrimary disagrees with the
// latest primary_changed entry for that link, and more than one primary.
// The check runs under the identity lock so no election interleaves with
// the two reads.
func (s *Service) DetectAnomalies(ctx context.Context, discordUserID string) ([]models.Anomaly, error) {
	if err := models.ValidateDiscordUserID(discordUserID); err != nil {
		return nil, err
	}

	var anomalies []models.Anomaly
	err := s.tx.RunInTx(ctx, discordUserID, func(ctx context.Context, stores ports.TxStores) error {
		links, err := stores.Links.ListByDiscordUser(ctx, discordUserID)
		if err != nil {
			return err
		}
		entries, err := s.auditLog.List(ctx, audit.Query{
			TargetType: audit.TargetDiscordUser,
			TargetID:   discordUserID,
		})
		if err != nil {
			return err
		}
		anomalies = findAnomalies(discordUserID, links, entries)
		return nil
	})
	if err != nil {
		return nil, translate(err, "detect anomalies")
	}

	for _, a := range anomalies {
		s.logger.WarnContext(ctx, "audit anomaly detected",
			"log_type", "security",
			"discord_user_id", discordUserID,
			"kind", string(a.Kind),
			"detail", a.Detail,
		)
	}
	return anomalies, nil
}

func findAnomalies(discordUserID string, links []*models.Link, entries []*audit.Entry) []models.Anomaly {
	var out []models.Anomaly

	if err := audit.VerifyChain(entries); err != nil {
		detail := err.Error()
		var chainErr *audit.ChainError
		if errors.As(err, &chainErr) {
			detail = fmt.Sprintf("entry %s: %s", chainErr.EntryID, chainErr.Reason)
		}
		out = append(out, models.Anomaly{
			Kind:          models.AnomalyChainBroken,
			DiscordUserID: discordUserID,
			Detail:        detail,
		})
	}

	audited := make(map[string]bool)
	for _, e := range entries {
		if e.ActionType != audit.ActionPrimaryChanged {
			continue
		}
		var after models.PrimarySnapshot
		if err := json.Unmarshal(e.AfterState, &after); err != nil {
			continue
		}
		audited[after.LinkID] = after.IsPrimary
	}

	primaries := 0
	for _, l := range links {
		if l.IsPrimary {
			primaries++
		}
		if audited[l.ID.String()] != l.IsPrimary {
			id := l.ID
			out = append(out, models.Anomaly{
				Kind:          models.AnomalyUnauditedFlip,
				DiscordUserID: discordUserID,
				LinkID:        &id,
				Detail:        fmt.Sprintf("is_primary=%t has no matching primary_changed entry", l.IsPrimary),
			})
		}
	}
	if primaries > 1 {
		out = append(out, models.Anomaly{
			Kind:          models.AnomalyMultiplePrimaries,
			DiscordUserID: discordUserID,
			Detail:        fmt.Sprintf("%d links flagged primary", primaries),
		})
	}
	return out
}
