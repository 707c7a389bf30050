package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"squadlink/internal/linking/election"
	"squadlink/internal/linking/models"
	"squadlink/internal/linking/ports"
	dErrors "squadlink/pkg/domain-errors"
	"squadlink/pkg/platform/audit"
	"squadlink/pkg/platform/sentinel"
)

// Finding states written to security_finding audit entries.
const (
	findingOpen    = "open"
	findingCleared = "cleared"
)

type findingState struct {
	Status          string        `json:"status"`
	LinkID          string        `json:"link_id,omitempty"`
	ConfidenceScore float64       `json:"confidence_score"`
	Source          models.Source `json:"source,omitempty"`
	Floor           float64       `json:"confidence_floor"`
}

// ResolvePrimary elects the primary link for one Discord identity.
//
// The election and its audit entries commit atomically under the identity
// lock. The confidence floor check runs after commit; a violation is
// returned in the result and recorded, never treated as an error. A check
// overtaken by a newer election records nothing and leaves SecurityFinding
// nil.
// Returns CodeConflict when another resolution for the identity is in flight.
func (s *Service) ResolvePrimary(ctx context.Context, discordUserID string) (*models.ResolutionResult, error) {
	if err := models.ValidateDiscordUserID(discordUserID); err != nil {
		return nil, err
	}
	ctx, span := s.tracer.Start(ctx, "linking.ResolvePrimary",
		trace.WithAttributes(attribute.String("discord_user_id", discordUserID)))
	defer span.End()

	start := time.Now()
	result, err := s.resolve(ctx, discordUserID)
	s.metrics.ObserveResolveLatency(time.Since(start))
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncResolution("conflict")
			s.logger.DebugContext(ctx, "resolution already in flight", "discord_user_id", discordUserID)
		} else {
			s.metrics.IncResolution("error")
			span.RecordError(err)
			span.SetStatus(codes.Error, "resolve failed")
		}
		return nil, translate(err, "resolve primary")
	}

	switch {
	case result.NoPrimary:
		s.metrics.IncResolution("no_primary")
	case result.Changed():
		s.metrics.IncResolution("flipped")
	default:
		s.metrics.IncResolution("unchanged")
	}
	span.SetAttributes(
		attribute.Bool("no_primary", result.NoPrimary),
		attribute.Int("flips", len(result.Flips)),
		attribute.Bool("security_finding", result.SecurityFinding != nil),
		attribute.Bool("security_check_skipped", result.SecurityCheckSkipped),
	)
	return result, nil
}

// ResolveWithRetry retries ResolvePrimary with exponential backoff while it
// reports Conflict. Other errors are returned immediately.
func (s *Service) ResolveWithRetry(ctx context.Context, discordUserID string) (*models.ResolutionResult, error) {
	return backoff.Retry(ctx, func() (*models.ResolutionResult, error) {
		result, err := s.ResolvePrimary(ctx, discordUserID)
		if err != nil && !isConflict(err) {
			return nil, backoff.Permanent(err)
		}
		return result, err
	}, s.retryOptions()...)
}

func (s *Service) retryOptions() []backoff.RetryOption {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retryBackoff
	b.MaxInterval = 16 * s.retryBackoff
	return []backoff.RetryOption{backoff.WithBackOff(b), backoff.WithMaxTries(uint(s.maxRetries))}
}

func isConflict(err error) bool {
	return errors.Is(err, sentinel.ErrConflict) || dErrors.HasCode(err, dErrors.CodeConflict)
}

func (s *Service) resolve(ctx context.Context, discordUserID string) (*models.ResolutionResult, error) {
	result := &models.ResolutionResult{DiscordUserID: discordUserID}
	var entries []*audit.Entry

	err := s.tx.RunInTx(ctx, discordUserID, func(ctx context.Context, stores ports.TxStores) error {
		links, err := stores.Links.ListByDiscordUser(ctx, discordUserID)
		if err != nil {
			return err
		}
		if len(links) == 0 {
			result.NoPrimary = true
			return nil
		}
		primary, flips, written, err := s.applyElection(ctx, stores, discordUserID, links)
		if err != nil {
			return err
		}
		result.Primary = primary
		result.Flips = flips
		entries = written
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, flip := range result.Flips {
		s.metrics.IncFlip(flip.IsPrimary)
	}
	for _, e := range entries {
		s.logAudit(ctx, string(e.ActionType),
			"discord_user_id", discordUserID,
			"entry_id", e.ID.String(),
		)
	}

	s.checkConfidenceFloor(ctx, result)
	return result, nil
}

// applyElection flips flags per election.PlanFor and appends one
// primary_changed entry per flipped link, demotions first.
func (s *Service) applyElection(ctx context.Context, stores ports.TxStores, discordUserID string, links []*models.Link) (*models.Link, []models.PrimaryFlip, []*audit.Entry, error) {
	plan := election.PlanFor(links)

	var (
		flips   []models.PrimaryFlip
		entries []*audit.Entry
	)
	flip := func(l *models.Link, primary bool) error {
		before := l.PrimarySnapshot()
		if err := stores.Links.SetPrimary(ctx, l.ID, primary); err != nil {
			return err
		}
		l.IsPrimary = primary
		entry := newEntry(ctx, audit.ActionPrimaryChanged, discordUserID, before, l.PrimarySnapshot())
		if err := stores.Audit.Append(ctx, entry); err != nil {
			return err
		}
		flips = append(flips, models.PrimaryFlip{LinkID: l.ID, WasPrimary: before.IsPrimary, IsPrimary: primary})
		entries = append(entries, entry)
		return nil
	}

	for _, l := range plan.Demote {
		if err := flip(l, false); err != nil {
			return nil, nil, nil, err
		}
	}
	if plan.Promote != nil {
		if err := flip(plan.Promote, true); err != nil {
			return nil, nil, nil, err
		}
	}
	return plan.Winner.Clone(), flips, entries, nil
}

// checkConfidenceFloor queries the privilege guard outside the identity
// lock, then records the open or cleared finding under it. An identity with
// no primary cannot violate the floor, so only clearing applies to it.
func (s *Service) checkConfidenceFloor(ctx context.Context, result *models.ResolutionResult) {
	discordUserID := result.DiscordUserID
	primary := result.Primary

	var finding *models.SecurityFinding
	if primary != nil {
		privileged, err := s.guard.HasPrivilegedRole(ctx, discordUserID)
		if err != nil {
			result.SecurityCheckSkipped = true
			s.metrics.IncSecurityCheckSkipped()
			s.logger.WarnContext(ctx, "privilege guard unavailable, confidence floor check skipped",
				"discord_user_id", discordUserID,
				"error", err,
			)
			return
		}
		if privileged && !primary.MeetsFloor() {
			finding = &models.SecurityFinding{
				DiscordUserID:   discordUserID,
				LinkID:          primary.ID,
				ConfidenceScore: primary.ConfidenceScore,
				Source:          primary.Source,
				Floor:           models.ConfidenceFloor,
			}
		}
	}

	current, err := s.settleFinding(ctx, discordUserID, primary, finding)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to record security finding state",
			"log_type", "security",
			"discord_user_id", discordUserID,
			"open", finding != nil,
			"error", err,
		)
	} else if !current {
		s.logger.InfoContext(ctx, "primary changed during confidence floor check, left to the newer resolution",
			"discord_user_id", discordUserID,
		)
		return
	}
	if finding != nil {
		result.SecurityFinding = finding
		s.reportFinding(ctx, finding)
	}
}

// settleFinding writes the finding state under the identity lock, but only
// while checked is still the identity's primary with the same confidence and
// source. It reports whether that held.
func (s *Service) settleFinding(ctx context.Context, discordUserID string, checked *models.Link, finding *models.SecurityFinding) (bool, error) {
	return backoff.Retry(ctx, func() (bool, error) {
		current := false
		err := s.tx.RunInTx(ctx, discordUserID, func(ctx context.Context, stores ports.TxStores) error {
			links, err := stores.Links.ListByDiscordUser(ctx, discordUserID)
			if err != nil {
				return err
			}
			if !samePrimary(checked, currentPrimary(links)) {
				return nil
			}
			current = true
			if finding != nil {
				return s.openFinding(ctx, finding)
			}
			return s.clearFinding(ctx, discordUserID)
		})
		if err != nil && !isConflict(err) {
			return false, backoff.Permanent(err)
		}
		return current, err
	}, s.retryOptions()...)
}

func currentPrimary(links []*models.Link) *models.Link {
	for _, l := range links {
		if l.IsPrimary {
			return l
		}
	}
	return nil
}

func samePrimary(a, b *models.Link) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID && a.ConfidenceScore == b.ConfidenceScore && a.Source == b.Source
}

func (s *Service) reportFinding(ctx context.Context, finding *models.SecurityFinding) {
	s.metrics.IncSecurityFinding()
	s.logger.ErrorContext(ctx, "privileged identity rests on low-confidence primary link",
		"log_type", "security",
		"discord_user_id", finding.DiscordUserID,
		"link_id", finding.LinkID.String(),
		"confidence_score", finding.ConfidenceScore,
		"source", string(finding.Source),
		"confidence_floor", finding.Floor,
	)
}

// openFinding appends an open finding entry. Re-asserting an unchanged open
// finding writes nothing.
func (s *Service) openFinding(ctx context.Context, finding *models.SecurityFinding) error {
	entry := newEntry(ctx, audit.ActionSecurityFinding, finding.DiscordUserID, nil, findingState{
		Status:          findingOpen,
		LinkID:          finding.LinkID.String(),
		ConfidenceScore: finding.ConfidenceScore,
		Source:          finding.Source,
		Floor:           finding.Floor,
	})
	entry.Severity = audit.SeverityCritical
	entry.SecurityFinding = true
	_, err := s.auditLog.AppendIfChanged(ctx, entry)
	return err
}

// clearFinding closes the latest finding if it is still open.
func (s *Service) clearFinding(ctx context.Context, discordUserID string) error {
	latest, err := s.auditLog.Latest(ctx, audit.TargetDiscordUser, discordUserID, audit.ActionSecurityFinding)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	var state findingState
	if err := json.Unmarshal(latest.AfterState, &state); err != nil {
		return fmt.Errorf("decode security finding %s: %w", latest.ID, err)
	}
	if state.Status == findingCleared {
		return nil
	}

	entry := newEntry(ctx, audit.ActionSecurityFinding, discordUserID, state, findingState{
		Status: findingCleared,
		Floor:  models.ConfidenceFloor,
	})
	entry.Severity = audit.SeverityInfo
	if _, err := s.auditLog.AppendIfChanged(ctx, entry); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "security finding cleared",
		"log_type", "security",
		"discord_user_id", discordUserID,
	)
	return nil
}
