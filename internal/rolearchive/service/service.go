// Package service archives privileged roles when they are removed and hands
// them back, once, when the identity re-links within the retention window.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"squadlink/internal/rolearchive/models"
	dErrors "squadlink/pkg/domain-errors"
	"squadlink/pkg/platform/audit"
	"squadlink/pkg/platform/sentinel"
	strs "squadlink/pkg/platform/strings"
	"squadlink/pkg/requestcontext"
)

// Store persists at most one archive per identity.
type Store interface {
	Put(ctx context.Context, archive *models.Archive) error
	// Take removes and returns the archive, or sentinel.ErrNotFound.
	Take(ctx context.Context, discordUserID string) (*models.Archive, error)
}

type Service struct {
	store     Store
	auditLog  audit.Appender
	logger    *slog.Logger
	retention time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithRetention(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.retention = d
		}
	}
}

func New(store Store, auditLog audit.Appender, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("archive store is required")
	}
	if auditLog == nil {
		return nil, fmt.Errorf("audit log is required")
	}
	s := &Service{
		store:     store,
		auditLog:  auditLog,
		logger:    slog.Default(),
		retention: models.DefaultRetention,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ArchiveOnRoleRemoval snapshots the roles just removed from discordUserID.
// A later archive for the same identity replaces the earlier one.
func (s *Service) ArchiveOnRoleRemoval(ctx context.Context, discordUserID string, roles []string, displayName *string) (*models.Archive, error) {
	if strings.TrimSpace(discordUserID) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "discord_user_id is required")
	}
	roles = strs.SortedSet(roles)
	if len(roles) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one role is required")
	}

	now := requestcontext.Now(ctx).UTC()
	archive := &models.Archive{
		DiscordUserID: discordUserID,
		DisplayName:   displayName,
		Roles:         roles,
		ArchivedAt:    now,
		ExpiresAt:     now.Add(s.retention),
	}
	if err := s.store.Put(ctx, archive); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store role archive")
	}
	s.appendAudit(ctx, audit.ActionRoleArchived, discordUserID, nil, archive)
	s.logger.InfoContext(ctx, "roles archived",
		"log_type", "audit",
		"discord_user_id", discordUserID,
		"roles", len(roles),
		"expires_at", archive.ExpiresAt,
	)
	return archive, nil
}

// TryRestore reclaims the identity's archive. It returns nil, nil when there
// is no archive or it has expired; an expired archive is discarded.
func (s *Service) TryRestore(ctx context.Context, discordUserID string) (*models.RestoredSnapshot, error) {
	archive, err := s.store.Take(ctx, discordUserID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to read role archive")
	}

	if archive.IsExpired(requestcontext.Now(ctx)) {
		s.logger.DebugContext(ctx, "discarded expired role archive",
			"discord_user_id", discordUserID,
			"expired_at", archive.ExpiresAt,
		)
		return nil, nil
	}

	snapshot := archive.Snapshot()
	s.appendAudit(ctx, audit.ActionRoleRestored, discordUserID, archive, snapshot)
	s.logger.InfoContext(ctx, "roles restored",
		"log_type", "audit",
		"discord_user_id", discordUserID,
		"roles", len(snapshot.Roles),
	)
	return snapshot, nil
}

// appendAudit records the change. The archive write already happened, so a
// failed append is logged rather than returned.
func (s *Service) appendAudit(ctx context.Context, action audit.ActionType, discordUserID string, before, after any) {
	actor := requestcontext.Actor(ctx)
	entry := &audit.Entry{
		ActionType:  action,
		ActorType:   actor.Type,
		ActorID:     actor.ID,
		TargetType:  audit.TargetDiscordUser,
		TargetID:    discordUserID,
		BeforeState: audit.MustState(before),
		AfterState:  audit.MustState(after),
		RequestID:   requestcontext.RequestID(ctx),
	}
	if err := s.auditLog.Append(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "failed to append role archive audit entry",
			"discord_user_id", discordUserID,
			"action", string(action),
			"error", err,
		)
	}
}
