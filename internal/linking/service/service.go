// Package service orchestrates the link engine: producers upsert links, the
// resolver elects one primary per Discord identity, unlinking records history
// and the remediation pass re-runs elections across the dataset.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"squadlink/internal/linking/metrics"
	"squadlink/internal/linking/ports"
	"squadlink/pkg/attrs"
	dErrors "squadlink/pkg/domain-errors"
	"squadlink/pkg/platform/audit"
	"squadlink/pkg/platform/sentinel"
	"squadlink/pkg/requestcontext"
)

// AuditLog is the part of the audit store the service reads and writes
// outside identity transactions.
type AuditLog interface {
	AppendIfChanged(ctx context.Context, entry *audit.Entry) (bool, error)
	List(ctx context.Context, q audit.Query) ([]*audit.Entry, error)
	Latest(ctx context.Context, targetType, targetID string, action audit.ActionType) (*audit.Entry, error)
}

const (
	defaultMaxRetries   = 5
	defaultRetryBackoff = 20 * time.Millisecond
	defaultConcurrency  = 8
	defaultAuditLimit   = 100
	maxAuditLimit       = 1000
)

// Service is the link engine entry point.
type Service struct {
	links    ports.LinkReader
	unlinks  ports.UnlinkReader
	tx       ports.LinkStoreTx
	auditLog AuditLog
	guard    ports.PrivilegeGuard
	restorer ports.Restorer

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	maxRetries   int
	retryBackoff time.Duration
	concurrency  int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithRestorer enables role-archive restoration when a qualifying link is created.
func WithRestorer(r ports.Restorer) Option {
	return func(s *Service) {
		s.restorer = r
	}
}

// WithRetry bounds how often Conflict is retried and the initial backoff.
func WithRetry(maxTries int, initial time.Duration) Option {
	return func(s *Service) {
		if maxTries > 0 {
			s.maxRetries = maxTries
		}
		if initial > 0 {
			s.retryBackoff = initial
		}
	}
}

// WithConcurrency bounds how many identities the remediation pass resolves at once.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func New(
	links ports.LinkReader,
	unlinks ports.UnlinkReader,
	tx ports.LinkStoreTx,
	auditLog AuditLog,
	guard ports.PrivilegeGuard,
	opts ...Option,
) (*Service, error) {
	if links == nil {
		return nil, fmt.Errorf("link reader is required")
	}
	if unlinks == nil {
		return nil, fmt.Errorf("unlink reader is required")
	}
	if tx == nil {
		return nil, fmt.Errorf("link transaction runner is required")
	}
	if auditLog == nil {
		return nil, fmt.Errorf("audit log is required")
	}
	if guard == nil {
		return nil, fmt.Errorf("privilege guard is required")
	}

	s := &Service{
		links:        links,
		unlinks:      unlinks,
		tx:           tx,
		auditLog:     auditLog,
		guard:        guard,
		logger:       slog.Default(),
		tracer:       otel.Tracer("squadlink/internal/linking/service"),
		maxRetries:   defaultMaxRetries,
		retryBackoff: defaultRetryBackoff,
		concurrency:  defaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// newEntry builds an audit entry attributed to the actor carried by ctx.
func newEntry(ctx context.Context, action audit.ActionType, discordUserID string, before, after any) *audit.Entry {
	actor := requestcontext.Actor(ctx)
	return &audit.Entry{
		ActionType:  action,
		ActorType:   actor.Type,
		ActorID:     actor.ID,
		TargetType:  audit.TargetDiscordUser,
		TargetID:    discordUserID,
		BeforeState: audit.MustState(before),
		AfterState:  audit.MustState(after),
		RequestID:   requestcontext.RequestID(ctx),
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	actor := requestcontext.Actor(ctx)
	args := append(attributes,
		"event", event,
		"log_type", "audit",
		"actor_type", string(actor.Type),
		"actor_id", actor.ID,
	)
	s.logger.InfoContext(ctx, event, args...)
	trace.SpanFromContext(ctx).AddEvent(event, trace.WithAttributes(attrs.SpanAttributes(attributes)...))
}

// translate maps store errors onto coded domain errors.
func translate(err error, msg string) error {
	var coded *dErrors.Error
	switch {
	case errors.As(err, &coded):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, msg+": not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, msg+": identity is being resolved concurrently")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msg+": dependency unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg+": timed out")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
