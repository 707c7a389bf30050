// Package relay drains the audit outbox to Kafka.
//
// The audit store writes every entry to audit_outbox in the same transaction
// as the entry itself. The relay claims unpublished rows, publishes them and
// marks them published only after the broker acknowledged the batch, so
// delivery is at-least-once. Consumers dedupe on the outbox-id header.
package relay

import (
	"context"
	"log/slog"
	"time"

	"squadlink/pkg/platform/audit"
	"squadlink/pkg/platform/circuit"
)

// Source hands out unpublished outbox messages.
type Source interface {
	ClaimBatch(ctx context.Context, limit int, fn func([]audit.OutboxMessage) error) (int, error)
}

// Publisher delivers a batch to the event bus.
type Publisher interface {
	Publish(ctx context.Context, batch []audit.OutboxMessage) error
}

const (
	defaultBatchSize = 100
	defaultInterval  = time.Second
)

// Relay polls Source and forwards batches to Publisher.
type Relay struct {
	source    Source
	publisher Publisher
	logger    *slog.Logger
	metrics   *Metrics
	breaker   *circuit.Breaker
	batchSize int
	interval  time.Duration
}

// Option configures the Relay.
type Option func(*Relay)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(r *Relay) {
		r.metrics = m
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func New(source Source, publisher Publisher, opts ...Option) *Relay {
	r := &Relay{
		source:    source,
		publisher: publisher,
		logger:    slog.Default(),
		breaker:   circuit.New("audit_relay"),
		batchSize: defaultBatchSize,
		interval:  defaultInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run drains the outbox until ctx is cancelled. Publish failures are logged
// and retried on the next tick; rows stay unpublished until a batch succeeds.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		if _, err := r.Drain(ctx); err != nil && ctx.Err() == nil {
			r.logger.WarnContext(ctx, "audit outbox relay pass failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Drain publishes batches until the outbox is empty or a batch fails.
// It returns the number of messages published.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := r.source.ClaimBatch(ctx, r.batchSize, func(batch []audit.OutboxMessage) error {
			return r.publisher.Publish(ctx, batch)
		})
		if err != nil {
			r.recordFailure(ctx)
			return total, err
		}
		r.recordSuccess(ctx, n)
		total += n
		if n < r.batchSize {
			return total, nil
		}
	}
}

func (r *Relay) recordFailure(ctx context.Context) {
	if r.metrics != nil {
		r.metrics.incFailures()
	}
	if _, change := r.breaker.RecordFailure(); change.Opened {
		r.logger.ErrorContext(ctx, "audit relay circuit opened, event bus unreachable",
			"breaker", r.breaker.Name(),
		)
	}
}

func (r *Relay) recordSuccess(ctx context.Context, n int) {
	if n > 0 && r.metrics != nil {
		r.metrics.observeBatch(n)
	}
	if _, change := r.breaker.RecordSuccess(); change.Closed {
		r.logger.InfoContext(ctx, "audit relay circuit closed", "breaker", r.breaker.Name())
	}
}
