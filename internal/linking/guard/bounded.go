package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"squadlink/internal/linking/ports"
	"squadlink/pkg/platform/circuit"
	"squadlink/pkg/platform/sentinel"
)

// DefaultTimeout bounds a single privilege query.
const DefaultTimeout = 2 * time.Second

// Observer receives the outcome of each guarded call.
type Observer interface {
	ObserveGuardCall(outcome string, duration time.Duration)
	SetGuardCircuitOpen(open bool)
}

// Bounded decorates a guard with a mandatory timeout and a circuit breaker.
// Every failure surfaces as sentinel.ErrUnavailable so callers can degrade.
type Bounded struct {
	next     ports.PrivilegeGuard
	timeout  time.Duration
	breaker  *circuit.Breaker
	logger   *slog.Logger
	observer Observer
}

type BoundedOption func(*Bounded)

func WithTimeout(d time.Duration) BoundedOption {
	return func(b *Bounded) {
		if d > 0 {
			b.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) BoundedOption {
	return func(b *Bounded) {
		b.logger = logger
	}
}

func WithObserver(o Observer) BoundedOption {
	return func(b *Bounded) {
		b.observer = o
	}
}

func WithBreaker(breaker *circuit.Breaker) BoundedOption {
	return func(b *Bounded) {
		b.breaker = breaker
	}
}

func NewBounded(next ports.PrivilegeGuard, opts ...BoundedOption) *Bounded {
	b := &Bounded{
		next:    next,
		timeout: DefaultTimeout,
		breaker: circuit.New("privilege_guard"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// HasPrivilegedRole always probes the wrapped guard; the breaker only tracks
// health for logs and metrics. A successful answer is used even while open.
func (b *Bounded) HasPrivilegedRole(ctx context.Context, discordUserID string) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	start := time.Now()
	privileged, err := b.next.HasPrivilegedRole(callCtx, discordUserID)
	elapsed := time.Since(start)

	if err != nil {
		outcome := "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			outcome = "timeout"
		}
		b.observe(outcome, elapsed)
		if _, change := b.breaker.RecordFailure(); change.Opened {
			b.logger.WarnContext(ctx, "privilege guard circuit opened", "breaker", b.breaker.Name())
			b.setOpen(true)
		}
		return false, fmt.Errorf("privilege guard %s: %w: %w", outcome, sentinel.ErrUnavailable, err)
	}

	b.observe("ok", elapsed)
	if _, change := b.breaker.RecordSuccess(); change.Closed {
		b.logger.InfoContext(ctx, "privilege guard circuit closed", "breaker", b.breaker.Name())
		b.setOpen(false)
	}
	return privileged, nil
}

func (b *Bounded) observe(outcome string, d time.Duration) {
	if b.observer != nil {
		b.observer.ObserveGuardCall(outcome, d)
	}
}

func (b *Bounded) setOpen(open bool) {
	if b.observer != nil {
		b.observer.SetGuardCircuitOpen(open)
	}
}
