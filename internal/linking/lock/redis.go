// Package lock adds a cross-instance identity lock in front of a
// ports.LinkStoreTx. The store's own lock still protects the transaction;
// the Redis lock stops replicas running the in-memory store from racing and
// rejects contenders before they open a database transaction.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"squadlink/internal/linking/ports"
	"squadlink/pkg/platform/sentinel"
)

const (
	keyPrefix  = "squadlink:lock:identity:"
	DefaultTTL = 10 * time.Second
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker hands out identity locks with SET NX PX.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLocker{client: client, ttl: ttl}
}

// TryLock returns a release func, or sentinel.ErrConflict when held elsewhere.
func (l *RedisLocker) TryLock(ctx context.Context, discordUserID string) (func(context.Context) error, error) {
	key := keyPrefix + discordUserID
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire identity lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("identity %s: %w", discordUserID, sentinel.ErrConflict)
	}
	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("release identity lock: %w", err)
		}
		return nil
	}, nil
}

// Locker hands out per-identity locks. RedisLocker is the production one.
type Locker interface {
	TryLock(ctx context.Context, discordUserID string) (func(context.Context) error, error)
}

// Guarded takes the Redis lock before delegating to the wrapped runner.
type Guarded struct {
	next   ports.LinkStoreTx
	locker Locker
	logger *slog.Logger
}

type GuardedOption func(*Guarded)

func WithLogger(logger *slog.Logger) GuardedOption {
	return func(g *Guarded) {
		g.logger = logger
	}
}

func NewGuarded(next ports.LinkStoreTx, locker Locker, opts ...GuardedOption) *Guarded {
	g := &Guarded{next: next, locker: locker, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RunInTx returns the wrapped runner's result. A failed release is only
// logged: the transaction outcome is already decided and the key expires
// with its TTL.
func (g *Guarded) RunInTx(ctx context.Context, discordUserID string, fn func(ctx context.Context, stores ports.TxStores) error) error {
	release, err := g.locker.TryLock(ctx, discordUserID)
	if err != nil {
		return err
	}
	defer func() {
		// Cancelled requests must still free the lock.
		relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if relErr := release(relCtx); relErr != nil {
			g.logger.WarnContext(ctx, "failed to release identity lock, waiting for TTL",
				"discord_user_id", discordUserID,
				"error", relErr,
			)
		}
	}()
	return g.next.RunInTx(ctx, discordUserID, fn)
}
