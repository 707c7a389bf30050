package lock

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squadlink/internal/linking/models"
	"squadlink/internal/linking/ports"
	"squadlink/internal/linking/store/memory"
	auditmemory "squadlink/pkg/platform/audit/store/memory"
	"squadlink/pkg/platform/sentinel"
)

type stubLocker struct {
	lockErr    error
	releaseErr error
	released   int
}

func (l *stubLocker) TryLock(context.Context, string) (func(context.Context) error, error) {
	if l.lockErr != nil {
		return nil, l.lockErr
	}
	return func(context.Context) error {
		l.released++
		return l.releaseErr
	}, nil
}

func TestGuardedRunInTx(t *testing.T) {
	quiet := WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	t.Run("failed release does not fail a committed transaction", func(t *testing.T) {
		store := memory.New(auditmemory.NewInMemoryStore())
		locker := &stubLocker{releaseErr: errors.New("connection reset")}
		runner := NewGuarded(store, locker, quiet)

		link := &models.Link{
			DiscordUserID:   "100",
			GameID64:        models.StringPtr("1"),
			ConfidenceScore: 0.9,
			Source:          models.SourceSquadJS,
		}
		err := runner.RunInTx(context.Background(), "100", func(ctx context.Context, stores ports.TxStores) error {
			return stores.Links.Insert(ctx, link)
		})
		require.NoError(t, err)
		assert.Equal(t, 1, locker.released)

		links, err := store.ListByDiscordUser(context.Background(), "100")
		require.NoError(t, err)
		assert.Len(t, links, 1)
	})

	t.Run("transaction error is returned and the lock released", func(t *testing.T) {
		locker := &stubLocker{releaseErr: errors.New("connection reset")}
		runner := NewGuarded(memory.New(auditmemory.NewInMemoryStore()), locker, quiet)
		boom := errors.New("boom")

		err := runner.RunInTx(context.Background(), "100", func(context.Context, ports.TxStores) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, locker.released)
	})

	t.Run("held lock short-circuits", func(t *testing.T) {
		locker := &stubLocker{lockErr: sentinel.ErrConflict}
		runner := NewGuarded(memory.New(auditmemory.NewInMemoryStore()), locker, quiet)
		called := false

		err := runner.RunInTx(context.Background(), "100", func(context.Context, ports.TxStores) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, sentinel.ErrConflict)
		assert.False(t, called)
		assert.Zero(t, locker.released)
	})
}
