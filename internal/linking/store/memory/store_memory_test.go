package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"squadlink/internal/linking/models"
	"squadlink/internal/linking/ports"
	"squadlink/pkg/platform/audit"
	auditmemory "squadlink/pkg/platform/audit/store/memory"
	"squadlink/pkg/platform/sentinel"
	"squadlink/pkg/requestcontext"
)

type StoreSuite struct {
	suite.Suite
	audit *auditmemory.InMemoryStore
	store *Store
	ctx   context.Context
	now   time.Time
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.audit = auditmemory.NewInMemoryStore()
	s.store = New(s.audit)
	s.now = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *StoreSuite) insert(discordID, gameID string) *models.Link {
	l := &models.Link{
		DiscordUserID:   discordID,
		GameID64:        models.StringPtr(gameID),
		ConfidenceScore: 0.9,
		Source:          models.SourceSquadJS,
	}
	s.Require().NoError(s.store.RunInTx(s.ctx, discordID, func(ctx context.Context, stores ports.TxStores) error {
		return stores.Links.Insert(ctx, l)
	}))
	return l
}

func (s *StoreSuite) TestInsertAssignsUniqueCreatedAt() {
	a := s.insert("100", "1")
	b := s.insert("100", "2")

	s.Equal(s.now, a.CreatedAt)
	s.True(b.CreatedAt.After(a.CreatedAt), "same clock reading still yields a later CreatedAt")

	links, err := s.store.ListByDiscordUser(s.ctx, "100")
	s.Require().NoError(err)
	s.Require().Len(links, 2)
	s.Equal(a.ID, links[0].ID, "insertion order")
}

func (s *StoreSuite) TestInsertRejectsDuplicateKey() {
	s.insert("100", "1")
	err := s.store.RunInTx(s.ctx, "100", func(ctx context.Context, stores ports.TxStores) error {
		return stores.Links.Insert(ctx, &models.Link{DiscordUserID: "100", GameID64: models.StringPtr("1"), Source: models.SourceImport})
	})
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *StoreSuite) TestFindByKeyFallsBackToOnlineServiceID() {
	l := &models.Link{DiscordUserID: "100", OnlineServiceID: models.StringPtr("eos-1"), Source: models.SourceTicket}
	s.Require().NoError(s.store.RunInTx(s.ctx, "100", func(ctx context.Context, stores ports.TxStores) error {
		if err := stores.Links.Insert(ctx, l); err != nil {
			return err
		}
		found, err := stores.Links.FindByKey(ctx, "100", models.GameIdentity{OnlineServiceID: models.StringPtr("eos-1")})
		if err != nil {
			return err
		}
		s.Equal(l.ID, found.ID, "staged insert is visible inside the transaction")
		return nil
	}))
}

func (s *StoreSuite) TestRollbackLeavesStateUntouched() {
	l := s.insert("100", "1")
	before := s.audit.Len()

	boom := errors.New("boom")
	err := s.store.RunInTx(s.ctx, "100", func(ctx context.Context, stores ports.TxStores) error {
		s.Require().NoError(stores.Links.SetPrimary(ctx, l.ID, true))
		s.Require().NoError(stores.Audit.Append(ctx, &audit.Entry{
			ActionType: audit.ActionPrimaryChanged,
			TargetType: audit.TargetDiscordUser,
			TargetID:   "100",
		}))
		s.Require().NoError(stores.Unlinks.Append(ctx, &models.UnlinkRecord{DiscordUserID: "100", LinkID: l.ID}))
		return boom
	})
	s.ErrorIs(err, boom)

	got, err := s.store.FindByID(s.ctx, l.ID)
	s.Require().NoError(err)
	s.False(got.IsPrimary)
	s.Equal(before, s.audit.Len())
	history, err := s.store.Unlinks().ListByDiscordUser(s.ctx, "100", time.Time{}, time.Time{})
	s.Require().NoError(err)
	s.Empty(history)
}

func (s *StoreSuite) TestCommitPublishesLinksAndAuditTogether() {
	l := s.insert("100", "1")
	s.Require().NoError(s.store.RunInTx(s.ctx, "100", func(ctx context.Context, stores ports.TxStores) error {
		if err := stores.Links.SetPrimary(ctx, l.ID, true); err != nil {
			return err
		}
		return stores.Audit.Append(ctx, &audit.Entry{
			ActionType: audit.ActionPrimaryChanged,
			ActorType:  audit.ActorSystem,
			TargetType: audit.TargetDiscordUser,
			TargetID:   "100",
		})
	}))

	got, err := s.store.FindByID(s.ctx, l.ID)
	s.Require().NoError(err)
	s.True(got.IsPrimary)
	s.Equal(1, s.audit.Len())
}

func (s *StoreSuite) TestSameIdentityConflictsFast() {
	entered := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.store.RunInTx(s.ctx, "100", func(context.Context, ports.TxStores) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	err := s.store.RunInTx(s.ctx, "100", func(context.Context, ports.TxStores) error {
		s.Fail("must not run while the identity is locked")
		return nil
	})
	s.ErrorIs(err, sentinel.ErrConflict)

	s.NoError(s.store.RunInTx(s.ctx, "200", func(context.Context, ports.TxStores) error { return nil }),
		"other identities never contend")

	close(release)
	wg.Wait()
	s.NoError(s.store.RunInTx(s.ctx, "100", func(context.Context, ports.TxStores) error { return nil }))
}

func (s *StoreSuite) TestWritesOutsideLockedIdentityAreRejected() {
	other := s.insert("200", "9")
	err := s.store.RunInTx(s.ctx, "100", func(ctx context.Context, stores ports.TxStores) error {
		return stores.Links.SetPrimary(ctx, other.ID, true)
	})
	s.ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *StoreSuite) TestDeleteAndUnlinkHistory() {
	l := s.insert("100", "1")
	s.Require().NoError(s.store.RunInTx(s.ctx, "100", func(ctx context.Context, stores ports.TxStores) error {
		if err := stores.Unlinks.Append(ctx, &models.UnlinkRecord{
			DiscordUserID: "100",
			LinkID:        l.ID,
			UnlinkedAt:    s.now,
		}); err != nil {
			return err
		}
		return stores.Links.Delete(ctx, l.ID)
	}))

	_, err := s.store.FindByID(s.ctx, l.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	history, err := s.store.Unlinks().ListByDiscordUser(s.ctx, "100", s.now, s.now.Add(time.Second))
	s.Require().NoError(err)
	s.Len(history, 1)

	history, err = s.store.Unlinks().ListByDiscordUser(s.ctx, "100", s.now.Add(time.Second), time.Time{})
	s.Require().NoError(err)
	s.Empty(history)
}

func (s *StoreSuite) TestListIdentities() {
	s.insert("300", "1")
	s.insert("100", "2")
	s.insert("100", "3")

	multi, err := s.store.ListMultiLinkIdentities(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"100"}, multi)

	all, err := s.store.ListIdentities(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"100", "300"}, all)
}
