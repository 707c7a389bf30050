package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"squadlink/pkg/platform/audit"
	"squadlink/pkg/platform/sentinel"
	"squadlink/pkg/requestcontext"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func newEntry(target string, action audit.ActionType, after string) *audit.Entry {
	return &audit.Entry{
		ActionType: action,
		ActorType:  audit.ActorSystem,
		ActorID:    "test",
		TargetType: audit.TargetDiscordUser,
		TargetID:   target,
		AfterState: []byte(after),
	}
}

func (s *InMemoryStoreSuite) TestAppendSealsAndChains() {
	first := newEntry("100", audit.ActionLinkCreated, `{"n":1}`)
	second := newEntry("100", audit.ActionPrimaryChanged, `{"n":2}`)
	other := newEntry("200", audit.ActionLinkCreated, `{"n":3}`)

	s.Require().NoError(s.store.Append(s.ctx, first))
	s.Require().NoError(s.store.Append(s.ctx, other))
	s.Require().NoError(s.store.Append(s.ctx, second))

	s.Empty(first.PrevHash)
	s.Equal(first.Hash, second.PrevHash)
	s.Empty(other.PrevHash, "chains are scoped per target")
	s.Equal(s.now, first.CreatedAt)
	s.Equal(int64(3), second.Seq)

	all, err := s.store.List(s.ctx, audit.Query{})
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.NoError(audit.VerifyChain(all))
}

func (s *InMemoryStoreSuite) TestAppendIfChanged() {
	written, err := s.store.AppendIfChanged(s.ctx, newEntry("100", audit.ActionSecurityFinding, `{"c":0.5}`))
	s.Require().NoError(err)
	s.True(written)

	written, err = s.store.AppendIfChanged(s.ctx, newEntry("100", audit.ActionSecurityFinding, `{"c":0.5}`))
	s.Require().NoError(err)
	s.False(written, "identical after-state is a re-assertion")

	written, err = s.store.AppendIfChanged(s.ctx, newEntry("100", audit.ActionSecurityFinding, `{"c":0.6}`))
	s.Require().NoError(err)
	s.True(written)
	s.Equal(2, s.store.Len())
}

func (s *InMemoryStoreSuite) TestListFilters() {
	s.Require().NoError(s.store.Append(s.ctx, newEntry("100", audit.ActionLinkCreated, `{}`)))
	later := requestcontext.WithTime(s.ctx, s.now.Add(time.Hour))
	s.Require().NoError(s.store.Append(later, newEntry("200", audit.ActionLinkRemoved, `{}`)))

	s.Run("by target", func() {
		got, err := s.store.List(s.ctx, audit.Query{TargetID: "200"})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(audit.ActionLinkRemoved, got[0].ActionType)
	})

	s.Run("by time range", func() {
		got, err := s.store.List(s.ctx, audit.Query{Since: s.now.Add(time.Minute)})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal("200", got[0].TargetID)
	})

	s.Run("by actor and limit", func() {
		got, err := s.store.List(s.ctx, audit.Query{ActorID: "test", Limit: 1})
		s.Require().NoError(err)
		s.Len(got, 1)
	})
}

func (s *InMemoryStoreSuite) TestLatest() {
	_, err := s.store.Latest(s.ctx, audit.TargetDiscordUser, "100", audit.ActionPrimaryChanged)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.Append(s.ctx, newEntry("100", audit.ActionPrimaryChanged, `{"v":1}`)))
	s.Require().NoError(s.store.Append(s.ctx, newEntry("100", audit.ActionPrimaryChanged, `{"v":2}`)))

	latest, err := s.store.Latest(s.ctx, audit.TargetDiscordUser, "100", audit.ActionPrimaryChanged)
	s.Require().NoError(err)
	s.JSONEq(`{"v":2}`, string(latest.AfterState))
}

func (s *InMemoryStoreSuite) TestAppendBatchAppliesUnderLock() {
	applied := false
	s.store.AppendBatch(s.ctx, []*audit.Entry{
		newEntry("100", audit.ActionPrimaryChanged, `{"a":1}`),
		newEntry("100", audit.ActionPrimaryChanged, `{"a":2}`),
	}, func() { applied = true })

	s.True(applied)
	s.Equal(2, s.store.Len())
}

func (s *InMemoryStoreSuite) TestListReturnsCopies() {
	s.Require().NoError(s.store.Append(s.ctx, newEntry("100", audit.ActionLinkCreated, `{"x":1}`)))

	got, err := s.store.List(s.ctx, audit.Query{})
	s.Require().NoError(err)
	got[0].ActorID = "mallory"

	again, err := s.store.List(s.ctx, audit.Query{})
	s.Require().NoError(err)
	s.Equal("test", again[0].ActorID)
}
