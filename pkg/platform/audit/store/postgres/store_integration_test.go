//go:build integration

package postgres_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"squadlink/pkg/platform/audit"
	auditpg "squadlink/pkg/platform/audit/store/postgres"
	"squadlink/pkg/platform/sentinel"
	"squadlink/pkg/requestcontext"
	"squadlink/pkg/testutil/containers"
)

type AuditStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *auditpg.Store
	ctx   context.Context
}

func TestAuditStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(AuditStoreSuite))
}

func (s *AuditStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = auditpg.New(s.pg.DB)
}

func (s *AuditStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(context.Background()))
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
}

func entry(target string, action audit.ActionType, after any) *audit.Entry {
	return &audit.Entry{
		ActionType: action,
		ActorType:  audit.ActorSystem,
		ActorID:    "squadlink",
		TargetType: audit.TargetDiscordUser,
		TargetID:   target,
		AfterState: audit.MustState(after),
	}
}

func (s *AuditStoreSuite) TestChainSurvivesRoundTrip() {
	for i := range 3 {
		s.Require().NoError(s.store.Append(s.ctx, entry("100", audit.ActionPrimaryChanged, map[string]any{"link_id": "a", "is_primary": i%2 == 0})))
	}
	s.Require().NoError(s.store.Append(s.ctx, entry("200", audit.ActionLinkCreated, map[string]string{"link_id": "b"})))

	entries, err := s.store.List(s.ctx, audit.Query{TargetType: audit.TargetDiscordUser, TargetID: "100"})
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.NoError(audit.VerifyChain(entries))
	s.Nil(entries[0].PrevHash)
	s.Equal(entries[0].Hash, entries[1].PrevHash)
}

func (s *AuditStoreSuite) TestTamperedRowBreaksChain() {
	for range 2 {
		s.Require().NoError(s.store.Append(s.ctx, entry("100", audit.ActionLinkUpdated, map[string]float64{"confidence_score": 0.5})))
	}
	_, err := s.pg.DB.ExecContext(s.ctx, `
		UPDATE link_audit SET after_state = '{"confidence_score":1}'
		WHERE seq = (SELECT MIN(seq) FROM link_audit)
	`)
	s.Require().NoError(err)

	entries, err := s.store.List(s.ctx, audit.Query{TargetID: "100"})
	s.Require().NoError(err)
	var chainErr *audit.ChainError
	s.True(errors.As(audit.VerifyChain(entries), &chainErr))
}

func (s *AuditStoreSuite) TestAppendIfChangedSkipsRepeats() {
	finding := map[string]string{"status": "open", "link_id": "a"}

	written, err := s.store.AppendIfChanged(s.ctx, entry("100", audit.ActionSecurityFinding, finding))
	s.Require().NoError(err)
	s.True(written)

	written, err = s.store.AppendIfChanged(s.ctx, entry("100", audit.ActionSecurityFinding, finding))
	s.Require().NoError(err)
	s.False(written)

	written, err = s.store.AppendIfChanged(s.ctx, entry("100", audit.ActionSecurityFinding, map[string]string{"status": "cleared"}))
	s.Require().NoError(err)
	s.True(written)

	latest, err := s.store.Latest(s.ctx, audit.TargetDiscordUser, "100", audit.ActionSecurityFinding)
	s.Require().NoError(err)
	s.JSONEq(`{"status":"cleared"}`, string(latest.AfterState))

	_, err = s.store.Latest(s.ctx, audit.TargetDiscordUser, "999", audit.ActionSecurityFinding)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *AuditStoreSuite) TestListFilters() {
	s.Require().NoError(s.store.Append(s.ctx, entry("100", audit.ActionLinkCreated, nil)))
	later := requestcontext.WithTime(s.ctx, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))
	s.Require().NoError(s.store.Append(later, entry("100", audit.ActionPrimaryChanged, nil)))

	entries, err := s.store.List(s.ctx, audit.Query{Action: audit.ActionPrimaryChanged})
	s.Require().NoError(err)
	s.Len(entries, 1)

	entries, err = s.store.List(s.ctx, audit.Query{Until: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)})
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(audit.ActionLinkCreated, entries[0].ActionType)

	entries, err = s.store.List(s.ctx, audit.Query{Limit: 1})
	s.Require().NoError(err)
	s.Len(entries, 1)
}

func (s *AuditStoreSuite) TestOutboxMarksPublishedOnlyOnSuccess() {
	s.Require().NoError(s.store.Append(s.ctx, entry("100", audit.ActionLinkCreated, map[string]string{"link_id": "a"})))
	s.Require().NoError(s.store.Append(s.ctx, entry("100", audit.ActionSecurityFinding, map[string]string{"status": "open"})))

	_, err := s.store.ClaimBatch(s.ctx, 10, func([]audit.OutboxMessage) error {
		return errors.New("broker down")
	})
	s.Require().Error(err)
	pending, err := s.store.Pending(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, pending)

	var claimed []audit.OutboxMessage
	n, err := s.store.ClaimBatch(s.ctx, 10, func(batch []audit.OutboxMessage) error {
		claimed = batch
		return nil
	})
	s.Require().NoError(err)
	s.Equal(2, n)
	s.Equal("100", claimed[0].AggregateID)
	s.Equal(audit.ActionSecurityFinding.Category(), claimed[1].Category)

	var payload audit.Entry
	s.Require().NoError(json.Unmarshal(claimed[0].Payload, &payload))
	s.Equal(audit.ActionLinkCreated, payload.ActionType)

	pending, err = s.store.Pending(s.ctx)
	s.Require().NoError(err)
	s.Zero(pending)
}
