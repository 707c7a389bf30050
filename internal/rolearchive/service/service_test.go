package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"squadlink/internal/rolearchive/models"
	"squadlink/internal/rolearchive/store/memory"
	dErrors "squadlink/pkg/domain-errors"
	"squadlink/pkg/platform/audit"
	auditmemory "squadlink/pkg/platform/audit/store/memory"
	"squadlink/pkg/requestcontext"
)

type RoleArchiveSuite struct {
	suite.Suite
	store   *memory.InMemoryArchiveStore
	audit   *auditmemory.InMemoryStore
	service *Service
	t0      time.Time
}

func TestRoleArchiveSuite(t *testing.T) {
	suite.Run(t, new(RoleArchiveSuite))
}

func (s *RoleArchiveSuite) SetupTest() {
	s.store = memory.NewInMemoryArchiveStore()
	s.audit = auditmemory.NewInMemoryStore()
	var err error
	s.service, err = New(s.store, s.audit, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)
	s.t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *RoleArchiveSuite) at(d time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), s.t0.Add(d))
}

func (s *RoleArchiveSuite) archive() {
	name := "Rook"
	_, err := s.service.ArchiveOnRoleRemoval(s.at(0), "100", []string{"admin", "moderator", "admin"}, &name)
	s.Require().NoError(err)
}

func (s *RoleArchiveSuite) TestRestoreWithinRetention() {
	s.archive()

	snapshot, err := s.service.TryRestore(s.at(29*24*time.Hour), "100")
	s.Require().NoError(err)
	s.Require().NotNil(snapshot)
	s.Equal([]string{"admin", "moderator"}, snapshot.Roles)
	s.Equal("Rook", *snapshot.DisplayName)
	s.Equal(s.t0, snapshot.ArchivedAt)

	entries, err := s.audit.List(context.Background(), audit.Query{TargetID: "100"})
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(audit.ActionRoleArchived, entries[0].ActionType)
	s.Equal(audit.ActionRoleRestored, entries[1].ActionType)
	s.Equal(audit.CategorySecurity, entries[1].ActionType.Category())
}

func (s *RoleArchiveSuite) TestRestoreIsSingleUse() {
	s.archive()

	first, err := s.service.TryRestore(s.at(time.Hour), "100")
	s.Require().NoError(err)
	s.NotNil(first)

	second, err := s.service.TryRestore(s.at(2*time.Hour), "100")
	s.Require().NoError(err)
	s.Nil(second)
}

func (s *RoleArchiveSuite) TestExpiredArchiveIsDiscarded() {
	s.archive()

	snapshot, err := s.service.TryRestore(s.at(31*24*time.Hour), "100")
	s.Require().NoError(err)
	s.Nil(snapshot)

	_, err = s.store.Take(context.Background(), "100")
	s.Error(err, "expired archive was deleted on read")
	s.Equal(1, s.audit.Len(), "no restore entry for an expired archive")
}

func (s *RoleArchiveSuite) TestExpiryBoundaryIsExclusive() {
	s.archive()
	snapshot, err := s.service.TryRestore(s.at(models.DefaultRetention), "100")
	s.Require().NoError(err)
	s.Nil(snapshot)
}

func (s *RoleArchiveSuite) TestLaterArchiveReplacesEarlier() {
	s.archive()
	_, err := s.service.ArchiveOnRoleRemoval(s.at(24*time.Hour), "100", []string{"vip"}, nil)
	s.Require().NoError(err)

	snapshot, err := s.service.TryRestore(s.at(48*time.Hour), "100")
	s.Require().NoError(err)
	s.Require().NotNil(snapshot)
	s.Equal([]string{"vip"}, snapshot.Roles)
	s.Nil(snapshot.DisplayName)
}

func (s *RoleArchiveSuite) TestNoArchive() {
	snapshot, err := s.service.TryRestore(s.at(0), "404")
	s.Require().NoError(err)
	s.Nil(snapshot)
}

func (s *RoleArchiveSuite) TestValidation() {
	_, err := s.service.ArchiveOnRoleRemoval(s.at(0), "", []string{"admin"}, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.ArchiveOnRoleRemoval(s.at(0), "100", []string{" ", ""}, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

type brokenStore struct{}

func (brokenStore) Put(context.Context, *models.Archive) error { return errors.New("down") }
func (brokenStore) Take(context.Context, string) (*models.Archive, error) {
	return nil, errors.New("down")
}

func (s *RoleArchiveSuite) TestStoreFailures() {
	svc, err := New(brokenStore{}, s.audit)
	s.Require().NoError(err)

	_, err = svc.ArchiveOnRoleRemoval(s.at(0), "100", []string{"admin"}, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	_, err = svc.TryRestore(s.at(0), "100")
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	s.Zero(s.audit.Len())
}

func (s *RoleArchiveSuite) TestNew() {
	_, err := New(nil, s.audit)
	s.ErrorContains(err, "archive store is required")
	_, err = New(s.store, nil)
	s.ErrorContains(err, "audit log is required")
}
