package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"squadlink/internal/linking/handler/mocks"
	"squadlink/internal/linking/models"
	archive "squadlink/internal/rolearchive/models"
	dErrors "squadlink/pkg/domain-errors"
	"squadlink/pkg/platform/audit"
	"squadlink/pkg/platform/middleware/auth"
)

type tokens map[string]*auth.JWTClaims

func (t tokens) ValidateToken(token string) (*auth.JWTClaims, error) {
	if c, ok := t[token]; ok {
		return c, nil
	}
	return nil, errors.New("unknown token")
}

type HandlerSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	links    *mocks.MockService
	archives *mocks.MockArchiveService
	router   chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.links = mocks.NewMockService(s.ctrl)
	s.archives = mocks.NewMockArchiveService(s.ctrl)

	validator := tokens{
		"admin":    {Subject: "ops-1", Role: auth.RoleAdmin},
		"producer": {Subject: "squadjs", Role: auth.RoleProducer},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = chi.NewRouter()
	New(s.links, s.archives, validator, logger).Register(s.router)
}

func (s *HandlerSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func (s *HandlerSuite) TestUpsertLink() {
	link := &models.Link{
		ID:              uuid.New(),
		DiscordUserID:   "100",
		GameID64:        models.StringPtr("7656"),
		ConfidenceScore: 1,
		Source:          models.SourceSquadJS,
	}
	body := map[string]any{
		"discord_user_id":  "100",
		"game_id64":        "7656",
		"confidence_score": 1.0,
		"source":           "SquadJS",
	}

	s.Run("creates then resolves", func() {
		promoted := link.Clone()
		promoted.IsPrimary = true
		gomock.InOrder(
			s.links.EXPECT().
				UpsertLink(gomock.Any(), "100", gomock.Any(), 1.0, models.SourceSquadJS).
				Return(&models.UpsertResult{Link: link, Created: true, Changed: true}, nil),
			s.links.EXPECT().ResolvePrimary(gomock.Any(), "100").
				Return(&models.ResolutionResult{
					DiscordUserID: "100",
					Primary:       promoted,
					Flips:         []models.PrimaryFlip{{LinkID: link.ID, IsPrimary: true}},
				}, nil),
		)

		w := s.do(http.MethodPost, "/links", "producer", body)
		s.Equal(http.StatusCreated, w.Code)
		resp := decode[UpsertLinkResponse](s.T(), w)
		s.True(resp.Created)
		s.Require().NotNil(resp.Resolution)
		s.Require().NotNil(resp.Resolution.Primary)
		s.True(resp.Resolution.Primary.IsPrimary)
		s.Len(resp.Resolution.Flips, 1)
	})

	s.Run("no-op upsert is 200", func() {
		s.links.EXPECT().UpsertLink(gomock.Any(), "100", gomock.Any(), 1.0, models.SourceSquadJS).
			Return(&models.UpsertResult{Link: link}, nil)
		s.links.EXPECT().ResolvePrimary(gomock.Any(), "100").
			Return(&models.ResolutionResult{DiscordUserID: "100", Primary: link}, nil)

		w := s.do(http.MethodPost, "/links", "producer", body)
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("conflict advertises retry", func() {
		s.links.EXPECT().UpsertLink(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "identity is busy"))

		w := s.do(http.MethodPost, "/links", "producer", body)
		s.Equal(http.StatusConflict, w.Code)
		s.Equal("1", w.Header().Get("Retry-After"))
	})

	s.Run("missing confidence never reaches the service", func() {
		w := s.do(http.MethodPost, "/links", "producer", map[string]any{
			"discord_user_id": "100",
			"game_id64":       "7656",
			"source":          "manual",
		})
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("unknown source", func() {
		bad := map[string]any{"discord_user_id": "100", "game_id64": "1", "confidence_score": 0.5, "source": "rumour"}
		w := s.do(http.MethodPost, "/links", "producer", bad)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("unknown field", func() {
		w := s.do(http.MethodPost, "/links", "producer", map[string]any{"discord": "100"})
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("no token", func() {
		w := s.do(http.MethodPost, "/links", "", body)
		s.Equal(http.StatusUnauthorized, w.Code)
	})
}

func (s *HandlerSuite) TestRemoveLink() {
	linkID := uuid.New()

	s.Run("passes reason and returns re-election", func() {
		s.links.EXPECT().RemoveLink(gomock.Any(), linkID, gomock.Any()).
			DoAndReturn(func(_ any, _ uuid.UUID, reason *string) (*models.UnlinkResult, error) {
				s.Require().NotNil(reason)
				s.Equal("duplicate account", *reason)
				return &models.UnlinkResult{
					Record:     &models.UnlinkRecord{ID: uuid.New(), DiscordUserID: "100", LinkID: linkID, ActorType: "human", ActorID: "ops-1"},
					Resolution: &models.ResolutionResult{DiscordUserID: "100", NoPrimary: true},
				}, nil
			})

		w := s.do(http.MethodDelete, "/links/"+linkID.String(), "admin", map[string]string{"reason": "duplicate account"})
		s.Equal(http.StatusOK, w.Code)
		resp := decode[UnlinkResponse](s.T(), w)
		s.Equal(linkID, resp.Record.LinkID)
		s.True(resp.Resolution.NoPrimary)
	})

	s.Run("not found", func() {
		s.links.EXPECT().RemoveLink(gomock.Any(), linkID, nil).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "link not found"))

		w := s.do(http.MethodDelete, "/links/"+linkID.String(), "admin", nil)
		s.Equal(http.StatusNotFound, w.Code)
	})

	s.Run("malformed id", func() {
		w := s.do(http.MethodDelete, "/links/not-a-uuid", "admin", nil)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *HandlerSuite) TestResolveStatusMapping() {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", dErrors.New(dErrors.CodeValidation, "discord_user_id is required"), http.StatusBadRequest},
		{"conflict", dErrors.New(dErrors.CodeConflict, "busy"), http.StatusConflict},
		{"unavailable", dErrors.New(dErrors.CodeUnavailable, "store down"), http.StatusServiceUnavailable},
		{"internal", dErrors.New(dErrors.CodeInternal, "boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.links.EXPECT().ResolvePrimary(gomock.Any(), "100").Return(nil, tc.err)
			w := s.do(http.MethodPost, "/identities/100/resolve", "producer", nil)
			s.Equal(tc.status, w.Code)
		})
	}
}

func (s *HandlerSuite) TestQueryAudit() {
	s.Run("producer is forbidden", func() {
		w := s.do(http.MethodGet, "/audit", "producer", nil)
		s.Equal(http.StatusForbidden, w.Code)
	})

	s.Run("parses filters", func() {
		s.links.EXPECT().QueryAudit(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, q audit.Query) ([]*audit.Entry, error) {
				s.Equal("100", q.TargetID)
				s.Equal(audit.ActionPrimaryChanged, q.Action)
				s.Equal(25, q.Limit)
				s.Equal(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), q.Since.UTC())
				return nil, nil
			})

		w := s.do(http.MethodGet, "/audit?target_id=100&action=primary_changed&limit=25&since=2026-01-02T00:00:00Z", "admin", nil)
		s.Equal(http.StatusOK, w.Code)
		s.JSONEq(`{"entries":[]}`, w.Body.String())
	})

	s.Run("bad timestamp", func() {
		w := s.do(http.MethodGet, "/audit?since=yesterday", "admin", nil)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("bad limit", func() {
		w := s.do(http.MethodGet, "/audit?limit=lots", "admin", nil)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *HandlerSuite) TestAdminRoutes() {
	s.Run("remediate", func() {
		s.links.EXPECT().FindAndFixMisassignedPrimaries(gomock.Any()).
			Return(&models.RemediationRun{Report: models.RemediationReport{Scanned: 2}, Reelected: []string{"100"}}, nil)

		w := s.do(http.MethodPost, "/admin/maintenance/remediate", "admin", nil)
		s.Equal(http.StatusOK, w.Code)
		resp := decode[RemediationResponse](s.T(), w)
		s.Equal(2, resp.Scanned)
		s.Equal([]string{"100"}, resp.Reelected)
		s.NotNil(resp.Findings)
	})

	s.Run("anomalies", func() {
		s.links.EXPECT().DetectAnomalies(gomock.Any(), "100").
			Return([]models.Anomaly{{Kind: models.AnomalyMultiplePrimaries, DiscordUserID: "100"}}, nil)

		w := s.do(http.MethodGet, "/admin/identities/100/anomalies", "admin", nil)
		s.Equal(http.StatusOK, w.Code)
		s.Contains(w.Body.String(), "multiple_primaries")
	})

	s.Run("unlink history", func() {
		s.links.EXPECT().ListUnlinks(gomock.Any(), "100", time.Time{}, time.Time{}).Return(nil, nil)

		w := s.do(http.MethodGet, "/identities/100/unlinks", "admin", nil)
		s.Equal(http.StatusOK, w.Code)
		s.JSONEq(`{"unlinks":[]}`, w.Body.String())
	})

	s.Run("producer cannot remediate", func() {
		w := s.do(http.MethodPost, "/admin/maintenance/remediate", "producer", nil)
		s.Equal(http.StatusForbidden, w.Code)
	})
}

func (s *HandlerSuite) TestArchiveRoles() {
	s.archives.EXPECT().ArchiveOnRoleRemoval(gomock.Any(), "100", []string{"admin"}, nil).
		Return(&archive.Archive{DiscordUserID: "100", Roles: []string{"admin"}}, nil)

	w := s.do(http.MethodPost, "/role-archives", "producer", map[string]any{
		"discord_user_id": "100",
		"roles":           []string{"admin"},
	})
	s.Equal(http.StatusCreated, w.Code)
}

func TestListLinksEmpty(t *testing.T) {
	ctrl := gomock.NewController(t)
	links := mocks.NewMockService(ctrl)
	links.EXPECT().ListLinks(gomock.Any(), "100").Return(nil, nil)

	r := chi.NewRouter()
	New(links, mocks.NewMockArchiveService(ctrl), tokens{"t": {Subject: "x", Role: auth.RoleAdmin}}, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)

	req := httptest.NewRequest(http.MethodGet, "/links/100", nil)
	req.Header.Set("Authorization", "Bearer t")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"links":[]}`, w.Body.String())
}
