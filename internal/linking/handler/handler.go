// Package handler exposes identity linking over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"squadlink/internal/linking/models"
	archive "squadlink/internal/rolearchive/models"
	dErrors "squadlink/pkg/domain-errors"
	"squadlink/pkg/platform/audit"
	"squadlink/pkg/platform/httputil"
	"squadlink/pkg/platform/middleware/auth"
	"squadlink/pkg/platform/middleware/request"
	"squadlink/pkg/platform/middleware/requesttime"
)

// Service is the linking behaviour the handler depends on.
type Service interface {
	UpsertLink(ctx context.Context, discordUserID string, game models.GameIdentity, confidence float64, source models.Source) (*models.UpsertResult, error)
	ListLinks(ctx context.Context, discordUserID string) ([]*models.Link, error)
	RemoveLink(ctx context.Context, linkID uuid.UUID, reason *string) (*models.UnlinkResult, error)
	ListUnlinks(ctx context.Context, discordUserID string, since, until time.Time) ([]*models.UnlinkRecord, error)
	ResolvePrimary(ctx context.Context, discordUserID string) (*models.ResolutionResult, error)
	QueryAudit(ctx context.Context, q audit.Query) ([]*audit.Entry, error)
	FindAndFixMisassignedPrimaries(ctx context.Context) (*models.RemediationRun, error)
	DetectAnomalies(ctx context.Context, discordUserID string) ([]models.Anomaly, error)
}

// ArchiveService takes role archives when a privileged role is removed.
type ArchiveService interface {
	ArchiveOnRoleRemoval(ctx context.Context, discordUserID string, roles []string, displayName *string) (*archive.Archive, error)
}

type Handler struct {
	logger       *slog.Logger
	links        Service
	archives     ArchiveService
	jwtValidator auth.JWTValidator
	timeout      time.Duration
}

func New(links Service, archives ArchiveService, jwtValidator auth.JWTValidator, logger *slog.Logger) *Handler {
	return &Handler{
		logger:       logger,
		links:        links,
		archives:     archives,
		jwtValidator: jwtValidator,
		timeout:      30 * time.Second,
	}
}

// Register mounts the linking routes on r.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(request.RequestID)
	router.Use(request.Recovery(h.logger))
	router.Use(request.Logger(h.logger))
	router.Use(chimw.Timeout(h.timeout))
	router.Use(requesttime.Middleware)
	router.Use(auth.RequireAuth(h.jwtValidator, h.logger))

	router.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(h.logger, auth.RoleAdmin, auth.RoleProducer))
		r.Post("/links", h.handleUpsertLink)
		r.Get("/links/{discordUserID}", h.handleListLinks)
		r.Delete("/links/{linkID}", h.handleRemoveLink)
		r.Post("/identities/{discordUserID}/resolve", h.handleResolve)
		r.Post("/role-archives", h.handleArchiveRoles)
	})

	router.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(h.logger, auth.RoleAdmin))
		r.Get("/identities/{discordUserID}/unlinks", h.handleListUnlinks)
		r.Get("/audit", h.handleQueryAudit)
		r.Post("/admin/maintenance/remediate", h.handleRemediate)
		r.Get("/admin/identities/{discordUserID}/anomalies", h.handleAnomalies)
	})

	r.Mount("/", router)
}

// handleUpsertLink records the producer's link and then runs the election,
// so the response always reflects the identity's settled primary.
func (h *Handler) handleUpsertLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	var req UpsertLinkRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid upsert link request", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(ctx, "invalid upsert link request", "request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	source, err := models.ParseSource(req.Source)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	upserted, err := h.links.UpsertLink(ctx, req.DiscordUserID, req.GameIdentity(), *req.ConfidenceScore, source)
	if err != nil {
		h.fail(ctx, w, "failed to upsert link", err)
		return
	}
	resolution, err := h.links.ResolvePrimary(ctx, req.DiscordUserID)
	if err != nil {
		h.fail(ctx, w, "failed to resolve primary after upsert", err)
		return
	}

	status := http.StatusOK
	if upserted.Created {
		status = http.StatusCreated
	}
	httputil.WriteJSON(w, status, &UpsertLinkResponse{
		Link:       toLinkResponse(upserted.Link),
		Created:    upserted.Created,
		Changed:    upserted.Changed,
		Restored:   upserted.Restored,
		Resolution: toResolutionResponse(resolution),
	})
}

func (h *Handler) handleListLinks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	links, err := h.links.ListLinks(ctx, chi.URLParam(r, "discordUserID"))
	if err != nil {
		h.fail(ctx, w, "failed to list links", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"links": toLinkResponses(links)})
}

func (h *Handler) handleRemoveLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	linkID, err := uuid.Parse(chi.URLParam(r, "linkID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "link id must be a uuid"))
		return
	}

	var req RemoveLinkRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	result, err := h.links.RemoveLink(ctx, linkID, req.Reason)
	if err != nil {
		h.fail(ctx, w, "failed to remove link", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &UnlinkResponse{
		Record:     toUnlinkRecordResponse(result.Record),
		Resolution: toResolutionResponse(result.Resolution),
	})
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.links.ResolvePrimary(ctx, chi.URLParam(r, "discordUserID"))
	if err != nil {
		h.fail(ctx, w, "failed to resolve primary", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResolutionResponse(result))
}

func (h *Handler) handleListUnlinks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	since, err := queryTime(r, "since")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	until, err := queryTime(r, "until")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	records, err := h.links.ListUnlinks(ctx, chi.URLParam(r, "discordUserID"), since, until)
	if err != nil {
		h.fail(ctx, w, "failed to list unlinks", err)
		return
	}
	out := make([]*UnlinkRecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toUnlinkRecordResponse(rec))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"unlinks": out})
}

func (h *Handler) handleQueryAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q, err := parseAuditQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries, err := h.links.QueryAudit(ctx, q)
	if err != nil {
		h.fail(ctx, w, "failed to query audit log", err)
		return
	}
	if entries == nil {
		entries = []*audit.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) handleRemediate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	report, err := h.links.FindAndFixMisassignedPrimaries(ctx)
	if err != nil {
		h.fail(ctx, w, "remediation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRemediationResponse(report))
}

func (h *Handler) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	anomalies, err := h.links.DetectAnomalies(ctx, chi.URLParam(r, "discordUserID"))
	if err != nil {
		h.fail(ctx, w, "failed to detect anomalies", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"anomalies": nonNil(anomalies)})
}

type archiveRolesRequest struct {
	DiscordUserID string   `json:"discord_user_id"`
	Roles         []string `json:"roles"`
	DisplayName   *string  `json:"display_name,omitempty"`
}

func (h *Handler) handleArchiveRoles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req archiveRolesRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	archived, err := h.archives.ArchiveOnRoleRemoval(ctx, req.DiscordUserID, req.Roles, req.DisplayName)
	if err != nil {
		h.fail(ctx, w, "failed to archive roles", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, archived)
}

// fail logs client errors at warn and everything else at error.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	requestID := request.GetRequestID(ctx)
	if httputil.StatusFor(dErrors.CodeOf(err)) < http.StatusInternalServerError {
		h.logger.WarnContext(ctx, msg, "request_id", requestID, "error", err)
	} else {
		h.logger.ErrorContext(ctx, msg, "request_id", requestID, "error", err)
	}
	httputil.WriteError(w, err)
}

func queryTime(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeBadRequest, key+" must be an RFC 3339 timestamp")
	}
	return t, nil
}

func parseAuditQuery(r *http.Request) (audit.Query, error) {
	v := r.URL.Query()
	q := audit.Query{
		ActorID:    v.Get("actor_id"),
		TargetType: v.Get("target_type"),
		TargetID:   v.Get("target_id"),
		Action:     audit.ActionType(v.Get("action")),
	}
	var err error
	if q.Since, err = queryTime(r, "since"); err != nil {
		return q, err
	}
	if q.Until, err = queryTime(r, "until"); err != nil {
		return q, err
	}
	if raw := v.Get("limit"); raw != "" {
		if q.Limit, err = strconv.Atoi(raw); err != nil {
			return q, dErrors.New(dErrors.CodeBadRequest, "limit must be an integer")
		}
	}
	return q, nil
}
