package handler

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"squadlink/internal/linking/models"
	archive "squadlink/internal/rolearchive/models"
	dErrors "squadlink/pkg/domain-errors"
)

// UpsertLinkRequest is the producer payload for POST /links.
type UpsertLinkRequest struct {
	DiscordUserID   string   `json:"discord_user_id"`
	GameID64        *string  `json:"game_id64,omitempty"`
	OnlineServiceID *string  `json:"online_service_id,omitempty"`
	DisplayName     *string  `json:"display_name,omitempty"`
	ConfidenceScore *float64 `json:"confidence_score"`
	Source          string   `json:"source"`
}

// Normalize trims identifiers before validation.
func (r *UpsertLinkRequest) Normalize() {
	r.DiscordUserID = strings.TrimSpace(r.DiscordUserID)
	r.Source = strings.TrimSpace(r.Source)
}

// Validate checks presence only; ranges are enforced by the service.
func (r *UpsertLinkRequest) Validate() error {
	if r.DiscordUserID == "" {
		return dErrors.New(dErrors.CodeValidation, "discord_user_id is required")
	}
	if r.ConfidenceScore == nil {
		return dErrors.New(dErrors.CodeValidation, "confidence_score is required")
	}
	if r.Source == "" {
		return dErrors.New(dErrors.CodeValidation, "source is required")
	}
	return nil
}

func (r *UpsertLinkRequest) GameIdentity() models.GameIdentity {
	return models.GameIdentity{
		GameID64:        r.GameID64,
		OnlineServiceID: r.OnlineServiceID,
		DisplayName:     r.DisplayName,
	}
}

type RemoveLinkRequest struct {
	Reason *string `json:"reason,omitempty"`
}

type LinkResponse struct {
	ID              uuid.UUID     `json:"id"`
	DiscordUserID   string        `json:"discord_user_id"`
	GameID64        *string       `json:"game_id64,omitempty"`
	OnlineServiceID *string       `json:"online_service_id,omitempty"`
	DisplayName     *string       `json:"display_name,omitempty"`
	ConfidenceScore float64       `json:"confidence_score"`
	Source          models.Source `json:"source"`
	IsPrimary       bool          `json:"is_primary"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func toLinkResponse(l *models.Link) *LinkResponse {
	if l == nil {
		return nil
	}
	return &LinkResponse{
		ID:              l.ID,
		DiscordUserID:   l.DiscordUserID,
		GameID64:        l.GameID64,
		OnlineServiceID: l.OnlineServiceID,
		DisplayName:     l.DisplayName,
		ConfidenceScore: l.ConfidenceScore,
		Source:          l.Source,
		IsPrimary:       l.IsPrimary,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

func toLinkResponses(links []*models.Link) []*LinkResponse {
	out := make([]*LinkResponse, 0, len(links))
	for _, l := range links {
		out = append(out, toLinkResponse(l))
	}
	return out
}

type FlipResponse struct {
	LinkID     uuid.UUID `json:"link_id"`
	WasPrimary bool      `json:"was_primary"`
	IsPrimary  bool      `json:"is_primary"`
}

type ResolutionResponse struct {
	DiscordUserID        string                  `json:"discord_user_id"`
	NoPrimary            bool                    `json:"no_primary"`
	Primary              *LinkResponse           `json:"primary,omitempty"`
	Flips                []FlipResponse          `json:"flips"`
	SecurityFinding      *models.SecurityFinding `json:"security_finding,omitempty"`
	SecurityCheckSkipped bool                    `json:"security_check_skipped"`
}

func toResolutionResponse(r *models.ResolutionResult) *ResolutionResponse {
	if r == nil {
		return nil
	}
	flips := make([]FlipResponse, 0, len(r.Flips))
	for _, f := range r.Flips {
		flips = append(flips, FlipResponse(f))
	}
	return &ResolutionResponse{
		DiscordUserID:        r.DiscordUserID,
		NoPrimary:            r.NoPrimary,
		Primary:              toLinkResponse(r.Primary),
		Flips:                flips,
		SecurityFinding:      r.SecurityFinding,
		SecurityCheckSkipped: r.SecurityCheckSkipped,
	}
}

type UpsertLinkResponse struct {
	Link       *LinkResponse             `json:"link"`
	Created    bool                      `json:"created"`
	Changed    bool                      `json:"changed"`
	Restored   *archive.RestoredSnapshot `json:"restored_roles,omitempty"`
	Resolution *ResolutionResponse       `json:"resolution"`
}

type UnlinkRecordResponse struct {
	ID              uuid.UUID `json:"id"`
	DiscordUserID   string    `json:"discord_user_id"`
	LinkID          uuid.UUID `json:"link_id"`
	GameID64        *string   `json:"game_id64,omitempty"`
	OnlineServiceID *string   `json:"online_service_id,omitempty"`
	DisplayName     *string   `json:"display_name,omitempty"`
	UnlinkedAt      time.Time `json:"unlinked_at"`
	Reason          *string   `json:"reason,omitempty"`
	ActorType       string    `json:"actor_type"`
	ActorID         string    `json:"actor_id"`
}

func toUnlinkRecordResponse(r *models.UnlinkRecord) *UnlinkRecordResponse {
	if r == nil {
		return nil
	}
	return &UnlinkRecordResponse{
		ID:              r.ID,
		DiscordUserID:   r.DiscordUserID,
		LinkID:          r.LinkID,
		GameID64:        r.GameID64,
		OnlineServiceID: r.OnlineServiceID,
		DisplayName:     r.DisplayName,
		UnlinkedAt:      r.UnlinkedAt,
		Reason:          r.Reason,
		ActorType:       r.ActorType,
		ActorID:         r.ActorID,
	}
}

type UnlinkResponse struct {
	Record     *UnlinkRecordResponse `json:"record"`
	Resolution *ResolutionResponse   `json:"resolution"`
}

type RemediationResponse struct {
	Scanned   int                      `json:"scanned"`
	Reelected []string                 `json:"reelected"`
	Findings  []models.SecurityFinding `json:"findings"`
	Skipped   []string                 `json:"skipped"`
	Conflicts []string                 `json:"conflicts"`
}

func toRemediationResponse(r *models.RemediationRun) *RemediationResponse {
	return &RemediationResponse{
		Scanned:   r.Report.Scanned,
		Reelected: nonNil(r.Reelected),
		Findings:  nonNil(r.Report.Findings),
		Skipped:   nonNil(r.Report.Skipped),
		Conflicts: nonNil(r.Report.Conflicts),
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
