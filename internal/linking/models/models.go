// Package models holds the link engine's domain types.
package models

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "squadlink/pkg/domain-errors"
)

// ConfidenceFloor is the minimum confidence a primary link must carry when
// its Discord identity holds a privileged role.
const ConfidenceFloor = 1.0

// Source records which producer asserted a link.
type Source string

const (
	SourceManual    Source = "manual"
	SourceSquadJS   Source = "squadjs"
	SourceWhitelist Source = "whitelist"
	SourceTicket    Source = "ticket"
	SourceImport    Source = "import"
)

var sourceRanks = map[Source]int{
	SourceManual:    0,
	SourceSquadJS:   1,
	SourceWhitelist: 2,
	SourceTicket:    3,
	SourceImport:    4,
}

// Rank orders sources for election ties; lower wins. Unknown sources rank last.
func (s Source) Rank() int {
	if r, ok := sourceRanks[s]; ok {
		return r
	}
	return len(sourceRanks)
}

func (s Source) IsValid() bool {
	_, ok := sourceRanks[s]
	return ok
}

// ParseSource validates a producer-supplied source name.
func ParseSource(raw string) (Source, error) {
	s := Source(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "invalid source: "+raw)
	}
	return s, nil
}

// GameIdentity is the in-game side of a link. At least one ID must be set.
type GameIdentity struct {
	GameID64        *string
	OnlineServiceID *string
	DisplayName     *string
}

// Validate rejects identities with neither ID set.
func (g GameIdentity) Validate() error {
	if isBlank(g.GameID64) && isBlank(g.OnlineServiceID) {
		return dErrors.New(dErrors.CodeValidation, "game_id64 or online_service_id is required")
	}
	return nil
}

// Normalize trims IDs and turns blank strings into nil.
func (g GameIdentity) Normalize() GameIdentity {
	return GameIdentity{
		GameID64:        trimmed(g.GameID64),
		OnlineServiceID: trimmed(g.OnlineServiceID),
		DisplayName:     trimmed(g.DisplayName),
	}
}

// ValidateConfidence rejects NaN and values outside [0, 1].
func ValidateConfidence(c float64) error {
	if math.IsNaN(c) || c < 0 || c > 1 {
		return dErrors.New(dErrors.CodeValidation, "confidence_score must be between 0.0 and 1.0")
	}
	return nil
}

// ValidateDiscordUserID rejects empty identities.
func ValidateDiscordUserID(id string) error {
	if strings.TrimSpace(id) == "" {
		return dErrors.New(dErrors.CodeValidation, "discord_user_id is required")
	}
	return nil
}

// Link is one asserted association between a Discord identity and a game identity.
//
// IsPrimary is owned by the resolver; producers only ever change
// ConfidenceScore, Source and DisplayName.
type Link struct {
	ID              uuid.UUID
	DiscordUserID   string
	GameID64        *string
	OnlineServiceID *string
	DisplayName     *string
	ConfidenceScore float64
	Source          Source
	IsPrimary       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MeetsFloor reports whether the link is trustworthy enough to carry privileges.
func (l *Link) MeetsFloor() bool {
	return l.ConfidenceScore >= ConfidenceFloor
}

// GameIdentity returns the in-game side of the link.
func (l *Link) GameIdentity() GameIdentity {
	return GameIdentity{GameID64: l.GameID64, OnlineServiceID: l.OnlineServiceID, DisplayName: l.DisplayName}
}

func (l *Link) Clone() *Link {
	c := *l
	c.GameID64 = clonePtr(l.GameID64)
	c.OnlineServiceID = clonePtr(l.OnlineServiceID)
	c.DisplayName = clonePtr(l.DisplayName)
	return &c
}

// LinkSnapshot is the serialized form written to audit before/after states.
type LinkSnapshot struct {
	LinkID          string  `json:"link_id"`
	DiscordUserID   string  `json:"discord_user_id"`
	GameID64        *string `json:"game_id64,omitempty"`
	OnlineServiceID *string `json:"online_service_id,omitempty"`
	DisplayName     *string `json:"display_name,omitempty"`
	ConfidenceScore float64 `json:"confidence_score"`
	Source          Source  `json:"source"`
	IsPrimary       bool    `json:"is_primary"`
}

func (l *Link) Snapshot() LinkSnapshot {
	return LinkSnapshot{
		LinkID:          l.ID.String(),
		DiscordUserID:   l.DiscordUserID,
		GameID64:        l.GameID64,
		OnlineServiceID: l.OnlineServiceID,
		DisplayName:     l.DisplayName,
		ConfidenceScore: l.ConfidenceScore,
		Source:          l.Source,
		IsPrimary:       l.IsPrimary,
	}
}

// PrimarySnapshot is the before/after state of a primary_changed entry.
type PrimarySnapshot struct {
	LinkID          string  `json:"link_id"`
	IsPrimary       bool    `json:"is_primary"`
	ConfidenceScore float64 `json:"confidence_score"`
	Source          Source  `json:"source"`
}

func (l *Link) PrimarySnapshot() PrimarySnapshot {
	return PrimarySnapshot{
		LinkID:          l.ID.String(),
		IsPrimary:       l.IsPrimary,
		ConfidenceScore: l.ConfidenceScore,
		Source:          l.Source,
	}
}

// UnlinkRecord is the immutable history row written when a link is removed.
type UnlinkRecord struct {
	ID              uuid.UUID
	DiscordUserID   string
	LinkID          uuid.UUID
	GameID64        *string
	OnlineServiceID *string
	DisplayName     *string
	UnlinkedAt      time.Time
	Reason          *string
	ActorType       string
	ActorID         string
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func trimmed(s *string) *string {
	if isBlank(s) {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func clonePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// StringPtr is a convenience for building optional fields.
func StringPtr(s string) *string {
	return &s
}
