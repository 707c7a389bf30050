package models

import (
	"github.com/google/uuid"

	archive "squadlink/internal/rolearchive/models"
)

// PrimaryFlip describes one link whose IsPrimary value changed.
type PrimaryFlip struct {
	LinkID     uuid.UUID
	WasPrimary bool
	IsPrimary  bool
}

// SecurityFinding reports a privileged identity resting on a primary link
// below the confidence floor. It is surfaced, never auto-corrected.
type SecurityFinding struct {
	DiscordUserID   string    `json:"discord_user_id"`
	LinkID          uuid.UUID `json:"link_id"`
	ConfidenceScore float64   `json:"confidence_score"`
	Source          Source    `json:"source"`
	Floor           float64   `json:"confidence_floor"`
}

// ResolutionResult is the outcome of one election pass.
type ResolutionResult struct {
	DiscordUserID string
	// NoPrimary is set when the identity has no links. Consumers treat it as
	// "not yet resolvable", not as an error.
	NoPrimary bool
	Primary   *Link
	Flips     []PrimaryFlip
	// SecurityFinding is non-nil when the elected primary violates the
	// confidence floor for a privileged identity.
	SecurityFinding *SecurityFinding
	// SecurityCheckSkipped is set when the privilege guard could not answer.
	SecurityCheckSkipped bool
}

// Changed reports whether the pass flipped any flag.
func (r *ResolutionResult) Changed() bool {
	return len(r.Flips) > 0
}

// UpsertResult is returned by UpsertLink.
type UpsertResult struct {
	Link *Link
	// Created is true when the link did not exist before.
	Created bool
	// Changed is true when an existing link's confidence, source or display name changed.
	Changed bool
	// Restored holds an archived role snapshot reclaimed by this link, if any.
	Restored *archive.RestoredSnapshot
}

// UnlinkResult is returned by RemoveLink.
type UnlinkResult struct {
	Record     *UnlinkRecord
	Resolution *ResolutionResult
}

// RemediationReport describes the state a FindAndFixMisassignedPrimaries
// pass leaves behind, so two passes over unchanged data report the same.
// All lists are sorted by Discord user ID.
type RemediationReport struct {
	Scanned   int               `json:"scanned"`
	Findings  []SecurityFinding `json:"findings"`
	Skipped   []string          `json:"skipped"`
	Conflicts []string          `json:"conflicts"`
}

// RemediationRun is one pass: its report plus the identities it re-elected.
type RemediationRun struct {
	Report    RemediationReport `json:"report"`
	Reelected []string          `json:"reelected"`
}

// AnomalyKind classifies problems found by DetectAnomalies.
type AnomalyKind string

const (
	AnomalyChainBroken       AnomalyKind = "audit_chain_broken"
	AnomalyUnauditedFlip     AnomalyKind = "unaudited_primary_flip"
	AnomalyMultiplePrimaries AnomalyKind = "multiple_primaries"
)

// Anomaly is a detectable gap between link state and the audit trail.
type Anomaly struct {
	Kind          AnomalyKind `json:"kind"`
	DiscordUserID string      `json:"discord_user_id"`
	LinkID        *uuid.UUID  `json:"link_id,omitempty"`
	Detail        string      `json:"detail"`
}
