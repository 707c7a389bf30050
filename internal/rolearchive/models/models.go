// Package models defines role archives taken when a privileged role is removed.
package models

import (
	"time"
)

// DefaultRetention is how long an archive stays restorable.
const DefaultRetention = 30 * 24 * time.Hour

// Archive is the snapshot taken when a privileged role is removed from a
// Discord identity. It is restorable once, until ExpiresAt.
type Archive struct {
	DiscordUserID string    `json:"discord_user_id"`
	DisplayName   *string   `json:"display_name,omitempty"`
	Roles         []string  `json:"roles"`
	ArchivedAt    time.Time `json:"archived_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// IsExpired reports whether the archive can no longer be restored at now.
// An archive is restorable up to, but not including, ExpiresAt.
func (a *Archive) IsExpired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}

// RestoredSnapshot is handed to the caller to reapply display name and roles.
type RestoredSnapshot struct {
	DiscordUserID string    `json:"discord_user_id"`
	DisplayName   *string   `json:"display_name,omitempty"`
	Roles         []string  `json:"roles"`
	ArchivedAt    time.Time `json:"archived_at"`
}

func (a *Archive) Snapshot() *RestoredSnapshot {
	return &RestoredSnapshot{
		DiscordUserID: a.DiscordUserID,
		DisplayName:   a.DisplayName,
		Roles:         append([]string(nil), a.Roles...),
		ArchivedAt:    a.ArchivedAt,
	}
}
