// Package election picks the primary link for one Discord identity.
//
// Candidates are ranked by a total order over the tuple
// (confidence desc, source rank asc, createdAt asc). The link ID breaks any
// remaining tie so the order stays total even on corrupted data.
package election

import (
	"cmp"

	"squadlink/internal/linking/models"
)

// Key is the sort key of one candidate link.
type Key struct {
	Confidence float64
	SourceRank int
	CreatedAt  int64
	LinkID     string
}

// KeyOf builds the sort key for a link.
func KeyOf(l *models.Link) Key {
	return Key{
		Confidence: l.ConfidenceScore,
		SourceRank: l.Source.Rank(),
		CreatedAt:  l.CreatedAt.UnixNano(),
		LinkID:     l.ID.String(),
	}
}

// Compare returns a negative number when a ranks ahead of b.
func Compare(a, b Key) int {
	if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
		return c
	}
	if c := cmp.Compare(a.SourceRank, b.SourceRank); c != 0 {
		return c
	}
	if c := cmp.Compare(a.CreatedAt, b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.LinkID, b.LinkID)
}

// Elect returns the link that should be primary, or nil for no links.
func Elect(links []*models.Link) *models.Link {
	if len(links) == 0 {
		return nil
	}
	best := links[0]
	for _, l := range links[1:] {
		if Compare(KeyOf(l), KeyOf(best)) < 0 {
			best = l
		}
	}
	return best
}

// Plan lists the flag changes needed to make Winner the only primary.
// Demotions come first so an intermediate state never holds two primaries.
type Plan struct {
	Winner  *models.Link
	Demote  []*models.Link
	Promote *models.Link
}

// Empty reports a plan with nothing to change.
func (p Plan) Empty() bool {
	return len(p.Demote) == 0 && p.Promote == nil
}

// PlanFor computes the election plan for one identity's links.
func PlanFor(links []*models.Link) Plan {
	winner := Elect(links)
	if winner == nil {
		return Plan{}
	}
	plan := Plan{Winner: winner}
	for _, l := range links {
		if l.ID == winner.ID {
			continue
		}
		if l.IsPrimary {
			plan.Demote = append(plan.Demote, l)
		}
	}
	if !winner.IsPrimary {
		plan.Promote = winner
	}
	return plan
}
