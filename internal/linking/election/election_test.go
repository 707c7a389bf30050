package election

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squadlink/internal/linking/models"
)

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func link(confidence float64, source models.Source, created time.Duration) *models.Link {
	return &models.Link{
		ID:              uuid.New(),
		DiscordUserID:   "100",
		GameID64:        models.StringPtr(uuid.NewString()),
		ConfidenceScore: confidence,
		Source:          source,
		CreatedAt:       t0.Add(created),
	}
}

func TestElect(t *testing.T) {
	tests := []struct {
		name  string
		links  func() ([]*models.Link, *models.Link)
	}{
		{
			name: "source beats earlier timestamp at equal confidence",
			links: func() ([]*models.Link, *models.Link) {
				a := link(0.8, models.SourceImport, 0)
				b := link(0.8, models.SourceManual, time.Hour)
				return []*models.Link{a, b}, b
			},
		},
		{
			name: "confidence dominates source",
			links: func() ([]*models.Link, *models.Link) {
				a := link(1.0, models.SourceImport, 0)
				b := link(0.9, models.SourceManual, 0)
				return []*models.Link{a, b}, a
			},
		},
		{
			name: "earliest wins full tie on confidence and source",
			links: func() ([]*models.Link, *models.Link) {
				a := link(0.7, models.SourceTicket, 2*time.Hour)
				b := link(0.7, models.SourceTicket, time.Hour)
				return []*models.Link{a, b}, b
			},
		},
		{
			name: "single link wins regardless of confidence",
			links: func() ([]*models.Link, *models.Link) {
				a := link(0.1, models.SourceImport, 0)
				return []*models.Link{a}, a
			},
		},
		{
			name: "squadjs beats whitelist beats ticket",
			links: func() ([]*models.Link, *models.Link) {
				w := link(0.9, models.SourceWhitelist, 0)
				tk := link(0.9, models.SourceTicket, -time.Hour)
				s := link(0.9, models.SourceSquadJS, time.Hour)
				return []*models.Link{w, tk, s}, s
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links, want := tt.links()
			assert.Equal(t, want.ID, Elect(links).ID)
		})
	}
}

func TestElect_NoLinks(t *testing.T) {
	assert.Nil(t, Elect(nil))
	assert.True(t, PlanFor(nil).Empty())
}

func TestElect_OrderIndependent(t *testing.T) {
	links := []*models.Link{
		link(0.5, models.SourceImport, 0),
		link(0.9, models.SourceTicket, time.Minute),
		link(0.9, models.SourceSquadJS, 2*time.Minute),
		link(0.9, models.SourceSquadJS, 3*time.Minute),
	}
	want := links[2].ID
	for i := range links {
		rotated := append(append([]*models.Link{}, links[i:]...), links[:i]...)
		assert.Equal(t, want, Elect(rotated).ID)
	}
}

func TestElect_FullTieBrokenByLinkID(t *testing.T) {
	a := link(0.9, models.SourceManual, 0)
	b := link(0.9, models.SourceManual, 0)
	want := a
	if Compare(KeyOf(b), KeyOf(a)) < 0 {
		want = b
	}
	assert.Equal(t, want.ID, Elect([]*models.Link{a, b}).ID)
	assert.Equal(t, want.ID, Elect([]*models.Link{b, a}).ID, "link ID breaks a full tie deterministically")
	assert.NotZero(t, Compare(KeyOf(a), KeyOf(b)))
}

func TestPlanFor(t *testing.T) {
	a := link(1.0, models.SourceManual, 0)
	b := link(0.5, models.SourceImport, time.Hour)
	b.IsPrimary = true

	plan := PlanFor([]*models.Link{a, b})
	assert.Equal(t, a.ID, plan.Winner.ID)
	require.Len(t, plan.Demote, 1)
	assert.Equal(t, b.ID, plan.Demote[0].ID)
	assert.Equal(t, a.ID, plan.Promote.ID)

	a.IsPrimary, b.IsPrimary = true, false
	assert.True(t, PlanFor([]*models.Link{a, b}).Empty(), "already resolved")
}
