package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squadlink/internal/linking/models"
	"squadlink/pkg/platform/audit"
	"squadlink/pkg/requestcontext"
)

type fakeEngine struct {
	actor     requestcontext.ActorInfo
	run       *models.RemediationRun
	anomalies []models.Anomaly
	query     audit.Query
	closed    bool
}

func (f *fakeEngine) ResolvePrimary(ctx context.Context, id string) (*models.ResolutionResult, error) {
	f.actor = requestcontext.Actor(ctx)
	return &models.ResolutionResult{
		DiscordUserID: id,
		Primary:       &models.Link{ID: uuid.New(), ConfidenceScore: 1, Source: models.SourceManual},
	}, nil
}

func (f *fakeEngine) FindAndFixMisassignedPrimaries(ctx context.Context) (*models.RemediationRun, error) {
	f.actor = requestcontext.Actor(ctx)
	return f.run, nil
}

func (f *fakeEngine) DetectAnomalies(_ context.Context, _ string) ([]models.Anomaly, error) {
	return f.anomalies, nil
}

func (f *fakeEngine) QueryAudit(_ context.Context, q audit.Query) ([]*audit.Entry, error) {
	f.query = q
	return nil, nil
}

func run(t *testing.T, engine *fakeEngine, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(func(context.Context) (Engine, func(), error) {
		return engine, func() { engine.closed = true }, nil
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(nil)
	for _, name := range []string{"remediate", "resolve", "verify", "audit"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestRemediateRunsAsScheduledJob(t *testing.T) {
	engine := &fakeEngine{run: &models.RemediationRun{
		Report: models.RemediationReport{
			Scanned:  3,
			Findings: []models.SecurityFinding{{DiscordUserID: "300", ConfidenceScore: 0.7, Floor: 1}},
		},
		Reelected: []string{"100", "300"},
	}}

	out, err := run(t, engine, "remediate")
	require.NoError(t, err)
	assert.Equal(t, audit.ActorScheduledJob, engine.actor.Type)
	assert.Equal(t, "linkctl", engine.actor.ID)
	assert.True(t, engine.closed)
	assert.Contains(t, out, "scanned 3 identities")
	assert.Contains(t, out, "re-elected (2): 100, 300")
	assert.Contains(t, out, "SECURITY FINDING 300")
}

func TestResolveRequiresDiscordID(t *testing.T) {
	_, err := run(t, &fakeEngine{}, "resolve")
	assert.Error(t, err)

	out, err := run(t, &fakeEngine{}, "resolve", "--discord-id", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "100: primary")
}

func TestVerifyFailsOnAnomalies(t *testing.T) {
	out, err := run(t, &fakeEngine{}, "verify", "--discord-id", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "consistent")

	engine := &fakeEngine{anomalies: []models.Anomaly{{Kind: models.AnomalyChainBroken, Detail: "hash mismatch"}}}
	out, err = run(t, engine, "verify", "--discord-id", "100", "--format", "json")
	assert.True(t, errors.Is(err, ErrAnomaliesFound))
	assert.Contains(t, out, "audit_chain_broken")
}

func TestAuditBuildsQuery(t *testing.T) {
	engine := &fakeEngine{}
	_, err := run(t, engine, "audit", "--discord-id", "100", "--action", "primary_changed", "--limit", "5")
	require.NoError(t, err)
	assert.Equal(t, audit.TargetDiscordUser, engine.query.TargetType)
	assert.Equal(t, "100", engine.query.TargetID)
	assert.Equal(t, audit.ActionPrimaryChanged, engine.query.Action)
	assert.Equal(t, 5, engine.query.Limit)
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, &fakeEngine{}, "resolve", "--discord-id", "1", "--format", "yaml")
	assert.Error(t, err)
}
