package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squadlink/internal/linking/models"
	"squadlink/internal/platform/config"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	var cfg config.Config
	require.NoError(t, config.ParseEnv(&cfg))
	cfg.Postgres.URL = ""
	cfg.Redis.URL = ""
	cfg.Kafka.Brokers = nil
	cfg.Linking.PrivilegedUsers = []string{"100"}
	return &cfg
}

func TestBuildInMemory(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := Build(ctx, memoryConfig(t), logger, prometheus.NewRegistry())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Relay)
	assert.NoError(t, a.Health(ctx))

	_, err = a.Archives.ArchiveOnRoleRemoval(ctx, "100", []string{"admin"}, nil)
	require.NoError(t, err)

	upserted, err := a.Linking.UpsertLink(ctx, "100", models.GameIdentity{GameID64: models.StringPtr("7656")}, 0.6, models.SourceManual)
	require.NoError(t, err)
	assert.Nil(t, upserted.Restored, "roles only come back for links at the confidence floor")

	res, err := a.Linking.ResolvePrimary(ctx, "100")
	require.NoError(t, err)
	require.NotNil(t, res.SecurityFinding)
	assert.Equal(t, "100", res.SecurityFinding.DiscordUserID)

	upserted, err = a.Linking.UpsertLink(ctx, "100", models.GameIdentity{GameID64: models.StringPtr("7657")}, 1.0, models.SourceSquadJS)
	require.NoError(t, err)
	require.NotNil(t, upserted.Restored)
	assert.Equal(t, []string{"admin"}, upserted.Restored.Roles)
}

func TestBuildWithoutMetrics(t *testing.T) {
	a, err := Build(context.Background(), memoryConfig(t), slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	require.NoError(t, err)
	a.Close()
}
