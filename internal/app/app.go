// Package app wires squadlink's components from configuration. Both the
// server and linkctl build the same graph through Build.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kgo"

	"squadlink/internal/linking/guard"
	"squadlink/internal/linking/lock"
	linkmetrics "squadlink/internal/linking/metrics"
	"squadlink/internal/linking/ports"
	linkservice "squadlink/internal/linking/service"
	linkmemory "squadlink/internal/linking/store/memory"
	linkpostgres "squadlink/internal/linking/store/postgres"
	"squadlink/internal/platform/config"
	"squadlink/internal/platform/postgres"
	platformredis "squadlink/internal/platform/redis"
	archiveservice "squadlink/internal/rolearchive/service"
	archivememory "squadlink/internal/rolearchive/store/memory"
	archiveredis "squadlink/internal/rolearchive/store/redis"
	"squadlink/pkg/platform/audit"
	"squadlink/pkg/platform/audit/relay"
	auditmemory "squadlink/pkg/platform/audit/store/memory"
	auditpostgres "squadlink/pkg/platform/audit/store/postgres"
	"squadlink/pkg/platform/circuit"
)

// App is the wired component graph.
type App struct {
	Linking  *linkservice.Service
	Archives *archiveservice.Service
	// Relay is nil when no Kafka brokers are configured.
	Relay *relay.Relay

	db     *sql.DB
	redis  *platformredis.Client
	kafka  *kgo.Client
	logger *slog.Logger
}

// Build connects to the configured backing services and assembles the
// services. reg may be nil, in which case metrics are not collected.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (_ *App, err error) {
	a := &App{logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	var linkMetrics *linkmetrics.Metrics
	if reg != nil {
		linkMetrics = linkmetrics.New(reg)
	}

	if a.redis, err = platformredis.New(ctx, cfg.Redis); err != nil {
		return nil, err
	}

	var (
		links    ports.LinkReader
		unlinks  ports.UnlinkReader
		tx       ports.LinkStoreTx
		auditLog linkservice.AuditLog
		appender audit.Appender
	)
	if cfg.Postgres.URL != "" {
		a.db, err = postgres.Open(ctx, postgres.Config{
			URL:             cfg.Postgres.URL,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		if err = postgres.ApplySchema(ctx, a.db); err != nil {
			return nil, err
		}
		linkStore := linkpostgres.NewLinkStore(a.db)
		unlinkStore := linkpostgres.NewUnlinkStore(a.db)
		auditStore := auditpostgres.New(a.db)
		links, unlinks, auditLog, appender = linkStore, unlinkStore, auditStore, auditStore
		tx = linkpostgres.NewTxRunner(a.db, linkStore, unlinkStore, auditStore)

		if len(cfg.Kafka.Brokers) > 0 {
			if a.Relay, err = a.buildRelay(ctx, cfg.Kafka, auditStore, reg); err != nil {
				return nil, err
			}
		}
	} else {
		logger.WarnContext(ctx, "DATABASE_URL not set, using in-memory link and audit stores")
		auditStore := auditmemory.NewInMemoryStore()
		linkStore := linkmemory.New(auditStore)
		links, unlinks, tx = linkStore, linkStore.Unlinks(), linkStore
		auditLog, appender = auditStore, auditStore
	}

	var (
		privileges   ports.PrivilegeGuard
		archiveStore archiveservice.Store
	)
	if a.redis != nil {
		tx = lock.NewGuarded(tx, lock.NewRedisLocker(a.redis.Client, cfg.Redis.LockTTL), lock.WithLogger(logger))
		privileges = guard.NewRedisGuard(a.redis.Client, cfg.Linking.PrivilegedSetKey)
		archiveStore = archiveredis.NewArchiveStore(a.redis.Client)
	} else {
		logger.WarnContext(ctx, "REDIS_URL not set, using static privilege guard and in-memory role archives")
		privileges = guard.NewStatic(cfg.Linking.PrivilegedUsers...)
		archiveStore = archivememory.NewInMemoryArchiveStore()
	}

	guardOpts := []guard.BoundedOption{
		guard.WithTimeout(cfg.Linking.GuardTimeout),
		guard.WithLogger(logger),
		guard.WithBreaker(circuit.New("privilege_guard")),
	}
	if linkMetrics != nil {
		guardOpts = append(guardOpts, guard.WithObserver(linkMetrics))
	}

	a.Archives, err = archiveservice.New(archiveStore, appender,
		archiveservice.WithLogger(logger),
		archiveservice.WithRetention(cfg.RoleArchive.Retention),
	)
	if err != nil {
		return nil, err
	}

	a.Linking, err = linkservice.New(links, unlinks, tx, auditLog,
		guard.NewBounded(privileges, guardOpts...),
		linkservice.WithLogger(logger),
		linkservice.WithMetrics(linkMetrics),
		linkservice.WithRestorer(a.Archives),
		linkservice.WithRetry(cfg.Linking.ResolveMaxRetries, cfg.Linking.ResolveRetryBackoff),
		linkservice.WithConcurrency(cfg.Linking.RemediationConcurrency),
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) buildRelay(ctx context.Context, cfg config.Kafka, source relay.Source, reg prometheus.Registerer) (*relay.Relay, error) {
	client, err := relay.NewKafkaClient(cfg.Brokers)
	if err != nil {
		return nil, err
	}
	a.kafka = client
	if err := relay.EnsureTopic(ctx, client, cfg.AuditTopic, cfg.TopicPartitions, cfg.ReplicationFactor); err != nil {
		return nil, fmt.Errorf("ensure audit topic: %w", err)
	}

	opts := []relay.Option{
		relay.WithLogger(a.logger),
		relay.WithBatchSize(cfg.BatchSize),
		relay.WithInterval(cfg.PollInterval),
	}
	if reg != nil {
		opts = append(opts, relay.WithMetrics(relay.NewMetrics(reg)))
	}
	return relay.New(source, relay.NewKafkaPublisher(client, cfg.AuditTopic), opts...), nil
}

// Health pings every configured backing service.
func (a *App) Health(ctx context.Context) error {
	var errs []error
	if a.db != nil {
		if err := a.db.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Health(ctx); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close releases connections. It is safe to call on a partially built App.
func (a *App) Close() {
	if a.kafka != nil {
		a.kafka.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("closing redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("closing postgres", "error", err)
		}
	}
}
