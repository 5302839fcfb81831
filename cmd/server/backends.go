package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"batchledger/internal/authority"
	"batchledger/internal/fee"
	"batchledger/internal/height"
	"batchledger/internal/platform/config"
	"batchledger/internal/platform/kafka"
	"batchledger/internal/platform/postgres"
	redisclient "batchledger/internal/platform/redis"
	"batchledger/internal/registry/ports"
	"batchledger/internal/registry/service"
	audit "batchledger/pkg/platform/audit"
	kafkastore "batchledger/pkg/platform/audit/store/kafka"
	"batchledger/pkg/platform/audit/store/memory"
	pgaudit "batchledger/pkg/platform/audit/store/postgres"
	"batchledger/pkg/platform/audit/worker"
	"batchledger/pkg/platform/circuit"
)

// backends holds the infrastructure selected by configuration.
type backends struct {
	gateway     ports.AuthorityGateway
	fees        ports.FeeTransfer
	height      service.HeightSource
	ticker      *height.Ticker
	auditStore  audit.Store
	auditWorker *worker.Worker

	redis   *redisclient.Client
	db      *sql.DB
	pool    *pgxpool.Pool
	closers []func()
}

func buildBackends(ctx context.Context, cfg config.Server, log *slog.Logger) (_ *backends, err error) {
	b := &backends{}
	defer func() {
		if err != nil {
			b.Close()
		}
	}()

	if b.redis, err = redisclient.New(ctx, cfg.Redis); err != nil {
		return nil, err
	}
	if b.redis != nil {
		b.closers = append(b.closers, func() { _ = b.redis.Close() })
	}

	if cfg.Postgres.DSN != "" {
		if b.db, err = postgres.Open(ctx, cfg.Postgres); err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = b.db.Close() })
		if err = postgres.Migrate(ctx, b.db); err != nil {
			return nil, err
		}
		if b.pool, err = postgres.NewPool(ctx, cfg.Postgres); err != nil {
			return nil, err
		}
		b.closers = append(b.closers, b.pool.Close)
	}

	if err = b.buildAuthority(ctx, cfg, log); err != nil {
		return nil, err
	}

	switch cfg.Fees.Backend {
	case config.FeePostgres:
		b.fees = fee.NewPostgres(b.pool, cfg.Fees.OpeningBalance)
	default:
		b.fees = fee.NewMemory(cfg.Fees.OpeningBalance)
	}

	switch cfg.Height.Source {
	case config.HeightRedis:
		b.height = height.NewRedis(b.redis, cfg.Height.RedisKey)
	case config.HeightTicker:
		manual := height.NewManual(0)
		b.height = manual
		b.ticker = height.NewTicker(manual, cfg.Height.BlockInterval, log)
	default:
		b.height = height.NewManual(0)
	}

	if err = b.buildAudit(ctx, cfg, log); err != nil {
		return nil, err
	}
	return b, nil
}

// buildAuthority puts remote gateways behind a breaker that falls back to
// the static allowlist.
func (b *backends) buildAuthority(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	static := authority.NewStatic(cfg.Authority.Principals...)
	breaker := circuit.New("authority",
		circuit.WithFailureThreshold(cfg.Authority.FailureThreshold),
		circuit.WithSuccessThreshold(cfg.Authority.SuccessThreshold),
	)

	switch cfg.Authority.Backend {
	case config.AuthorityRedis:
		remote := authority.NewRedis(b.redis, cfg.Authority.RedisKey)
		if err := remote.Grant(ctx, cfg.Authority.Principals...); err != nil {
			return err
		}
		b.gateway = authority.NewResilient(remote, static, breaker, log)
	case config.AuthorityPostgres:
		remote := authority.NewPostgres(b.db)
		if err := remote.Grant(ctx, cfg.Authority.Principals...); err != nil {
			return err
		}
		b.gateway = authority.NewResilient(remote, static, breaker, log)
	default:
		b.gateway = static
	}
	return nil
}

// buildAudit selects the audit sink. With Kafka, events are produced to the
// topic and a worker materializes them into Postgres when a database is
// configured, or into memory otherwise.
func (b *backends) buildAudit(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	switch cfg.Audit.Sink {
	case config.AuditPostgres:
		b.auditStore = pgaudit.New(b.db)
		return nil
	case config.AuditKafka:
	default:
		b.auditStore = memory.NewInMemoryStore()
		return nil
	}

	producer, err := kafka.NewProducer(cfg.Kafka, cfg.Kafka.AuditTopic)
	if err != nil {
		return err
	}
	b.closers = append(b.closers, producer.Close)
	if err := kafka.EnsureTopic(ctx, producer, cfg.Kafka.AuditTopic, 3, 1); err != nil {
		return err
	}
	b.auditStore = kafkastore.New(producer, cfg.Kafka.AuditTopic)

	consumer, err := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.AuditTopic)
	if err != nil {
		return err
	}
	b.closers = append(b.closers, consumer.Close)

	var sink audit.Store = memory.NewInMemoryStore()
	if b.db != nil {
		sink = pgaudit.New(b.db)
	}
	b.auditWorker = worker.NewWorker(consumer, sink, log)
	return nil
}

// Health pings the remote dependencies in use.
func (b *backends) Health(ctx context.Context) error {
	if b.redis != nil {
		if err := b.redis.Health(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	if b.pool != nil {
		if err := b.pool.Ping(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	return nil
}

// Close releases resources in reverse order of acquisition.
func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}
