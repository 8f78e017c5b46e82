package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"

	"drip/internal/attestation/jwtgateway"
	"drip/internal/attestation/redisgateway"
	"drip/internal/auth/replay"
	faucethandler "drip/internal/faucet/handler"
	faucetmetrics "drip/internal/faucet/metrics"
	"drip/internal/faucet/models"
	"drip/internal/faucet/ports"
	faucetservice "drip/internal/faucet/service"
	"drip/internal/platform/config"
	platformmetrics "drip/internal/platform/metrics"
	platformpg "drip/internal/platform/postgres"
	platformredis "drip/internal/platform/redis"
	throttlemetrics "drip/internal/ratelimit/metrics"
	throttle "drip/internal/ratelimit/middleware"
	"drip/internal/ratelimit/store/bucket"
	boltstore "drip/internal/storage/bolt"
	memorystore "drip/internal/storage/memory"
	pgstore "drip/internal/storage/postgres"
	tokenservice "drip/internal/token/service"
	httptransport "drip/internal/transport/http"
	"drip/pkg/domain"
	"drip/pkg/platform/audit"
	"drip/pkg/platform/audit/outbox"
	"drip/pkg/platform/audit/publisher"
	"drip/pkg/platform/audit/publishers/kafka"
	auditmemory "drip/pkg/platform/audit/store/memory"
	pgaudit "drip/pkg/platform/audit/store/postgres"
	"drip/pkg/platform/middleware/auth"
	"drip/pkg/platform/tx"
	"drip/pkg/requestcontext"
)

const (
	auditBufferSize  = 1024
	throttleSweepGap = time.Minute
	requestTimeout   = 30 * time.Second
)

// backendStore is what every storage driver provides.
type backendStore interface {
	ports.AccountStore
	tokenservice.Store
	tx.Runner
}

type app struct {
	router     http.Handler
	faucet     *faucetservice.Service
	background []func(ctx context.Context) error
	closers    []func() error
}

func (a *app) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

func (a *app) close(log *slog.Logger) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn("failed to release resource", "error", err)
		}
	}
}

// wire builds every dependency named by cfg. Resources opened before a
// failure are released before returning.
func wire(ctx context.Context, cfg *config.Config, log *slog.Logger) (a *app, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	program, err := domain.ParseAddress(cfg.Faucet.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("faucet.program_id: %w", err)
	}
	network, err := domain.ParseAddress(cfg.Attestation.Network)
	if err != nil {
		return nil, fmt.Errorf("attestation.network: %w", err)
	}

	a = &app{}
	defer func() {
		if err != nil {
			a.close(log)
		}
	}()

	reg := platformmetrics.NewRegistry()
	health := map[string]httptransport.HealthCheck{}

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if redisClient != nil {
		a.onClose(redisClient.Close)
		health["redis"] = redisClient.Health
	}

	var producer *kafka.Producer
	if brokers := cfg.Kafka.BrokerList(); len(brokers) > 0 {
		producer, err = kafka.NewProducer(kafka.Config{Brokers: brokers, Topic: cfg.Kafka.Topic, ClientID: cfg.Kafka.ClientID})
		if err != nil {
			return nil, err
		}
		a.onClose(func() error { producer.Close(); return nil })
		health["kafka"] = producer.Ping
		if cfg.Kafka.CreateTopic {
			if err := producer.EnsureTopic(ctx, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
				return nil, err
			}
		}
	}

	store, auditStore, err := a.openStorage(ctx, cfg, log, producer, health)
	if err != nil {
		return nil, err
	}

	var pubOpts []publisher.Option
	pubOpts = append(pubOpts, publisher.WithLogger(log))
	if cfg.Storage.Driver != config.DriverPostgres {
		pubOpts = append(pubOpts, publisher.WithAsyncBuffer(auditBufferSize))
	}
	auditPublisher := publisher.NewPublisher(auditStore, pubOpts...)
	a.onClose(func() error { auditPublisher.Close(); return nil })

	ledger, err := tokenservice.New(store, tokenservice.WithLogger(log))
	if err != nil {
		return nil, err
	}

	verifier, err := newVerifier(cfg, redisClient)
	if err != nil {
		return nil, err
	}

	a.faucet, err = faucetservice.New(store, ledger, verifier, store,
		faucetservice.WithLogger(log),
		faucetservice.WithAuditPublisher(auditPublisher),
		faucetservice.WithMetrics(faucetmetrics.NewWithRegisterer(reg)),
		faucetservice.WithProgramID(program),
		faucetservice.WithAttestationNetwork(network),
		faucetservice.WithRatePerSecond(cfg.Faucet.RatePerSecond),
		faucetservice.WithTracer(otel.Tracer("drip/faucet")),
	)
	if err != nil {
		return nil, err
	}

	signed := []func(http.Handler) http.Handler{
		a.newThrottle(cfg, log, redisClient, auditPublisher, reg).Throttle,
		auth.RequireSignature(log,
			auth.WithMaxSkew(cfg.Auth.MaxSkew),
			auth.WithReplayTTL(cfg.Auth.ReplayTTL),
			auth.WithReplayGuard(newReplayGuard(redisClient)),
		),
	}

	a.router = httptransport.NewRouter(httptransport.Options{
		Logger:            log,
		Metrics:           platformmetrics.Handler(reg, prometheus.DefaultGatherer),
		Health:            health,
		RequestTimeout:    requestTimeout,
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
	}, faucethandler.New(a.faucet, log, signed...))
	return a, nil
}

// openStorage selects the backend. Postgres audit goes to the outbox, relayed
// to Kafka when brokers are configured; the other drivers stream straight to
// Kafka or keep events in memory.
func (a *app) openStorage(ctx context.Context, cfg *config.Config, log *slog.Logger, producer *kafka.Producer, health map[string]httptransport.HealthCheck) (backendStore, audit.Store, error) {
	var fallbackAudit audit.Store = auditmemory.NewInMemoryStore()
	if producer != nil {
		fallbackAudit = kafka.NewSink(producer)
	}

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := platformpg.Open(ctx, platformpg.Config{
			DSN:             cfg.Postgres.DSN,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return nil, nil, err
		}
		a.onClose(db.Close)
		health["postgres"] = db.PingContext
		if cfg.Postgres.Migrate {
			if err := platformpg.Migrate(ctx, db); err != nil {
				return nil, nil, err
			}
		}
		store := pgstore.New(db)
		outboxStore := pgaudit.New(db)
		if producer != nil {
			relay, err := outbox.New(outboxStore, producer, store,
				outbox.WithLogger(log),
				outbox.WithBatchSize(cfg.Kafka.RelayBatch),
				outbox.WithInterval(cfg.Kafka.RelayInterval),
			)
			if err != nil {
				return nil, nil, err
			}
			a.background = append(a.background, relay.Run)
		}
		return store, outboxStore, nil

	case config.DriverBolt:
		store, err := boltstore.Open(cfg.Bolt.Path, nil)
		if err != nil {
			return nil, nil, err
		}
		a.onClose(store.Close)
		return store, fallbackAudit, nil

	case config.DriverMemory:
		log.Warn("memory storage selected; faucet state is lost on restart")
		return memorystore.New(), fallbackAudit, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

func newVerifier(cfg *config.Config, redisClient *platformredis.Client) (ports.AttestationVerifier, error) {
	switch cfg.Attestation.Mode {
	case config.AttestationRedis:
		if redisClient == nil {
			return nil, errors.New("redis attestation requires redis.url")
		}
		return redisgateway.NewVerifier(redisClient.Client, redisgateway.WithPrefix(cfg.Attestation.RedisPrefix)), nil
	case config.AttestationJWT:
		return jwtgateway.NewVerifier(jwtgateway.WithLeeway(cfg.Attestation.Leeway)), nil
	}
	return nil, fmt.Errorf("unknown attestation mode %q", cfg.Attestation.Mode)
}

func newReplayGuard(redisClient *platformredis.Client) auth.ReplayGuard {
	if redisClient != nil {
		return replay.NewRedisGuard(redisClient.Client)
	}
	return replay.NewMemoryGuard()
}

func (a *app) newThrottle(cfg *config.Config, log *slog.Logger, redisClient *platformredis.Client, auditor throttle.AuditPublisher, reg prometheus.Registerer) *throttle.Middleware {
	var store throttle.BucketStore
	if redisClient != nil {
		store = bucket.NewRedisBucketStore(redisClient.Client)
	} else {
		mem := bucket.NewInMemoryBucketStore()
		a.background = append(a.background, sweepEvery(throttleSweepGap, func() { mem.Sweep() }))
		store = mem
	}
	return throttle.New(store, cfg.Throttle.Limit, cfg.Throttle.Window, log,
		throttle.WithDisabled(!cfg.Throttle.Enabled),
		throttle.WithAuditPublisher(auditor),
		throttle.WithMetrics(throttlemetrics.New(reg)),
	)
}

// bootstrap initializes the faucet on first start and warns when the stored
// attestation network differs from the configured one.
func (a *app) bootstrap(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	ctx = requestcontext.WithTime(ctx, time.Now())
	if cfg.Faucet.Bootstrap {
		var mint domain.Address
		if cfg.Faucet.TokenMint != "" {
			parsed, err := domain.ParseAddress(cfg.Faucet.TokenMint)
			if err != nil {
				return fmt.Errorf("faucet.token_mint: %w", err)
			}
			mint = parsed
		}
		_, err := a.faucet.Initialize(ctx, faucetservice.InitializeRequest{TokenMint: mint, Decimals: cfg.Faucet.Decimals})
		switch {
		case err == nil:
			log.Info("faucet initialized", "config", a.faucet.ConfigAddress().String())
		case errors.Is(err, models.ErrAlreadyInitialized):
		default:
			return fmt.Errorf("initialize faucet: %w", err)
		}
	}

	view, err := a.faucet.GetConfig(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNotInitialized) {
			log.Warn("faucet is not initialized; claims fail until it is")
			return nil
		}
		return fmt.Errorf("read faucet config: %w", err)
	}
	if view.Config.AttestationNetwork != a.faucet.AttestationNetwork() {
		log.Warn("stored attestation network differs from configuration; proofs are checked against the configured network",
			"stored", view.Config.AttestationNetwork.String(),
			"configured", a.faucet.AttestationNetwork().String(),
		)
	}
	return nil
}
