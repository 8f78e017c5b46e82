// Package outbox relays committed audit outbox rows to a message broker.
package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	pgaudit "drip/pkg/platform/audit/store/postgres"
	"drip/pkg/platform/tx"
)

const (
	defaultBatchSize = 100
	defaultInterval  = time.Second
)

// Source is the outbox side of the relay.
type Source interface {
	FetchUnpublished(ctx context.Context, limit int) ([]pgaudit.Entry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

// Producer delivers one payload to the broker, returning once it is acknowledged.
type Producer interface {
	Publish(ctx context.Context, key, eventType string, value []byte) error
}

// Relay moves outbox rows to the broker in batches. A batch is fetched,
// published and marked inside one transaction, so a crash mid-batch leaves
// the rows unpublished and they are delivered again (at-least-once).
type Relay struct {
	source    Source
	producer  Producer
	tx        tx.Runner
	logger    *slog.Logger
	batchSize int
	interval  time.Duration
}

// Option configures a Relay.
type Option func(*Relay)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) { r.logger = logger }
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

// New creates a relay.
func New(source Source, producer Producer, runner tx.Runner, opts ...Option) (*Relay, error) {
	if source == nil {
		return nil, errors.New("outbox source is required")
	}
	if producer == nil {
		return nil, errors.New("outbox producer is required")
	}
	if runner == nil {
		return nil, errors.New("tx runner is required")
	}
	r := &Relay{
		source:    source,
		producer:  producer,
		tx:        runner,
		logger:    slog.Default(),
		batchSize: defaultBatchSize,
		interval:  defaultInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger.WarnContext(ctx, "outbox relay batch failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RelayOnce publishes a single batch and reports how many rows were delivered.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	var delivered int
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		entries, err := r.source.FetchUnpublished(ctx, r.batchSize)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		ids := make([]uuid.UUID, 0, len(entries))
		for _, e := range entries {
			if err := r.producer.Publish(ctx, e.AggregateID, e.EventType, e.Payload); err != nil {
				return err
			}
			ids = append(ids, e.ID)
		}
		if err := r.source.MarkPublished(ctx, ids, time.Now()); err != nil {
			return err
		}
		delivered = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return delivered, nil
}
