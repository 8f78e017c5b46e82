// Package publisher emits audit events to a store, either inline or through
// a bounded background buffer.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	audit "drip/pkg/platform/audit"
)

// ErrBufferFull is returned by Emit when the async buffer cannot accept more events.
var ErrBufferFull = errors.New("audit buffer full")

// ErrNotReadable is returned by List when the store cannot serve events back.
var ErrNotReadable = errors.New("audit store does not support reads")

// Publisher writes audit events to a Store.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger

	buffer chan audit.Event
	done   chan struct{}
	once   sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer makes Emit non-blocking with a buffer of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.buffer = make(chan audit.Event, n)
		}
	}
}

// WithLogger sets a logger for background write failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a publisher. Without WithAsyncBuffer every Emit writes
// synchronously.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.buffer != nil {
		p.done = make(chan struct{})
		go p.drain()
	}
	return p
}

// Emit records an event. A zero Timestamp is filled with the current time.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	if p.buffer == nil {
		return p.store.Append(ctx, event)
	}

	select {
	case p.buffer <- event:
		return nil
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrBufferFull
}

// List returns events for subject if the underlying store supports it.
func (p *Publisher) List(ctx context.Context, subject string) ([]audit.Event, error) {
	r, ok := p.store.(audit.Reader)
	if !ok {
		return nil, ErrNotReadable
	}
	return r.ListBySubject(ctx, subject)
}

// Close flushes any buffered events and stops the background writer.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.buffer == nil {
			return
		}
		close(p.buffer)
		<-p.done
	})
}

func (p *Publisher) drain() {
	defer close(p.done)
	for event := range p.buffer {
		// Buffered writes outlive the request that produced them.
		if err := p.store.Append(context.Background(), event); err != nil {
			p.logger.Error("failed to persist audit event",
				"action", event.Action,
				"subject", event.Subject,
				"error", err,
			)
		}
	}
}
