// Package memory keeps audit events in process memory for the memory and
// bolt backends when no Kafka brokers are configured.
package memory

import (
	"context"
	"sync"

	audit "drip/pkg/platform/audit"
)

// DefaultRetention bounds how many events the store keeps.
const DefaultRetention = 10_000

type InMemoryStore struct {
	mu        sync.RWMutex
	events    []audit.Event
	retention int
}

type Option func(*InMemoryStore)

// WithRetention keeps the newest n events. Non-positive n keeps the default.
func WithRetention(n int) Option {
	return func(s *InMemoryStore) {
		if n > 0 {
			s.retention = n
		}
	}
}

func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{retention: DefaultRetention}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append records event, evicting the oldest once retention is reached.
func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) >= s.retention {
		drop := len(s.events) - s.retention + 1
		s.events = append(s.events[:0], s.events[drop:]...)
	}
	s.events = append(s.events, event)
	return nil
}

// ListBySubject returns the retained events for subject, oldest first.
func (s *InMemoryStore) ListBySubject(_ context.Context, subject string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.Subject == subject {
			out = append(out, e)
		}
	}
	return out, nil
}

// Len reports how many events are retained.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
