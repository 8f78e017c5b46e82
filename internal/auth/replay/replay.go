// Package replay remembers request signatures for the skew window so a
// captured signed request cannot be replayed.
package replay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"drip/pkg/platform/sentinel"
)

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	return nil
}

// MemoryGuard is the single-process guard.
type MemoryGuard struct {
	mu    sync.Mutex
	seen  map[string]time.Time
	now   func() time.Time
	sweep int
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{seen: make(map[string]time.Time), now: time.Now}
}

// MarkSeen records sig until ttl elapses and reports whether it was already held.
func (g *MemoryGuard) MarkSeen(_ context.Context, sig string, ttl time.Duration) (bool, error) {
	if err := validateTTL(ttl); err != nil {
		return false, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.sweep++
	if g.sweep%256 == 0 {
		for k, exp := range g.seen {
			if !now.Before(exp) {
				delete(g.seen, k)
			}
		}
	}

	if exp, ok := g.seen[sig]; ok && now.Before(exp) {
		return true, nil
	}
	g.seen[sig] = now.Add(ttl)
	return false, nil
}
