package memory

import (
	"context"
	"sync"
	"time"

	dErrors "drip/pkg/domain-errors"
	"drip/pkg/platform/tx"
)

// numShards spreads lock keys so unrelated records rarely share a mutex.
const numShards = 128

// defaultTxTimeout is the maximum duration for a transaction.
const defaultTxTimeout = 5 * time.Second

type shardedTx struct {
	shards  [numShards]sync.Mutex
	store   *Store
	timeout time.Duration
}

// RunInTx implements tx.Runner. fn's writes are staged and applied together
// once it returns nil; a nested call joins the outer transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.tx.run(ctx, fn)
}

// WithTxTimeout overrides the default transaction timeout.
func (s *Store) WithTxTimeout(d time.Duration) *Store {
	s.tx.timeout = d
	return s
}

func (t *shardedTx) run(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := journalFrom(ctx); ok {
		return fn(ctx)
	}

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := selectShard(tx.LockKey(ctx))
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	j := newJournal()
	if err := fn(withJournal(ctx, j)); err != nil {
		return err
	}
	return t.store.commit(j)
}

// selectShard picks a shard from the lock key, or shard 0 without one.
func selectShard(key string) int {
	if key == "" {
		return 0
	}
	return int(hashString(key) % numShards)
}

// hashString is FNV-1a.
func hashString(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
