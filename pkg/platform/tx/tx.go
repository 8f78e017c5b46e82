// Package tx carries transaction scope through context so stores called inside a
// unit of work join it instead of opening their own.
package tx

import (
	"context"
	"database/sql"
)

type (
	ctxKey     struct{}
	lockKeyCtx struct{}
)

var (
	txKey   = ctxKey{}
	lockKey = lockKeyCtx{}
)

// Runner executes fn as a single atomic unit. Stores reached through the ctx
// passed to fn participate in the same transaction; returning an error discards
// every write made inside fn.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// WithLockKey names the record a unit of work mutates. Backends without row
// locks use it to pick the exclusive lock for the transaction.
func WithLockKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, lockKey, key)
}

// LockKey returns the record key set by WithLockKey.
func LockKey(ctx context.Context) string {
	key, _ := ctx.Value(lockKey).(string)
	return key
}
