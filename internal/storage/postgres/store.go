// Package postgres is the PostgreSQL storage backend. It implements the faucet
// account store, the token ledger store and a tx.Runner.
//
// Every method runs on the *sql.Tx carried by ctx when one is present, so a
// claim's reads, writes and outbox rows commit together. ForUpdate reads take
// row locks with SELECT ... FOR UPDATE.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	dErrors "drip/pkg/domain-errors"
	"drip/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// Store persists faucet and token records in PostgreSQL.
type Store struct {
	db      *sql.DB
	timeout time.Duration
}

// New constructs a PostgreSQL-backed store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// WithTxTimeout overrides the default transaction timeout.
func (s *Store) WithTxTimeout(d time.Duration) *Store {
	s.timeout = d
	return s
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

// RunInTx implements tx.Runner. A nested call joins the outer transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := tx.From(ctx); ok {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := s.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "begin transaction timed out")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to begin transaction")
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(tx.WithTx(ctx, sqlTx)); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to commit transaction")
	}
	return nil
}
