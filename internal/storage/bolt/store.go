// Package bolt is the embedded single-file storage backend built on bbolt.
//
// Records are JSON documents keyed by address, one bucket per record kind.
// bbolt admits a single writer, so RunInTx serializes every unit of work
// regardless of lock key; claims of different users queue behind each other.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"drip/pkg/domain"
	dErrors "drip/pkg/domain-errors"
	"drip/pkg/platform/sentinel"
)

var (
	bucketConfigs     = []byte("configs")
	bucketAuthorities = []byte("mint_authorities")
	bucketUsers       = []byte("users")
	bucketMints       = []byte("mints")
	bucketAccounts    = []byte("accounts")
)

// Store persists faucet and token records in a bbolt file.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if needed) the database at path and ensures buckets exist.
func Open(path string, options *bolt.Options) (*Store, error) {
	if options == nil {
		options = &bolt.Options{Timeout: time.Second}
	} else if options.Timeout == 0 {
		options.Timeout = time.Second
	}
	db, err := bolt.Open(path, 0o600, options)
	if err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}
	if err := db.Update(func(btx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketConfigs, bucketAuthorities, bucketUsers, bucketMints, bucketAccounts} {
			if _, err := btx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bolt buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type txKey struct{}

func boltTxFrom(ctx context.Context) (*bolt.Tx, bool) {
	btx, ok := ctx.Value(txKey{}).(*bolt.Tx)
	return btx, ok
}

// RunInTx implements tx.Runner on a bbolt read-write transaction. A nested
// call joins the outer transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := boltTxFrom(ctx); ok {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return s.db.Update(func(btx *bolt.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, btx))
	})
}

// update runs fn on the ambient transaction or a fresh read-write one.
func (s *Store) update(ctx context.Context, fn func(btx *bolt.Tx) error) error {
	if btx, ok := boltTxFrom(ctx); ok {
		return fn(btx)
	}
	return s.db.Update(fn)
}

// view runs fn on the ambient transaction or a fresh read-only one.
func (s *Store) view(ctx context.Context, fn func(btx *bolt.Tx) error) error {
	if btx, ok := boltTxFrom(ctx); ok {
		return fn(btx)
	}
	return s.db.View(fn)
}

func get[T any](btx *bolt.Tx, bucket []byte, key domain.Address) (*T, error) {
	raw := btx.Bucket(bucket).Get(key.Bytes())
	if raw == nil {
		return nil, sentinel.ErrNotFound
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s record: %w", bucket, err)
	}
	return &out, nil
}

func put(btx *bolt.Tx, bucket []byte, key domain.Address, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", bucket, err)
	}
	return btx.Bucket(bucket).Put(key.Bytes(), raw)
}

func create(btx *bolt.Tx, bucket []byte, key domain.Address, value any) error {
	if btx.Bucket(bucket).Get(key.Bytes()) != nil {
		return sentinel.ErrAlreadyUsed
	}
	return put(btx, bucket, key, value)
}

func replace(btx *bolt.Tx, bucket []byte, key domain.Address, value any) error {
	if btx.Bucket(bucket).Get(key.Bytes()) == nil {
		return sentinel.ErrNotFound
	}
	return put(btx, bucket, key, value)
}

func find[T any](s *Store, ctx context.Context, bucket []byte, key domain.Address) (*T, error) {
	var out *T
	err := s.view(ctx, func(btx *bolt.Tx) error {
		var err error
		out, err = get[T](btx, bucket, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
