// Package memory is the in-process storage backend. It implements the faucet
// account store, the token ledger store and a tx.Runner over shared maps.
//
// Transactions stage writes in a journal carried by ctx and apply them
// atomically on commit. Exclusivity is per lock key (see tx.WithLockKey):
// units of work naming the same record serialize, others run in parallel.
// Supply and balance credits are staged as deltas so concurrent claims of
// different users never lose each other's increments.
package memory

import (
	"sync"

	faucetmodels "drip/internal/faucet/models"
	tokenmodels "drip/internal/token/models"
	"drip/pkg/domain"
)

// Store holds every record in memory.
type Store struct {
	mu          sync.RWMutex
	configs     map[domain.Address]faucetmodels.Config
	authorities map[domain.Address]faucetmodels.MintAuthority
	users       map[domain.Address]faucetmodels.User
	mints       map[domain.Address]tokenmodels.Mint
	accounts    map[domain.Address]tokenmodels.Account

	tx *shardedTx
}

// New creates an empty store.
func New() *Store {
	s := &Store{
		configs:     make(map[domain.Address]faucetmodels.Config),
		authorities: make(map[domain.Address]faucetmodels.MintAuthority),
		users:       make(map[domain.Address]faucetmodels.User),
		mints:       make(map[domain.Address]tokenmodels.Mint),
		accounts:    make(map[domain.Address]tokenmodels.Account),
	}
	s.tx = &shardedTx{store: s}
	return s
}

// Stats reports record counts, for tests and debugging.
func (s *Store) Stats() (configs, users, mints, accounts int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.configs), len(s.users), len(s.mints), len(s.accounts)
}
