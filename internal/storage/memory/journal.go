package memory

import (
	"context"
	"math"

	faucetmodels "drip/internal/faucet/models"
	tokenmodels "drip/internal/token/models"
	"drip/pkg/domain"
	"drip/pkg/platform/sentinel"
)

type journalKey struct{}

// journal stages the writes of one transaction.
type journal struct {
	configs       map[domain.Address]faucetmodels.Config
	configCreates map[domain.Address]bool
	authorities   map[domain.Address]faucetmodels.MintAuthority
	users         map[domain.Address]faucetmodels.User
	userCreates   map[domain.Address]bool
	mints         map[domain.Address]tokenmodels.Mint
	accounts      map[domain.Address]tokenmodels.Account
	supply        map[domain.Address]uint64
	credits       map[domain.Address]uint64
}

func newJournal() *journal {
	return &journal{
		configs:       make(map[domain.Address]faucetmodels.Config),
		configCreates: make(map[domain.Address]bool),
		authorities:   make(map[domain.Address]faucetmodels.MintAuthority),
		users:         make(map[domain.Address]faucetmodels.User),
		userCreates:   make(map[domain.Address]bool),
		mints:         make(map[domain.Address]tokenmodels.Mint),
		accounts:      make(map[domain.Address]tokenmodels.Account),
		supply:        make(map[domain.Address]uint64),
		credits:       make(map[domain.Address]uint64),
	}
}

func withJournal(ctx context.Context, j *journal) context.Context {
	return context.WithValue(ctx, journalKey{}, j)
}

func journalFrom(ctx context.Context) (*journal, bool) {
	j, ok := ctx.Value(journalKey{}).(*journal)
	return j, ok
}

// stage runs fn against the transaction's journal, or against a one-shot
// journal that is committed immediately when ctx carries none. Base maps may
// be read inside fn; they are locked for its duration.
func (s *Store) stage(ctx context.Context, fn func(j *journal) error) error {
	if j, ok := journalFrom(ctx); ok {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return fn(j)
	}
	j := newJournal()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(j); err != nil {
		return err
	}
	return s.applyLocked(j)
}

// read runs fn with the base maps read-locked and the journal, if any.
func (s *Store) read(ctx context.Context, fn func(j *journal)) {
	j, _ := journalFrom(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(j)
}

// commit validates and applies j. Either every staged write lands or none.
func (s *Store) commit(j *journal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(j)
}

func (s *Store) applyLocked(j *journal) error {
	if err := s.validateLocked(j); err != nil {
		return err
	}
	for addr, cfg := range j.configs {
		s.configs[addr] = cfg
	}
	for addr, auth := range j.authorities {
		s.authorities[addr] = auth
	}
	for addr, user := range j.users {
		s.users[addr] = user
	}
	for addr, mint := range j.mints {
		s.mints[addr] = mint
	}
	for addr, acct := range j.accounts {
		s.accounts[addr] = acct
	}
	for addr, delta := range j.supply {
		m := s.mints[addr]
		m.Supply += delta
		s.mints[addr] = m
	}
	for addr, delta := range j.credits {
		a := s.accounts[addr]
		a.Amount += delta
		s.accounts[addr] = a
	}
	return nil
}

// validateLocked re-checks creates and deltas against base state, which may
// have moved since they were staged under a different lock key.
func (s *Store) validateLocked(j *journal) error {
	for addr := range j.configCreates {
		if _, ok := s.configs[addr]; ok {
			return sentinel.ErrAlreadyUsed
		}
	}
	for addr := range j.authorities {
		if _, ok := s.authorities[addr]; ok {
			return sentinel.ErrAlreadyUsed
		}
	}
	for addr := range j.userCreates {
		if _, ok := s.users[addr]; ok {
			return sentinel.ErrAlreadyUsed
		}
	}
	for addr := range j.mints {
		if _, ok := s.mints[addr]; ok {
			return sentinel.ErrAlreadyUsed
		}
	}
	for addr := range j.accounts {
		if _, ok := s.accounts[addr]; ok {
			return sentinel.ErrAlreadyUsed
		}
	}
	for addr, delta := range j.supply {
		m, ok := s.mints[addr]
		if !ok {
			m, ok = j.mints[addr]
		}
		if !ok {
			return sentinel.ErrNotFound
		}
		if m.Supply > math.MaxUint64-delta {
			return tokenmodels.ErrOverflow
		}
	}
	for addr, delta := range j.credits {
		a, ok := s.accounts[addr]
		if !ok {
			a, ok = j.accounts[addr]
		}
		if !ok {
			return sentinel.ErrNotFound
		}
		if a.Amount > math.MaxUint64-delta {
			return tokenmodels.ErrOverflow
		}
	}
	return nil
}
