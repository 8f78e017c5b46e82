package memory

import (
	"context"
	"math"

	"drip/internal/token/models"
	"drip/pkg/domain"
	"drip/pkg/platform/sentinel"
)

func (s *Store) CreateMint(ctx context.Context, mint *models.Mint) error {
	return s.stage(ctx, func(j *journal) error {
		if _, ok := s.mints[mint.Address]; ok {
			return sentinel.ErrAlreadyUsed
		}
		if _, ok := j.mints[mint.Address]; ok {
			return sentinel.ErrAlreadyUsed
		}
		j.mints[mint.Address] = *mint
		return nil
	})
}

// FindMint returns the mint with any supply staged in the current transaction.
func (s *Store) FindMint(ctx context.Context, addr domain.Address) (*models.Mint, error) {
	var (
		out models.Mint
		ok  bool
	)
	s.read(ctx, func(j *journal) {
		out, ok = s.mints[addr]
		if j == nil {
			return
		}
		if !ok {
			out, ok = j.mints[addr]
		}
		out.Supply += j.supply[addr]
	})
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &out, nil
}

func (s *Store) AddSupply(ctx context.Context, addr domain.Address, amount uint64) error {
	return s.stage(ctx, func(j *journal) error {
		m, ok := s.mints[addr]
		if !ok {
			m, ok = j.mints[addr]
		}
		if !ok {
			return sentinel.ErrNotFound
		}
		staged := j.supply[addr]
		if staged > math.MaxUint64-amount || m.Supply > math.MaxUint64-staged-amount {
			return models.ErrOverflow
		}
		j.supply[addr] = staged + amount
		return nil
	})
}

func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	return s.stage(ctx, func(j *journal) error {
		if _, ok := s.accounts[account.Address]; ok {
			return sentinel.ErrAlreadyUsed
		}
		if _, ok := j.accounts[account.Address]; ok {
			return sentinel.ErrAlreadyUsed
		}
		j.accounts[account.Address] = *account
		return nil
	})
}

// FindAccount returns the account with any credit staged in the current transaction.
func (s *Store) FindAccount(ctx context.Context, addr domain.Address) (*models.Account, error) {
	var (
		out models.Account
		ok  bool
	)
	s.read(ctx, func(j *journal) {
		out, ok = s.accounts[addr]
		if j == nil {
			return
		}
		if !ok {
			out, ok = j.accounts[addr]
		}
		out.Amount += j.credits[addr]
	})
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &out, nil
}

func (s *Store) Credit(ctx context.Context, addr domain.Address, amount uint64) error {
	return s.stage(ctx, func(j *journal) error {
		a, ok := s.accounts[addr]
		if !ok {
			a, ok = j.accounts[addr]
		}
		if !ok {
			return sentinel.ErrNotFound
		}
		staged := j.credits[addr]
		if staged > math.MaxUint64-amount || a.Amount > math.MaxUint64-staged-amount {
			return models.ErrOverflow
		}
		j.credits[addr] = staged + amount
		return nil
	})
}
