package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	faucetmodels "drip/internal/faucet/models"
	tokenmodels "drip/internal/token/models"
	"drip/pkg/domain"
	"drip/pkg/platform/sentinel"
	"drip/pkg/platform/tx"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
}

func addr(b byte) domain.Address {
	var a domain.Address
	a[0] = b
	a[31] = b
	return a
}

func (s *MemoryStoreSuite) TestDuplicateCreateIsRefused() {
	user := &faucetmodels.User{Address: addr(1), Authority: addr(2), LastClaimedAt: 500}
	s.Require().NoError(s.store.CreateUser(s.ctx, user))

	err := s.store.CreateUser(s.ctx, &faucetmodels.User{Address: addr(1), Authority: addr(2)})
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	got, err := s.store.FindUser(s.ctx, addr(1))
	s.Require().NoError(err)
	s.Equal(int64(500), got.LastClaimedAt, "existing record untouched")
}

func (s *MemoryStoreSuite) TestFindMissing() {
	_, err := s.store.FindConfig(s.ctx, addr(9))
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindUser(s.ctx, addr(9))
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindMint(s.ctx, addr(9))
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindAccount(s.ctx, addr(9))
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.UpdateUser(s.ctx, &faucetmodels.User{Address: addr(9)}), sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestReturnedRecordsAreCopies() {
	s.Require().NoError(s.store.CreateConfig(s.ctx, &faucetmodels.Config{Address: addr(1), TokenMint: addr(2)}))

	cfg, err := s.store.FindConfig(s.ctx, addr(1))
	s.Require().NoError(err)
	cfg.TokenMint = addr(3)

	again, err := s.store.FindConfig(s.ctx, addr(1))
	s.Require().NoError(err)
	s.Equal(addr(2), again.TokenMint)
}

func (s *MemoryStoreSuite) TestTransactionRollsBackOnError() {
	s.Require().NoError(s.store.CreateMint(s.ctx, &tokenmodels.Mint{Address: addr(1), MintAuthority: addr(2)}))
	s.Require().NoError(s.store.CreateAccount(s.ctx, &tokenmodels.Account{Address: addr(3), Mint: addr(1), Owner: addr(4)}))
	s.Require().NoError(s.store.CreateUser(s.ctx, &faucetmodels.User{Address: addr(5), Authority: addr(4)}))

	boom := errors.New("boom")
	err := s.store.RunInTx(s.ctx, func(ctx context.Context) error {
		s.Require().NoError(s.store.AddSupply(ctx, addr(1), 100))
		s.Require().NoError(s.store.Credit(ctx, addr(3), 100))
		s.Require().NoError(s.store.UpdateUser(ctx, &faucetmodels.User{Address: addr(5), Authority: addr(4), LastClaimedAt: 99}))

		acct, err := s.store.FindAccount(ctx, addr(3))
		s.Require().NoError(err)
		s.Equal(uint64(100), acct.Amount, "staged credit visible inside the transaction")
		return boom
	})
	s.ErrorIs(err, boom)

	mint, err := s.store.FindMint(s.ctx, addr(1))
	s.Require().NoError(err)
	s.Zero(mint.Supply)
	acct, err := s.store.FindAccount(s.ctx, addr(3))
	s.Require().NoError(err)
	s.Zero(acct.Amount)
	user, err := s.store.FindUser(s.ctx, addr(5))
	s.Require().NoError(err)
	s.Zero(user.LastClaimedAt)
}

func (s *MemoryStoreSuite) TestTransactionCommitsAtomically() {
	err := s.store.RunInTx(s.ctx, func(ctx context.Context) error {
		if err := s.store.CreateMint(ctx, &tokenmodels.Mint{Address: addr(1), MintAuthority: addr(2)}); err != nil {
			return err
		}
		if err := s.store.CreateAccount(ctx, &tokenmodels.Account{Address: addr(3), Mint: addr(1), Owner: addr(4)}); err != nil {
			return err
		}
		if err := s.store.AddSupply(ctx, addr(1), 7); err != nil {
			return err
		}
		return s.store.Credit(ctx, addr(3), 7)
	})
	s.Require().NoError(err)

	mint, err := s.store.FindMint(s.ctx, addr(1))
	s.Require().NoError(err)
	s.Equal(uint64(7), mint.Supply)
	acct, err := s.store.FindAccount(s.ctx, addr(3))
	s.Require().NoError(err)
	s.Equal(uint64(7), acct.Amount)
}

func (s *MemoryStoreSuite) TestOverflowIsRefused() {
	s.Require().NoError(s.store.CreateMint(s.ctx, &tokenmodels.Mint{Address: addr(1), Supply: ^uint64(0) - 1}))
	s.ErrorIs(s.store.AddSupply(s.ctx, addr(1), 2), tokenmodels.ErrOverflow)
	s.NoError(s.store.AddSupply(s.ctx, addr(1), 1))
}

func (s *MemoryStoreSuite) TestSameKeySerializesReadModifyWrite() {
	s.Require().NoError(s.store.CreateUser(s.ctx, &faucetmodels.User{Address: addr(1)}))

	const workers = 50
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := tx.WithLockKey(s.ctx, addr(1).String())
			_ = s.store.RunInTx(ctx, func(ctx context.Context) error {
				u, err := s.store.FindUserForUpdate(ctx, addr(1))
				if err != nil {
					return err
				}
				u.LastClaimedAt++
				return s.store.UpdateUser(ctx, u)
			})
		}()
	}
	wg.Wait()

	u, err := s.store.FindUser(s.ctx, addr(1))
	s.Require().NoError(err)
	s.Equal(int64(workers), u.LastClaimedAt, "no update lost")
}

func (s *MemoryStoreSuite) TestSupplyDeltasAcrossKeysAreNotLost() {
	s.Require().NoError(s.store.CreateMint(s.ctx, &tokenmodels.Mint{Address: addr(200)}))

	const workers = 64
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := tx.WithLockKey(s.ctx, fmt.Sprintf("user-%d", i))
			_ = s.store.RunInTx(ctx, func(ctx context.Context) error {
				return s.store.AddSupply(ctx, addr(200), 10)
			})
		}()
	}
	wg.Wait()

	mint, err := s.store.FindMint(s.ctx, addr(200))
	s.Require().NoError(err)
	s.Equal(uint64(workers*10), mint.Supply)
}

func (s *MemoryStoreSuite) TestCancelledContextAborts() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	called := false
	err := s.store.RunInTx(ctx, func(context.Context) error {
		called = true
		return nil
	})
	s.Error(err)
	s.False(called)
}

func (s *MemoryStoreSuite) TestNestedTransactionJoinsOuter() {
	s.Require().NoError(s.store.CreateUser(s.ctx, &faucetmodels.User{Address: addr(1)}))
	ctx := tx.WithLockKey(s.ctx, "k")
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		return s.store.RunInTx(ctx, func(ctx context.Context) error {
			return s.store.UpdateUser(ctx, &faucetmodels.User{Address: addr(1), LastClaimedAt: 3})
		})
	})
	s.Require().NoError(err)
	u, err := s.store.FindUser(s.ctx, addr(1))
	s.Require().NoError(err)
	s.Equal(int64(3), u.LastClaimedAt)
}
