package bolt

import (
	"context"
	"math"

	bolt "go.etcd.io/bbolt"

	faucetmodels "drip/internal/faucet/models"
	tokenmodels "drip/internal/token/models"
	"drip/pkg/domain"
)

func (s *Store) CreateConfig(ctx context.Context, cfg *faucetmodels.Config) error {
	return s.update(ctx, func(btx *bolt.Tx) error {
		return create(btx, bucketConfigs, cfg.Address, cfg)
	})
}

func (s *Store) FindConfig(ctx context.Context, addr domain.Address) (*faucetmodels.Config, error) {
	return find[faucetmodels.Config](s, ctx, bucketConfigs, addr)
}

// FindConfigForUpdate is FindConfig; the single writer already excludes others.
func (s *Store) FindConfigForUpdate(ctx context.Context, addr domain.Address) (*faucetmodels.Config, error) {
	return s.FindConfig(ctx, addr)
}

func (s *Store) UpdateConfig(ctx context.Context, cfg *faucetmodels.Config) error {
	return s.update(ctx, func(btx *bolt.Tx) error {
		return replace(btx, bucketConfigs, cfg.Address, cfg)
	})
}

func (s *Store) CreateMintAuthority(ctx context.Context, auth *faucetmodels.MintAuthority) error {
	return s.update(ctx, func(btx *bolt.Tx) error {
		return create(btx, bucketAuthorities, auth.Address, auth)
	})
}

func (s *Store) FindMintAuthority(ctx context.Context, addr domain.Address) (*faucetmodels.MintAuthority, error) {
	return find[faucetmodels.MintAuthority](s, ctx, bucketAuthorities, addr)
}

func (s *Store) CreateUser(ctx context.Context, user *faucetmodels.User) error {
	return s.update(ctx, func(btx *bolt.Tx) error {
		return create(btx, bucketUsers, user.Address, user)
	})
}

func (s *Store) FindUser(ctx context.Context, addr domain.Address) (*faucetmodels.User, error) {
	return find[faucetmodels.User](s, ctx, bucketUsers, addr)
}

func (s *Store) FindUserForUpdate(ctx context.Context, addr domain.Address) (*faucetmodels.User, error) {
	return s.FindUser(ctx, addr)
}

func (s *Store) UpdateUser(ctx context.Context, user *faucetmodels.User) error {
	return s.update(ctx, func(btx *bolt.Tx) error {
		return replace(btx, bucketUsers, user.Address, user)
	})
}

func (s *Store) CreateMint(ctx context.Context, mint *tokenmodels.Mint) error {
	return s.update(ctx, func(btx *bolt.Tx) error {
		return create(btx, bucketMints, mint.Address, mint)
	})
}

func (s *Store) FindMint(ctx context.Context, addr domain.Address) (*tokenmodels.Mint, error) {
	return find[tokenmodels.Mint](s, ctx, bucketMints, addr)
}

func (s *Store) AddSupply(ctx context.Context, addr domain.Address, amount uint64) error {
	return s.update(ctx, func(btx *bolt.Tx) error {
		mint, err := get[tokenmodels.Mint](btx, bucketMints, addr)
		if err != nil {
			return err
		}
		if mint.Supply > math.MaxUint64-amount {
			return tokenmodels.ErrOverflow
		}
		mint.Supply += amount
		return put(btx, bucketMints, addr, mint)
	})
}

func (s *Store) CreateAccount(ctx context.Context, account *tokenmodels.Account) error {
	return s.update(ctx, func(btx *bolt.Tx) error {
		return create(btx, bucketAccounts, account.Address, account)
	})
}

func (s *Store) FindAccount(ctx context.Context, addr domain.Address) (*tokenmodels.Account, error) {
	return find[tokenmodels.Account](s, ctx, bucketAccounts, addr)
}

func (s *Store) Credit(ctx context.Context, addr domain.Address, amount uint64) error {
	return s.update(ctx, func(btx *bolt.Tx) error {
		account, err := get[tokenmodels.Account](btx, bucketAccounts, addr)
		if err != nil {
			return err
		}
		if err := account.Credit(amount); err != nil {
			return err
		}
		return put(btx, bucketAccounts, addr, account)
	})
}
