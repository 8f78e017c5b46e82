package service

import (
	"context"

	"drip/internal/faucet/models"
	"drip/pkg/domain"
	dErrors "drip/pkg/domain-errors"
	"drip/pkg/requestcontext"
)

// ConfigView is the config record plus the addresses derived around it.
type ConfigView struct {
	Config        models.Config
	ProgramID     domain.Address
	MintAuthority domain.Address
	Decimals      uint8
	Supply        uint64
}

// UserView is a registry entry with its claim schedule at request time.
type UserView struct {
	User              models.User
	NextEligibleAt    int64
	CooldownRemaining int64
	// AccruedAmount is what a claim would mint right now, ignoring the cooldown.
	AccruedAmount uint64
}

// BalanceView is an identity's holding of the faucet mint.
type BalanceView struct {
	Identity     domain.Address
	TokenMint    domain.Address
	TokenAccount domain.Address
	Amount       uint64
	Decimals     uint8
}

func (s *Service) GetConfig(ctx context.Context) (*ConfigView, error) {
	cfg, err := s.loadConfig(ctx, false)
	if err != nil {
		return nil, err
	}
	mint, err := s.ledger.FindMint(ctx, cfg.TokenMint)
	if err != nil {
		return nil, err
	}
	return &ConfigView{
		Config:        *cfg,
		ProgramID:     s.program,
		MintAuthority: s.authorityAddr,
		Decimals:      mint.Decimals,
		Supply:        mint.Supply,
	}, nil
}

func (s *Service) GetUser(ctx context.Context, identity domain.Address) (*UserView, error) {
	if err := requireIdentity(identity, "identity"); err != nil {
		return nil, err
	}
	addr, err := s.UserAddress(identity)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive user address")
	}
	user, err := s.loadUser(ctx, addr, false)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeForbidden) {
			return nil, dErrors.Wrap(models.ErrNotRegistered, dErrors.CodeNotFound, "identity is not registered")
		}
		return nil, err
	}
	now := requestcontext.Now(ctx).Unix()
	accrued, _ := models.Accrue(user.Elapsed(now), s.ratePerSecond)
	return &UserView{
		User:              *user,
		NextEligibleAt:    user.NextEligibleAt(),
		CooldownRemaining: user.CooldownRemaining(now),
		AccruedAmount:     accrued,
	}, nil
}

func (s *Service) GetBalance(ctx context.Context, identity domain.Address) (*BalanceView, error) {
	if err := requireIdentity(identity, "identity"); err != nil {
		return nil, err
	}
	cfg, err := s.loadConfig(ctx, false)
	if err != nil {
		return nil, err
	}
	mint, err := s.ledger.FindMint(ctx, cfg.TokenMint)
	if err != nil {
		return nil, err
	}
	account, amount, err := s.ledger.Balance(ctx, cfg.TokenMint, identity)
	if err != nil {
		return nil, err
	}
	return &BalanceView{
		Identity:     identity,
		TokenMint:    cfg.TokenMint,
		TokenAccount: account,
		Amount:       amount,
		Decimals:     mint.Decimals,
	}, nil
}
