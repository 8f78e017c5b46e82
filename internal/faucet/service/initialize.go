package service

import (
	"context"
	"errors"

	"drip/internal/faucet/models"
	"drip/internal/faucet/ports"
	"drip/pkg/domain"
	dErrors "drip/pkg/domain-errors"
	"drip/pkg/platform/audit"
	"drip/pkg/platform/sentinel"
	"drip/pkg/platform/tx"
	"drip/pkg/requestcontext"
)

// InitializeRequest describes the mint the faucet will issue.
type InitializeRequest struct {
	// TokenMint is the mint address; zero derives one under the program.
	TokenMint domain.Address
	Decimals  uint8
}

// Initialize creates the token mint with the derived mint authority and
// writes the config and mint authority records. It runs once.
func (s *Service) Initialize(ctx context.Context, req InitializeRequest) (cfg *models.Config, err error) {
	ctx, span := s.startSpan(ctx, "Initialize")
	defer func() { endSpan(span, err) }()

	mintAddr := req.TokenMint
	if mintAddr.IsZero() {
		mintAddr, _, err = domain.FindProgramAddress(models.TokenMintSeeds(), s.program)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive token mint")
		}
	}

	now := requestcontext.Now(ctx)
	ctx = tx.WithLockKey(ctx, s.configAddr.String())
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.FindConfigForUpdate(ctx, s.configAddr); err == nil {
			return dErrors.Wrap(models.ErrAlreadyInitialized, dErrors.CodeConflict, "faucet is already initialized")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load faucet config")
		}

		if _, err := s.ledger.CreateMint(ctx, mintAddr, req.Decimals, s.authorityAddr); err != nil {
			if !dErrors.HasCode(err, dErrors.CodeConflict) {
				return err
			}
			// An existing mint is adopted only if we already control it.
			existing, ferr := s.ledger.FindMint(ctx, mintAddr)
			if ferr != nil {
				return ferr
			}
			if existing.MintAuthority != s.authorityAddr {
				return dErrors.Wrap(models.ErrConfigMismatch, dErrors.CodeConflict, "existing mint has a different mint authority")
			}
		}

		if err := s.store.CreateMintAuthority(ctx, &models.MintAuthority{
			Address: s.authorityAddr,
			Nonce:   s.authorityNonce,
		}); err != nil {
			return translateCreate(err, models.ErrAlreadyInitialized, "mint authority record already exists")
		}

		cfg = &models.Config{
			Address:            s.configAddr,
			AttestationNetwork: s.network,
			TokenMint:          mintAddr,
			MintAuthorityNonce: s.authorityNonce,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := s.store.CreateConfig(ctx, cfg); err != nil {
			return translateCreate(err, models.ErrAlreadyInitialized, "faucet is already initialized")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventFaucetInitialized,
		"identity", s.configAddr.String(),
		"token_mint", mintAddr.String(),
		"mint_authority", s.authorityAddr.String(),
		"network", s.network.String(),
	)
	return cfg, nil
}

func translateCreate(err error, reason models.ReasonCode, msg string) error {
	if errors.Is(err, sentinel.ErrAlreadyUsed) {
		return dErrors.Wrap(reason, dErrors.CodeConflict, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist record")
}
