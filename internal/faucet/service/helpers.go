package service

import (
	"context"
	"errors"

	"drip/internal/faucet/models"
	"drip/pkg/domain"
	dErrors "drip/pkg/domain-errors"
	"drip/pkg/platform/sentinel"
)

func (s *Service) loadConfig(ctx context.Context, forUpdate bool) (*models.Config, error) {
	find := s.store.FindConfig
	if forUpdate {
		find = s.store.FindConfigForUpdate
	}
	cfg, err := find(ctx, s.configAddr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(models.ErrNotInitialized, dErrors.CodeUnavailable, "faucet is not initialized")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load faucet config")
	}
	return cfg, nil
}

func (s *Service) loadUser(ctx context.Context, addr domain.Address, forUpdate bool) (*models.User, error) {
	find := s.store.FindUser
	if forUpdate {
		find = s.store.FindUserForUpdate
	}
	user, err := find(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(models.ErrNotRegistered, dErrors.CodeForbidden, "identity is not registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

// loadMintSigner rebuilds the mint signer from the stored MintAuthority
// record. The record must exist and agree with the config nonce.
func (s *Service) loadMintSigner(ctx context.Context, cfg *models.Config) (domain.Signer, error) {
	auth, err := s.store.FindMintAuthority(ctx, s.authorityAddr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.Signer{}, dErrors.Wrap(models.ErrNotInitialized, dErrors.CodeUnavailable, "mint authority record is missing")
		}
		return domain.Signer{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load mint authority")
	}
	if auth.Nonce != cfg.MintAuthorityNonce {
		return domain.Signer{}, dErrors.Wrap(models.ErrConfigMismatch, dErrors.CodeInternal, "mint authority nonce does not match faucet config")
	}
	signer, err := s.mintSigner(auth.Nonce)
	if err != nil {
		return domain.Signer{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build mint authority signer")
	}
	return signer, nil
}

// authorize passes exempt callers and verifies everyone else's attestation.
// The exempt identity is read from cfg on every call; it is never cached.
func (s *Service) authorize(ctx context.Context, cfg *models.Config, caller domain.Address, proof string) (exempt bool, err error) {
	if cfg.IsExempt(caller) {
		return true, nil
	}
	if err := s.verifier.Verify(ctx, proof, caller, s.network, nil); err != nil {
		s.logger.WarnContext(ctx, "attestation verification rejected",
			"identity", caller.String(),
			"network", s.network.String(),
			"error", err,
		)
		return false, dErrors.Wrap(models.ErrAttestationCheckFailed, dErrors.CodeUnauthorized, "attestation check failed")
	}
	return false, nil
}

func requireIdentity(id domain.Address, field string) error {
	if id.IsZero() {
		return dErrors.New(dErrors.CodeValidation, field+" is required")
	}
	return nil
}

// reasonOf extracts the stable reason of a faucet error for metrics and audit.
func reasonOf(err error) string {
	var r interface{ Reason() string }
	if errors.As(err, &r) {
		return r.Reason()
	}
	return string(dErrors.CodeOf(err))
}
