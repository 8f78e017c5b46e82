package service

import (
	"context"
	"time"

	"drip/internal/faucet/metrics"
	"drip/internal/faucet/models"
	"drip/internal/faucet/ports"
	"drip/pkg/domain"
	dErrors "drip/pkg/domain-errors"
	"drip/pkg/platform/audit"
	"drip/pkg/platform/tx"
	"drip/pkg/requestcontext"
)

// ClaimRequest is one claim attempt.
type ClaimRequest struct {
	Caller domain.Address
	Proof  string
	// TokenMint, when set, must match the configured mint.
	TokenMint domain.Address
}

// ClaimResult describes a successful claim.
type ClaimResult struct {
	Identity     domain.Address
	TokenMint    domain.Address
	TokenAccount domain.Address
	Amount       uint64
	// Minted is false when accrual was zero; the cooldown clock is then untouched.
	Minted         bool
	Clamped        bool
	ClaimedAt      int64
	NextEligibleAt int64
}

// Claim mints the caller's accrual since their last claim.
//
// Preconditions (registered, initialized, matching mint) are checked first,
// then the authorization gate. The cooldown check, mint and timestamp update
// run in one transaction under the user record's write lock, so two claims of
// one user cannot both observe the same LastClaimedAt.
func (s *Service) Claim(ctx context.Context, req ClaimRequest) (res *ClaimResult, err error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "Claim")
	defer func() {
		endSpan(span, err)
		if s.metrics != nil {
			s.metrics.ObserveClaim(start)
		}
	}()

	if err := requireIdentity(req.Caller, "caller identity"); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx).Unix()

	userAddr, err := s.UserAddress(req.Caller)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive user address")
	}
	if _, err := s.loadUser(ctx, userAddr, false); err != nil {
		return nil, s.rejectClaim(ctx, req.Caller, err)
	}
	cfg, err := s.loadConfig(ctx, false)
	if err != nil {
		return nil, s.rejectClaim(ctx, req.Caller, err)
	}
	if !req.TokenMint.IsZero() && req.TokenMint != cfg.TokenMint {
		return nil, s.rejectClaim(ctx, req.Caller,
			dErrors.Wrap(models.ErrConfigMismatch, dErrors.CodeConflict, "token mint does not match faucet config"))
	}

	if _, err := s.authorize(ctx, cfg, req.Caller, req.Proof); err != nil {
		return nil, s.rejectClaim(ctx, req.Caller, err)
	}

	ctx = tx.WithLockKey(ctx, userAddr.String())
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		user, err := s.loadUser(ctx, userAddr, true)
		if err != nil {
			return err
		}

		elapsed := user.Elapsed(now)
		if elapsed < models.CooldownSeconds {
			return dErrors.Wrap(&models.CooldownError{Remaining: user.CooldownRemaining(now)},
				dErrors.CodeRateLimited, "claim cooldown has not elapsed")
		}

		amount, clamped := models.Accrue(elapsed, s.ratePerSecond)
		res = &ClaimResult{
			Identity:       req.Caller,
			TokenMint:      cfg.TokenMint,
			Amount:         amount,
			Clamped:        clamped,
			ClaimedAt:      user.LastClaimedAt,
			NextEligibleAt: user.NextEligibleAt(),
		}
		if clamped {
			s.logger.DebugContext(ctx, "claim accrual saturated",
				"identity", req.Caller.String(),
				"elapsed_seconds", elapsed,
			)
		}
		if amount == 0 {
			return nil
		}

		signer, err := s.loadMintSigner(ctx, cfg)
		if err != nil {
			return err
		}
		account, err := s.ledger.GetOrCreateAccount(ctx, cfg.TokenMint, req.Caller)
		if err != nil {
			return err
		}
		if err := s.ledger.MintTo(ctx, cfg.TokenMint, account.Address, amount, signer); err != nil {
			return err
		}

		user.RecordClaim(now)
		if err := s.store.UpdateUser(ctx, user); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record claim")
		}

		res.TokenAccount = account.Address
		res.Minted = true
		res.ClaimedAt = user.LastClaimedAt
		res.NextEligibleAt = user.NextEligibleAt()
		return nil
	})
	if err != nil {
		return nil, s.rejectClaim(ctx, req.Caller, err)
	}

	if !res.Minted {
		if s.metrics != nil {
			s.metrics.RecordClaim(metrics.OutcomeZeroAccrual, "")
		}
		s.logger.InfoContext(ctx, "claim accrued nothing; mint skipped",
			"identity", req.Caller.String(),
		)
		return res, nil
	}

	if s.metrics != nil {
		s.metrics.RecordClaim(metrics.OutcomeMinted, "")
		s.metrics.AddMinted(res.Amount)
		if res.Clamped {
			s.metrics.IncrementAccrualClamped()
		}
	}
	ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventTokensClaimed,
		"identity", req.Caller.String(),
		"amount", res.Amount,
		"token_account", res.TokenAccount.String(),
		"decision", "granted",
	)
	return res, nil
}

// rejectClaim records a failed claim and returns err unchanged.
func (s *Service) rejectClaim(ctx context.Context, caller domain.Address, err error) error {
	reason := reasonOf(err)
	if s.metrics != nil {
		s.metrics.RecordClaim(metrics.OutcomeRejected, reason)
	}
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		s.logger.ErrorContext(ctx, "claim failed", "identity", caller.String(), "error", err)
		return err
	}
	ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventClaimRejected,
		"identity", caller.String(),
		"reason", reason,
		"decision", "denied",
	)
	return err
}
