package service

import (
	"context"

	"drip/internal/faucet/models"
	"drip/internal/faucet/ports"
	"drip/pkg/domain"
	dErrors "drip/pkg/domain-errors"
	"drip/pkg/platform/audit"
	"drip/pkg/platform/tx"
	"drip/pkg/requestcontext"
)

// Register creates the registry entry of caller. Callers other than the
// exempt identity must present a passing attestation proof.
func (s *Service) Register(ctx context.Context, caller domain.Address, proof string) (user *models.User, err error) {
	ctx, span := s.startSpan(ctx, "Register")
	defer func() { endSpan(span, err) }()

	if err := requireIdentity(caller, "caller identity"); err != nil {
		return nil, err
	}

	cfg, err := s.loadConfig(ctx, false)
	if err != nil {
		return nil, err
	}
	exempt, err := s.authorize(ctx, cfg, caller, proof)
	if err != nil {
		return nil, err
	}

	userAddr, err := s.UserAddress(caller)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive user address")
	}
	user = models.NewUser(userAddr, caller, requestcontext.Now(ctx))

	ctx = tx.WithLockKey(ctx, userAddr.String())
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.CreateUser(ctx, user); err != nil {
			return translateCreate(err, models.ErrAlreadyRegistered, "identity is already registered")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementRegistrations()
	}
	ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventUserRegistered,
		"identity", caller.String(),
		"user_address", userAddr.String(),
		"exempt", exempt,
	)
	return user, nil
}
