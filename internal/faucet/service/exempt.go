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

// SetExempt replaces the exempt identity. While unset any caller may claim the
// role; afterwards only the current holder may hand it over. Handing it to the
// zero address is allowed and sends every caller back through attestation.
func (s *Service) SetExempt(ctx context.Context, caller, next domain.Address) (cfg *models.Config, err error) {
	ctx, span := s.startSpan(ctx, "SetExempt")
	defer func() { endSpan(span, err) }()

	if err := requireIdentity(caller, "caller identity"); err != nil {
		return nil, err
	}

	var previous domain.Address
	ctx = tx.WithLockKey(ctx, s.configAddr.String())
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.loadConfig(ctx, true)
		if err != nil {
			return err
		}
		if !current.CanRotateExempt(caller) {
			return dErrors.Wrap(models.ErrNotExemptSigner, dErrors.CodeForbidden, "caller is not the exempt identity")
		}
		previous = current.ExemptIdentity
		current.RotateExempt(next, requestcontext.Now(ctx))
		if err := s.store.UpdateConfig(ctx, current); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update faucet config")
		}
		cfg = current
		return nil
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeForbidden) {
			ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventExemptDenied,
				"identity", next.String(),
				"actor", caller.String(),
				"reason", reasonOf(err),
				"decision", "denied",
			)
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementExemptRotations()
	}
	if next.IsZero() {
		s.logger.WarnContext(ctx, "exempt identity cleared; every caller now requires attestation",
			"actor", caller.String(),
		)
	}
	ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventExemptRotated,
		"identity", next.String(),
		"actor", caller.String(),
		"previous", previous.String(),
		"decision", "granted",
	)
	return cfg, nil
}
