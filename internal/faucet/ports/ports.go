// Package ports defines the interfaces the faucet service consumes.
package ports

import (
	"context"
	"log/slog"

	"drip/internal/faucet/models"
	tokenmodels "drip/internal/token/models"
	"drip/pkg/domain"
	"drip/pkg/platform/attrs"
	"drip/pkg/platform/audit"
	"drip/pkg/requestcontext"
)

// AccountStore persists the faucet's addressed records. Create methods return
// sentinel.ErrAlreadyUsed when the address is occupied; Find methods return
// sentinel.ErrNotFound when it is empty.
//
// ForUpdate variants take the backend's write exclusivity on the record for
// the rest of the surrounding transaction.
type AccountStore interface {
	CreateConfig(ctx context.Context, cfg *models.Config) error
	FindConfig(ctx context.Context, addr domain.Address) (*models.Config, error)
	FindConfigForUpdate(ctx context.Context, addr domain.Address) (*models.Config, error)
	UpdateConfig(ctx context.Context, cfg *models.Config) error

	CreateMintAuthority(ctx context.Context, auth *models.MintAuthority) error
	FindMintAuthority(ctx context.Context, addr domain.Address) (*models.MintAuthority, error)

	CreateUser(ctx context.Context, user *models.User) error
	FindUser(ctx context.Context, addr domain.Address) (*models.User, error)
	FindUserForUpdate(ctx context.Context, addr domain.Address) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
}

// TokenLedger is the token issuance primitive.
type TokenLedger interface {
	CreateMint(ctx context.Context, addr domain.Address, decimals uint8, authority domain.Address) (*tokenmodels.Mint, error)
	FindMint(ctx context.Context, addr domain.Address) (*tokenmodels.Mint, error)
	AssociatedAccount(owner, mint domain.Address) (domain.Address, error)
	GetOrCreateAccount(ctx context.Context, mint, owner domain.Address) (*tokenmodels.Account, error)
	MintTo(ctx context.Context, mint, dest domain.Address, amount uint64, signer domain.Signer) error
	Balance(ctx context.Context, mint, owner domain.Address) (domain.Address, uint64, error)
}

// AttestationVerifier checks an attestation proof for subject under network.
// Any failure, including a malformed or absent proof, is returned as an error.
type AttestationVerifier interface {
	Verify(ctx context.Context, proof string, subject, network domain.Address, extra []byte) error
}

// AuditPublisher emits audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// LogAudit logs an audit event as a structured line and, when a publisher is
// configured, emits it. Subject, actor, reason, decision and amount are read
// back from attrList.
func LogAudit(ctx context.Context, logger *slog.Logger, publisher AuditPublisher, event audit.AuditEvent, attrList ...any) {
	requestID := requestcontext.RequestID(ctx)
	if requestID != "" {
		attrList = append(attrList, "request_id", requestID)
	}

	args := append(attrList, "event", string(event), "log_type", "audit")
	if logger != nil {
		logger.InfoContext(ctx, string(event), args...)
	}

	if publisher == nil {
		return
	}
	err := publisher.Emit(ctx, audit.Event{
		Category:  event.Category(),
		Timestamp: requestcontext.Now(ctx),
		Subject:   attrs.ExtractString(attrList, "identity"),
		Action:    string(event),
		Decision:  attrs.ExtractString(attrList, "decision"),
		Reason:    attrs.ExtractString(attrList, "reason"),
		Amount:    attrs.ExtractUint64(attrList, "amount"),
		RequestID: requestID,
		ActorID:   attrs.ExtractString(attrList, "actor"),
	})
	if err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}
