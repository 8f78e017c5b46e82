// Package service implements the token ledger: mint creation, associated
// account get-or-create, and authority-checked minting.
//
// The ledger never opens transactions. Callers wrap related calls in a
// tx.Runner so stores reached through ctx commit together.
package service

import (
	"context"
	"errors"
	"log/slog"

	"drip/internal/token/models"
	"drip/pkg/domain"
	dErrors "drip/pkg/domain-errors"
	"drip/pkg/platform/sentinel"
	"drip/pkg/requestcontext"
)

// Store persists mints and token accounts.
type Store interface {
	CreateMint(ctx context.Context, mint *models.Mint) error
	FindMint(ctx context.Context, addr domain.Address) (*models.Mint, error)
	// AddSupply grows supply by amount, returning models.ErrOverflow instead of wrapping.
	AddSupply(ctx context.Context, addr domain.Address, amount uint64) error

	CreateAccount(ctx context.Context, account *models.Account) error
	FindAccount(ctx context.Context, addr domain.Address) (*models.Account, error)
	// Credit grows the account balance by amount, returning models.ErrOverflow instead of wrapping.
	Credit(ctx context.Context, addr domain.Address, amount uint64) error
}

// Ledger is the token issuance primitive.
type Ledger struct {
	store             Store
	tokenProgram      domain.Address
	associatedProgram domain.Address
	logger            *slog.Logger
}

type Option func(*Ledger)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// WithPrograms overrides the token and associated-token program identities.
func WithPrograms(tokenProgram, associatedProgram domain.Address) Option {
	return func(l *Ledger) {
		l.tokenProgram = tokenProgram
		l.associatedProgram = associatedProgram
	}
}

func New(store Store, opts ...Option) (*Ledger, error) {
	if store == nil {
		return nil, errors.New("token store is required")
	}
	l := &Ledger{
		store:             store,
		tokenProgram:      models.DefaultTokenProgram,
		associatedProgram: models.DefaultAssociatedTokenProgram,
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// CreateMint registers a new mint with zero supply.
func (l *Ledger) CreateMint(ctx context.Context, addr domain.Address, decimals uint8, authority domain.Address) (*models.Mint, error) {
	if addr.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "mint address is required")
	}
	if authority.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "mint authority is required")
	}
	mint := &models.Mint{
		Address:       addr,
		Decimals:      decimals,
		MintAuthority: authority,
		CreatedAt:     requestcontext.Now(ctx),
	}
	if err := l.store.CreateMint(ctx, mint); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "mint already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create mint")
	}
	return mint, nil
}

// FindMint loads a mint.
func (l *Ledger) FindMint(ctx context.Context, addr domain.Address) (*models.Mint, error) {
	mint, err := l.store.FindMint(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "mint not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load mint")
	}
	return mint, nil
}

// AssociatedAccount derives the canonical account address of owner for mint.
func (l *Ledger) AssociatedAccount(owner, mint domain.Address) (domain.Address, error) {
	addr, err := models.AssociatedAccountAddress(owner, mint, l.tokenProgram, l.associatedProgram)
	if err != nil {
		return domain.Address{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive token account")
	}
	return addr, nil
}

// GetOrCreateAccount returns the associated account of owner for mint,
// creating it with a zero balance when absent. Repeated calls are idempotent.
func (l *Ledger) GetOrCreateAccount(ctx context.Context, mint, owner domain.Address) (*models.Account, error) {
	addr, err := l.AssociatedAccount(owner, mint)
	if err != nil {
		return nil, err
	}

	account, err := l.store.FindAccount(ctx, addr)
	if err == nil {
		if account.Mint != mint || account.Owner != owner {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "token account does not match owner and mint")
		}
		return account, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load token account")
	}

	if _, err := l.FindMint(ctx, mint); err != nil {
		return nil, err
	}

	account = &models.Account{
		Address:   addr,
		Mint:      mint,
		Owner:     owner,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := l.store.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			// Lost a creation race; the winner's record is the account.
			winner, err := l.store.FindAccount(ctx, addr)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load token account")
			}
			return winner, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create token account")
	}
	l.logger.DebugContext(ctx, "token account created",
		"account", addr.String(),
		"owner", owner.String(),
		"mint", mint.String(),
	)
	return account, nil
}

// MintTo issues amount of mint into dest. signer must be the mint's authority
// and must prove its derivation.
func (l *Ledger) MintTo(ctx context.Context, mint, dest domain.Address, amount uint64, signer domain.Signer) error {
	m, err := l.FindMint(ctx, mint)
	if err != nil {
		return err
	}
	if signer.Address() != m.MintAuthority {
		return dErrors.New(dErrors.CodeForbidden, "signer is not the mint authority")
	}
	if err := signer.Prove(); err != nil {
		return err
	}

	account, err := l.store.FindAccount(ctx, dest)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeNotFound, "destination token account not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load token account")
	}
	if account.Mint != mint {
		return dErrors.New(dErrors.CodeInvariantViolation, "destination account holds a different mint")
	}
	if amount == 0 {
		return nil
	}

	if err := l.store.AddSupply(ctx, mint, amount); err != nil {
		return translateCreditErr(err, "failed to grow supply")
	}
	if err := l.store.Credit(ctx, dest, amount); err != nil {
		return translateCreditErr(err, "failed to credit token account")
	}
	return nil
}

// Balance returns the associated account address of owner and its balance.
// An absent account has a zero balance.
func (l *Ledger) Balance(ctx context.Context, mint, owner domain.Address) (domain.Address, uint64, error) {
	addr, err := l.AssociatedAccount(owner, mint)
	if err != nil {
		return domain.Address{}, 0, err
	}
	account, err := l.store.FindAccount(ctx, addr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return addr, 0, nil
		}
		return domain.Address{}, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load token account")
	}
	return addr, account.Amount, nil
}

func translateCreditErr(err error, msg string) error {
	if errors.Is(err, models.ErrOverflow) {
		return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "token amount would overflow")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
