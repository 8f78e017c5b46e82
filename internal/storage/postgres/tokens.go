package postgres

import (
	"context"
	"errors"
	"fmt"

	platformpg "drip/internal/platform/postgres"
	"drip/internal/token/models"
	"drip/pkg/domain"
	"drip/pkg/platform/sentinel"
)

// maxAmount is the largest value a NUMERIC(20,0) amount column may hold.
const maxAmount = "18446744073709551615"

func (s *Store) CreateMint(ctx context.Context, mint *models.Mint) error {
	query := `
		INSERT INTO token_mints (address, decimals, supply, mint_authority, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (address) DO NOTHING
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		mint.Address.String(),
		int16(mint.Decimals),
		formatAmount(mint.Supply),
		mint.MintAuthority.String(),
		mint.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create mint: %w", err)
	}
	return requireInserted(res)
}

func (s *Store) FindMint(ctx context.Context, address domain.Address) (*models.Mint, error) {
	query := `
		SELECT address, decimals, supply::TEXT, mint_authority, created_at
		FROM token_mints WHERE address = $1
	`
	var (
		out      models.Mint
		decimals int16
	)
	err := s.execer(ctx).QueryRowContext(ctx, query, address.String()).
		Scan(addr(&out.Address), &decimals, amount(&out.Supply), addr(&out.MintAuthority), &out.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	out.Decimals = uint8(decimals)
	return &out, nil
}

// AddSupply grows supply in place. The guard keeps the column within uint64;
// a miss is either an absent mint or an overflow.
func (s *Store) AddSupply(ctx context.Context, address domain.Address, amt uint64) error {
	query := `
		UPDATE token_mints SET supply = supply + $2::NUMERIC
		WHERE address = $1 AND supply + $2::NUMERIC <= ` + maxAmount + `::NUMERIC
	`
	res, err := s.execer(ctx).ExecContext(ctx, query, address.String(), formatAmount(amt))
	if err != nil {
		return fmt.Errorf("add supply: %w", err)
	}
	if err := requireAffected(res); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return s.missReason(ctx, `SELECT 1 FROM token_mints WHERE address = $1`, address)
		}
		return err
	}
	return nil
}

func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO token_accounts (address, mint, owner, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (address) DO NOTHING
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		account.Address.String(),
		account.Mint.String(),
		account.Owner.String(),
		formatAmount(account.Amount),
		account.CreatedAt,
	)
	if err != nil {
		if platformpg.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("create token account: %w", err)
	}
	return requireInserted(res)
}

func (s *Store) FindAccount(ctx context.Context, address domain.Address) (*models.Account, error) {
	query := `
		SELECT address, mint, owner, amount::TEXT, created_at
		FROM token_accounts WHERE address = $1
	`
	var out models.Account
	err := s.execer(ctx).QueryRowContext(ctx, query, address.String()).
		Scan(addr(&out.Address), addr(&out.Mint), addr(&out.Owner), amount(&out.Amount), &out.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

func (s *Store) Credit(ctx context.Context, address domain.Address, amt uint64) error {
	query := `
		UPDATE token_accounts SET amount = amount + $2::NUMERIC
		WHERE address = $1 AND amount + $2::NUMERIC <= ` + maxAmount + `::NUMERIC
	`
	res, err := s.execer(ctx).ExecContext(ctx, query, address.String(), formatAmount(amt))
	if err != nil {
		return fmt.Errorf("credit token account: %w", err)
	}
	if err := requireAffected(res); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return s.missReason(ctx, `SELECT 1 FROM token_accounts WHERE address = $1`, address)
		}
		return err
	}
	return nil
}

// missReason tells an absent row from a guarded overflow after an UPDATE miss.
func (s *Store) missReason(ctx context.Context, query string, address domain.Address) error {
	var one int
	if err := s.execer(ctx).QueryRowContext(ctx, query, address.String()).Scan(&one); err != nil {
		return notFound(err)
	}
	return models.ErrOverflow
}
