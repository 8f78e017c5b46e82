package postgres

import (
	"context"
	"fmt"

	"drip/internal/faucet/models"
	"drip/pkg/domain"
	"drip/pkg/platform/sentinel"
)

const configColumns = `address, attestation_network, token_mint, mint_authority_nonce, exempt_identity, created_at, updated_at`

func (s *Store) CreateConfig(ctx context.Context, cfg *models.Config) error {
	query := `
		INSERT INTO faucet_configs (` + configColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (address) DO NOTHING
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		cfg.Address.String(),
		cfg.AttestationNetwork.String(),
		cfg.TokenMint.String(),
		int16(cfg.MintAuthorityNonce),
		cfg.ExemptIdentity.String(),
		cfg.CreatedAt,
		cfg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	return requireInserted(res)
}

func (s *Store) FindConfig(ctx context.Context, address domain.Address) (*models.Config, error) {
	return s.findConfig(ctx, address, "")
}

func (s *Store) FindConfigForUpdate(ctx context.Context, address domain.Address) (*models.Config, error) {
	return s.findConfig(ctx, address, " FOR UPDATE")
}

func (s *Store) findConfig(ctx context.Context, address domain.Address, lock string) (*models.Config, error) {
	query := `SELECT ` + configColumns + ` FROM faucet_configs WHERE address = $1` + lock
	cfg, err := scanConfig(s.execer(ctx).QueryRowContext(ctx, query, address.String()))
	if err != nil {
		return nil, notFound(err)
	}
	return cfg, nil
}

func (s *Store) UpdateConfig(ctx context.Context, cfg *models.Config) error {
	query := `
		UPDATE faucet_configs
		SET exempt_identity = $2, attestation_network = $3, updated_at = $4
		WHERE address = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		cfg.Address.String(),
		cfg.ExemptIdentity.String(),
		cfg.AttestationNetwork.String(),
		cfg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update config: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) CreateMintAuthority(ctx context.Context, auth *models.MintAuthority) error {
	query := `
		INSERT INTO mint_authorities (address, nonce)
		VALUES ($1, $2)
		ON CONFLICT (address) DO NOTHING
	`
	res, err := s.execer(ctx).ExecContext(ctx, query, auth.Address.String(), int16(auth.Nonce))
	if err != nil {
		return fmt.Errorf("create mint authority: %w", err)
	}
	return requireInserted(res)
}

func (s *Store) FindMintAuthority(ctx context.Context, address domain.Address) (*models.MintAuthority, error) {
	var (
		out   models.MintAuthority
		nonce int16
	)
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT address, nonce FROM mint_authorities WHERE address = $1`,
		address.String(),
	).Scan(addr(&out.Address), &nonce)
	if err != nil {
		return nil, notFound(err)
	}
	out.Nonce = uint8(nonce)
	return &out, nil
}

const userColumns = `address, authority, last_claimed_at, created_at`

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO faucet_users (` + userColumns + `)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (address) DO NOTHING
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		user.Address.String(),
		user.Authority.String(),
		user.LastClaimedAt,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return requireInserted(res)
}

func (s *Store) FindUser(ctx context.Context, address domain.Address) (*models.User, error) {
	return s.findUser(ctx, address, "")
}

func (s *Store) FindUserForUpdate(ctx context.Context, address domain.Address) (*models.User, error) {
	return s.findUser(ctx, address, " FOR UPDATE")
}

func (s *Store) findUser(ctx context.Context, address domain.Address, lock string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM faucet_users WHERE address = $1` + lock
	var out models.User
	err := s.execer(ctx).QueryRowContext(ctx, query, address.String()).
		Scan(addr(&out.Address), addr(&out.Authority), &out.LastClaimedAt, &out.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &out, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE faucet_users SET last_claimed_at = $2 WHERE address = $1`,
		user.Address.String(),
		user.LastClaimedAt,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return requireAffected(res)
}

func scanConfig(row rowScanner) (*models.Config, error) {
	var (
		cfg   models.Config
		nonce int16
	)
	err := row.Scan(
		addr(&cfg.Address),
		addr(&cfg.AttestationNetwork),
		addr(&cfg.TokenMint),
		&nonce,
		addr(&cfg.ExemptIdentity),
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	cfg.MintAuthorityNonce = uint8(nonce)
	return &cfg, nil
}

type rowsAffected interface {
	RowsAffected() (int64, error)
}

// requireInserted maps an ON CONFLICT DO NOTHING miss to ErrAlreadyUsed.
func requireInserted(res rowsAffected) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func requireAffected(res rowsAffected) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
