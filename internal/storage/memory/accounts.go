package memory

import (
	"context"

	"drip/internal/faucet/models"
	"drip/pkg/domain"
	"drip/pkg/platform/sentinel"
)

// CreateConfig stores the singleton config record.
func (s *Store) CreateConfig(ctx context.Context, cfg *models.Config) error {
	return s.stage(ctx, func(j *journal) error {
		if _, ok := s.configs[cfg.Address]; ok {
			return sentinel.ErrAlreadyUsed
		}
		if _, ok := j.configs[cfg.Address]; ok {
			return sentinel.ErrAlreadyUsed
		}
		j.configs[cfg.Address] = *cfg
		j.configCreates[cfg.Address] = true
		return nil
	})
}

// FindConfig returns a copy of the config at addr.
func (s *Store) FindConfig(ctx context.Context, addr domain.Address) (*models.Config, error) {
	var (
		out models.Config
		ok  bool
	)
	s.read(ctx, func(j *journal) {
		if j != nil {
			if out, ok = j.configs[addr]; ok {
				return
			}
		}
		out, ok = s.configs[addr]
	})
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &out, nil
}

// FindConfigForUpdate is FindConfig; exclusivity comes from the tx lock key.
func (s *Store) FindConfigForUpdate(ctx context.Context, addr domain.Address) (*models.Config, error) {
	return s.FindConfig(ctx, addr)
}

// UpdateConfig overwrites an existing config record.
func (s *Store) UpdateConfig(ctx context.Context, cfg *models.Config) error {
	return s.stage(ctx, func(j *journal) error {
		_, inBase := s.configs[cfg.Address]
		_, inJournal := j.configs[cfg.Address]
		if !inBase && !inJournal {
			return sentinel.ErrNotFound
		}
		j.configs[cfg.Address] = *cfg
		return nil
	})
}

// CreateMintAuthority stores the immutable mint authority record.
func (s *Store) CreateMintAuthority(ctx context.Context, auth *models.MintAuthority) error {
	return s.stage(ctx, func(j *journal) error {
		if _, ok := s.authorities[auth.Address]; ok {
			return sentinel.ErrAlreadyUsed
		}
		if _, ok := j.authorities[auth.Address]; ok {
			return sentinel.ErrAlreadyUsed
		}
		j.authorities[auth.Address] = *auth
		return nil
	})
}

func (s *Store) FindMintAuthority(ctx context.Context, addr domain.Address) (*models.MintAuthority, error) {
	var (
		out models.MintAuthority
		ok  bool
	)
	s.read(ctx, func(j *journal) {
		if j != nil {
			if out, ok = j.authorities[addr]; ok {
				return
			}
		}
		out, ok = s.authorities[addr]
	})
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &out, nil
}

// CreateUser stores a new registry entry.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.stage(ctx, func(j *journal) error {
		if _, ok := s.users[user.Address]; ok {
			return sentinel.ErrAlreadyUsed
		}
		if _, ok := j.users[user.Address]; ok {
			return sentinel.ErrAlreadyUsed
		}
		j.users[user.Address] = *user
		j.userCreates[user.Address] = true
		return nil
	})
}

func (s *Store) FindUser(ctx context.Context, addr domain.Address) (*models.User, error) {
	var (
		out models.User
		ok  bool
	)
	s.read(ctx, func(j *journal) {
		if j != nil {
			if out, ok = j.users[addr]; ok {
				return
			}
		}
		out, ok = s.users[addr]
	})
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &out, nil
}

// FindUserForUpdate is FindUser; exclusivity comes from the tx lock key.
func (s *Store) FindUserForUpdate(ctx context.Context, addr domain.Address) (*models.User, error) {
	return s.FindUser(ctx, addr)
}

// UpdateUser overwrites an existing registry entry.
func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	return s.stage(ctx, func(j *journal) error {
		_, inBase := s.users[user.Address]
		_, inJournal := j.users[user.Address]
		if !inBase && !inJournal {
			return sentinel.ErrNotFound
		}
		j.users[user.Address] = *user
		return nil
	})
}
