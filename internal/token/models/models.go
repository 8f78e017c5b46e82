// Package models holds the token ledger records: mints and the accounts that
// hold their balances.
package models

import (
	"errors"
	"math"
	"time"

	"drip/pkg/domain"
)

// ErrOverflow is returned when a credit would exceed the uint64 range.
var ErrOverflow = errors.New("token amount overflow")

// Mint is a fungible token definition.
type Mint struct {
	Address       domain.Address
	Decimals      uint8
	Supply        uint64
	MintAuthority domain.Address
	CreatedAt     time.Time
}

// CanMint reports whether supply can grow by amount without overflow.
func (m *Mint) CanMint(amount uint64) bool {
	return m.Supply <= math.MaxUint64-amount
}

// Account holds one owner's balance of one mint.
type Account struct {
	Address   domain.Address
	Mint      domain.Address
	Owner     domain.Address
	Amount    uint64
	CreatedAt time.Time
}

// Credit adds amount to the balance, refusing to wrap.
func (a *Account) Credit(amount uint64) error {
	if a.Amount > math.MaxUint64-amount {
		return ErrOverflow
	}
	a.Amount += amount
	return nil
}
