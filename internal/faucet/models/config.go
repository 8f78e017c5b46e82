package models

import (
	"time"

	"drip/pkg/domain"
)

// Config is the faucet's singleton configuration record.
type Config struct {
	Address            domain.Address
	AttestationNetwork domain.Address
	TokenMint          domain.Address
	MintAuthorityNonce uint8
	// ExemptIdentity bypasses attestation. The zero address means unset.
	ExemptIdentity domain.Address
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsExempt reports whether identity skips attestation. The unset sentinel
// exempts nobody.
func (c *Config) IsExempt(identity domain.Address) bool {
	return !c.ExemptIdentity.IsZero() && c.ExemptIdentity == identity
}

// CanRotateExempt reports whether caller may replace the exempt identity:
// anyone while unset, otherwise only the current holder.
func (c *Config) CanRotateExempt(caller domain.Address) bool {
	return c.ExemptIdentity.IsZero() || c.ExemptIdentity == caller
}

// RotateExempt overwrites the exempt identity. The sentinel is a legal value.
func (c *Config) RotateExempt(next domain.Address, at time.Time) {
	c.ExemptIdentity = next
	c.UpdatedAt = at
}

// MintAuthority records the derivation nonce of the mint signer. Immutable.
type MintAuthority struct {
	Address domain.Address
	Nonce   uint8
}
