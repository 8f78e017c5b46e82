package models

import (
	"time"

	"drip/pkg/domain"
)

// User is a registry entry: one per registered identity.
type User struct {
	Address   domain.Address
	Authority domain.Address
	// LastClaimedAt is unix seconds of the last minting claim, 0 before the first.
	LastClaimedAt int64
	CreatedAt     time.Time
}

// NewUser builds a fresh entry that has never claimed.
func NewUser(addr, authority domain.Address, at time.Time) *User {
	return &User{Address: addr, Authority: authority, CreatedAt: at}
}

// Elapsed returns seconds since the last claim, never negative.
func (u *User) Elapsed(now int64) int64 {
	return max(0, now-u.LastClaimedAt)
}

// CooldownRemaining returns how many seconds must still pass before a claim.
func (u *User) CooldownRemaining(now int64) int64 {
	return max(0, CooldownSeconds-u.Elapsed(now))
}

// NextEligibleAt is the earliest unix second a claim can pass the cooldown.
func (u *User) NextEligibleAt() int64 {
	return u.LastClaimedAt + CooldownSeconds
}

// RecordClaim advances LastClaimedAt. It never moves backwards.
func (u *User) RecordClaim(now int64) {
	if now > u.LastClaimedAt {
		u.LastClaimedAt = now
	}
}
