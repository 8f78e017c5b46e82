package models

import "drip/pkg/domain"

var (
	// DefaultTokenProgram owns mints and token accounts.
	DefaultTokenProgram = domain.MustParseAddress("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
	// DefaultAssociatedTokenProgram derives the canonical account per (owner, mint).
	DefaultAssociatedTokenProgram = domain.MustParseAddress("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
)

// AssociatedAccountAddress derives the canonical token account of owner for mint.
func AssociatedAccountAddress(owner, mint, tokenProgram, associatedProgram domain.Address) (domain.Address, error) {
	addr, _, err := domain.FindProgramAddress(
		[][]byte{owner.Bytes(), tokenProgram.Bytes(), mint.Bytes()},
		associatedProgram,
	)
	return addr, err
}
