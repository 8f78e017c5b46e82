package domain

import (
	dErrors "drip/pkg/domain-errors"
)

// Signer is the signing capability of a derived address. It holds no private
// key: authority is proven by re-deriving the address from its seeds and the
// stored nonce under the owning program.
type Signer struct {
	seeds   [][]byte
	nonce   uint8
	program Address
	address Address
}

// NewSigner builds the capability for the address derived from seeds and nonce.
// It fails when the combination does not yield an off-curve address.
func NewSigner(program Address, nonce uint8, seeds ...[]byte) (Signer, error) {
	addr, err := CreateProgramAddress(withNonce(seeds, nonce), program)
	if err != nil {
		return Signer{}, err
	}
	copied := make([][]byte, len(seeds))
	for i, s := range seeds {
		copied[i] = append([]byte(nil), s...)
	}
	return Signer{seeds: copied, nonce: nonce, program: program, address: addr}, nil
}

// Address is the identity the signer acts as.
func (s Signer) Address() Address { return s.address }

// Nonce is the derivation bump.
func (s Signer) Nonce() uint8 { return s.nonce }

// Program is the program the address was derived under.
func (s Signer) Program() Address { return s.program }

// Prove re-derives the address and reports whether it still matches.
func (s Signer) Prove() error {
	if s.address.IsZero() {
		return dErrors.New(dErrors.CodeForbidden, "signer capability is empty")
	}
	addr, err := CreateProgramAddress(withNonce(s.seeds, s.nonce), s.program)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeForbidden, "signer derivation failed")
	}
	if addr != s.address {
		return dErrors.New(dErrors.CodeForbidden, "signer derivation does not match address")
	}
	return nil
}

func withNonce(seeds [][]byte, nonce uint8) [][]byte {
	out := make([][]byte, 0, len(seeds)+1)
	out = append(out, seeds...)
	return append(out, []byte{nonce})
}
