package domain

import (
	"crypto/sha256"

	"filippo.io/edwards25519"

	dErrors "drip/pkg/domain-errors"
)

const (
	// MaxSeedLen bounds a single derivation seed.
	MaxSeedLen = 32
	// MaxSeeds bounds the seed list, nonce included.
	MaxSeeds = 16
)

var derivationMarker = []byte("ProgramDerivedAddress")

// CreateProgramAddress hashes seeds under program into a record address.
// Digests that decode to a valid ed25519 point are rejected: such an address
// could have a private key, so nobody could prove it is key-less.
func CreateProgramAddress(seeds [][]byte, program Address) (Address, error) {
	if len(seeds) > MaxSeeds {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "too many derivation seeds")
	}
	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return Address{}, dErrors.New(dErrors.CodeInvalidInput, "derivation seed exceeds 32 bytes")
		}
		h.Write(seed)
	}
	h.Write(program[:])
	h.Write(derivationMarker)

	var out Address
	copy(out[:], h.Sum(nil))
	if IsOnCurve(out) {
		return Address{}, dErrors.New(dErrors.CodeInvariantViolation, "derived address lies on the ed25519 curve")
	}
	return out, nil
}

// FindProgramAddress searches nonces from 255 down and returns the first
// off-curve address with the nonce that produced it. The nonce is appended as
// the final seed, so len(seeds) must leave room for it.
func FindProgramAddress(seeds [][]byte, program Address) (Address, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return Address{}, 0, dErrors.New(dErrors.CodeInvalidInput, "too many derivation seeds")
	}
	candidate := make([][]byte, len(seeds)+1)
	copy(candidate, seeds)
	for nonce := 255; nonce >= 0; nonce-- {
		candidate[len(seeds)] = []byte{byte(nonce)}
		addr, err := CreateProgramAddress(candidate, program)
		if err == nil {
			return addr, uint8(nonce), nil
		}
		if !dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return Address{}, 0, err
		}
	}
	return Address{}, 0, dErrors.New(dErrors.CodeInternal, "no viable derivation nonce")
}

// IsOnCurve reports whether a decodes to a point on edwards25519.
func IsOnCurve(a Address) bool {
	_, err := new(edwards25519.Point).SetBytes(a[:])
	return err == nil
}
