package domain

import (
	"bytes"

	"github.com/btcsuite/btcutil/base58"

	dErrors "drip/pkg/domain-errors"
)

// AddressLen is the byte length of every identity and record address.
const AddressLen = 32

// Address identifies a caller, a network, a token or a stored record.
// The zero Address is reserved as the "unset" sentinel and never names a caller.
type Address [AddressLen]byte

// Zero is the sentinel address (base58 "11111111111111111111111111111111").
var Zero Address

// ParseAddress decodes a base58 address.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address cannot be empty")
	}
	raw := base58.Decode(s)
	if len(raw) != AddressLen {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address must decode to 32 bytes")
	}
	var a Address
	copy(a[:], raw)
	return a, nil
}

// MustParseAddress is ParseAddress for compile-time constants.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressFromBytes copies a 32-byte slice into an Address.
func AddressFromBytes(b []byte) (Address, error) {
	if len(b) != AddressLen {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address must be 32 bytes")
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

func (a Address) String() string {
	return base58.Encode(a[:])
}

// Bytes returns a copy of the raw address bytes.
func (a Address) Bytes() []byte {
	out := make([]byte, AddressLen)
	copy(out, a[:])
	return out
}

func (a Address) IsZero() bool {
	return a == Zero
}

func (a Address) Equal(other Address) bool {
	return bytes.Equal(a[:], other[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
