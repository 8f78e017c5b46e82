package models

import (
	"math"

	"github.com/holiman/uint256"
)

// Accrue returns elapsed*rate clamped to math.MaxUint64 and whether the clamp
// applied. Negative elapsed accrues nothing.
func Accrue(elapsed int64, rate uint64) (amount uint64, clamped bool) {
	if elapsed <= 0 || rate == 0 {
		return 0, false
	}
	product := new(uint256.Int).Mul(uint256.NewInt(uint64(elapsed)), uint256.NewInt(rate))
	if !product.IsUint64() {
		return math.MaxUint64, true
	}
	return product.Uint64(), false
}
