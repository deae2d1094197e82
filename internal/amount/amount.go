// Package amount rescales bridged asset amounts between the coordinator's
// 256-bit fixed-point representation and the native chain's 32-bit one.
package amount

import (
	"errors"

	"github.com/holiman/uint256"
)

var (
	// ErrLossyTruncation is returned when downscaling would drop a
	// nonzero remainder.
	ErrLossyTruncation = errors.New("amount: lossy truncation")
	// ErrOverflow is returned when the rescaled quotient does not fit
	// in a uint32.
	ErrOverflow = errors.New("amount: overflow")
)

// ValidateAmount downscales amount from decimalsIn to decimalsOut and
// returns the result as a uint32. decimalsIn must be >= decimalsOut;
// upscaling is not supported and is a programmer error in the caller, not
// a runtime condition this function recovers from.
func ValidateAmount(value *uint256.Int, decimalsIn, decimalsOut uint8) (uint32, error) {
	if decimalsIn < decimalsOut {
		panic("amount: decimalsIn is less than decimalsOut, scaling up is not supported")
	}

	scaled := value
	if decimalsIn != decimalsOut {
		divisor := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(decimalsIn-decimalsOut)))
		quotient, remainder := new(uint256.Int), new(uint256.Int)
		quotient.DivMod(value, divisor, remainder)
		if !remainder.IsZero() {
			return 0, ErrLossyTruncation
		}
		scaled = quotient
	}

	if !scaled.IsUint64() || scaled.Uint64() > ^uint32(0) {
		return 0, ErrOverflow
	}
	return uint32(scaled.Uint64()), nil
}
