// Package arith provides the checked integer arithmetic the payment path
// requires: every addition and multiplication in a trigger is checked, and
// overflow aborts the whole operation with the program's MathOverflow
// error rather than wrapping silently.
package arith

import (
	"math/bits"

	coreerrors "ouroc/core/errors"
)

// Add returns a+b, or ErrMathOverflow if the sum would exceed math.MaxUint64.
func Add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, coreerrors.ErrMathOverflow
	}
	return sum, nil
}

// Sub returns a-b, or ErrMathOverflow if b > a.
func Sub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, coreerrors.ErrMathOverflow
	}
	return a - b, nil
}

// Mul returns a*b, or ErrMathOverflow on overflow.
func Mul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, coreerrors.ErrMathOverflow
	}
	return lo, nil
}

// MulDivFloor computes floor(a*b/d) using a 128-bit intermediate product so
// the multiplication never overflows before the division, matching the
// spec's fee = floor(amount * bps / 10_000) rule.
func MulDivFloor(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, coreerrors.ErrMathOverflow
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= d {
		return 0, coreerrors.ErrMathOverflow
	}
	quot, _ := bits.Div64(hi, lo, d)
	return quot, nil
}
