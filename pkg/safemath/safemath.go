// Package safemath provides overflow-checked arithmetic for ledger amounts.
//
// Ledger amounts are signed 64-bit integers, but products of an amount and a
// per-unit rate can exceed 64 bits. Every such product in this codebase goes
// through this package: multiply in 128-bit space, range-check, then narrow.
// Silent truncation is a correctness bug, not an edge case.
package safemath

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/mintvault/series-ledger/common/errs"
)

// MulNarrow multiplies two non-negative int64 amounts in 128-bit space and
// narrows the product back to int64. It fails if either operand is negative,
// or if the product exceeds bound (bound must be in [0, math.MaxInt64]).
func MulNarrow(a, b, bound int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, errors.Wrapf(errs.InvalidArgument, "negative operand in wide multiply: %d * %d", a, b)
	}
	if bound < 0 {
		return 0, errors.Wrapf(errs.InvalidArgument, "negative bound in wide multiply: %d", bound)
	}
	product, overflow := uint128.From64(uint64(a)).MulOverflow(uint128.From64(uint64(b)))
	if overflow {
		// unreachable for int64 operands, kept as a guard against widened callers
		return 0, errors.Wrapf(errs.OverflowInt64, "%d * %d overflows 128 bits", a, b)
	}
	if product.Cmp64(uint64(bound)) > 0 {
		return 0, errors.Wrapf(errs.OverflowInt64, "%d * %d exceeds bound %d", a, b, bound)
	}
	return int64(product.Uint64()), nil
}

// CeilMulDiv computes ceil(a * b / div) with the product held in 128 bits.
// The result rounds UP, so a nonzero raw product never collapses to zero.
// Returns zero when either operand is zero. div must be positive.
func CeilMulDiv(a, b, div int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, errors.Wrapf(errs.InvalidArgument, "negative operand in ceil multiply: %d * %d", a, b)
	}
	if div <= 0 {
		return 0, errors.Wrapf(errs.InvalidArgument, "non-positive divisor in ceil multiply: %d", div)
	}
	if a == 0 || b == 0 {
		return 0, nil
	}
	product, overflow := uint128.From64(uint64(a)).MulOverflow(uint128.From64(uint64(b)))
	if overflow {
		return 0, errors.Wrapf(errs.OverflowInt64, "%d * %d overflows 128 bits", a, b)
	}
	// ceil(p / div) == (p - 1) / div + 1 for p > 0, without floating point
	result := product.Sub64(1).Div64(uint64(div)).Add64(1)
	if result.Cmp64(math.MaxInt64) > 0 {
		return 0, errors.Wrapf(errs.OverflowInt64, "ceil(%d * %d / %d) exceeds int64", a, b, div)
	}
	return int64(result.Uint64()), nil
}

// Pow10 returns 10^precision as an int64. The largest precision that fits is
// 18 (10^18 < 2^63).
func Pow10(precision uint8) (int64, error) {
	if precision > 18 {
		return 0, errors.Wrapf(errs.InvalidArgument, "precision %d out of range [0, 18]", precision)
	}
	result := int64(1)
	for i := uint8(0); i < precision; i++ {
		result *= 10
	}
	return result, nil
}

// AddNarrow adds two int64 amounts, failing on signed overflow.
func AddNarrow(a, b int64) (int64, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, errors.Wrapf(errs.OverflowInt64, "%d + %d overflows int64", a, b)
	}
	return sum, nil
}
