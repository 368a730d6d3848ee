// Package money provides decimal amount helpers for escrow payments.
//
// Invariants:
//   - Amounts are decimals with two fractional digits once rounded.
//   - Provider calls always receive integer minor units (cents).
package money

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits of every persisted amount.
const Scale = 2

var hundred = decimal.NewFromInt(100)

// Round2 rounds half away from zero to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Parse reads a decimal amount and rejects negatives.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return Round2(d), nil
}

// MinorUnits converts an amount to integer cents for the payment provider.
func MinorUnits(d decimal.Decimal) (int64, error) {
	if d.IsNegative() {
		return 0, ErrNegativeAmount
	}
	cents := d.Mul(hundred).Round(0)
	if cents.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, ErrAmountExceedsMaxSafeInt
	}
	return cents.IntPart(), nil
}

// FromMinorUnits converts provider cents back to a decimal amount.
func FromMinorUnits(cents int64) decimal.Decimal {
	return decimal.New(cents, -Scale)
}

// Format renders an amount with exactly two decimals, e.g. "940.00".
func Format(d decimal.Decimal) string {
	return d.StringFixed(Scale)
}
