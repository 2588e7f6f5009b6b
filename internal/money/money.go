// Package money converts between display amounts and the gateway's integer minor unit.
package money

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// MaxMinor is the largest charge, in minor units, a payment may ask for (100 crore rupees).
const MaxMinor int64 = 100_000_000_000

// ErrOutOfRange means an amount rounds to less than one minor unit or to more than MaxMinor.
var ErrOutOfRange = errors.New("amount out of range")

var (
	hundred  = decimal.NewFromInt(100)
	one      = decimal.NewFromInt(1)
	maxMinor = decimal.NewFromInt(MaxMinor)
)

// ToMinor converts amount to minor units (paise): amount*100 rounded to the nearest integer,
// halves away from zero. Amounts with at most two decimals convert exactly; anything finer is
// rounded and the extra precision is lost. The result wraps outside the int64 range, so
// amounts taken from clients go through CheckedMinor.
func ToMinor(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// CheckedMinor is ToMinor for amounts that will be charged: the rounded result must lie
// between 1 and MaxMinor, otherwise it fails with ErrOutOfRange.
func CheckedMinor(amount decimal.Decimal) (int64, error) {
	minor := amount.Mul(hundred).Round(0)
	if minor.LessThan(one) || minor.GreaterThan(maxMinor) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, amount.String())
	}
	return minor.IntPart(), nil
}

// FloatToMinor is CheckedMinor for float input. The float is read through its shortest
// decimal representation, so 19.99 becomes exactly 1999.
func FloatToMinor(amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("%w: %v", ErrOutOfRange, amount)
	}
	return CheckedMinor(decimal.NewFromFloat(amount))
}

// FromMinor converts minor units back to a two-decimal amount.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// IsPositiveFinite reports whether f is a positive number.
func IsPositiveFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f > 0
}

// Payable reports whether f converts to a chargeable amount.
func Payable(f float64) bool {
	_, err := FloatToMinor(f)
	return err == nil
}
