// Package money converts between the decimal-string amounts used on the wire
// and the int64 minor units stored everywhere else. Balances are never floats.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
)

// ParseMinor parses a decimal string like "150.00" into minor units (15000).
// More than two fractional digits is rejected rather than rounded.
func ParseMinor(input string) (int64, error) {
	value, err := decimal.NewFromString(input)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	minor := value.Shift(2)
	if !minor.IsInteger() {
		return 0, ErrTooManyDecimals
	}
	if !minor.BigInt().IsInt64() {
		return 0, ErrInvalidAmount
	}
	return minor.IntPart(), nil
}

// FormatMinor renders minor units as a two-decimal string, e.g. 15000 -> "150.00".
func FormatMinor(value int64) string {
	return decimal.New(value, -2).StringFixed(2)
}
