// Package core provides money parsing and handling utilities.
//
// Amounts are kept as exact decimals and rendered with two fractional digits,
// which is the precision of every amount written to the record store.
package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// maxAmountLength bounds the raw input handed to the decimal parser.
const maxAmountLength = 32

// amountPattern is a plain decimal after normalisation. No exponent forms:
// rounding 1e100000000 to cents materialises every digit.
var amountPattern = regexp.MustCompile(`^[+-]?[0-9]+(\.[0-9]+)?$`)

// MaxAmount is the exclusive upper bound of any amount, matching the
// NUMERIC(14, 2) column of the SQL stores.
var MaxAmount = MoneyFromCents(100_000_000_000_000)

// Money is an exact currency amount.
type Money struct {
	d decimal.Decimal
}

// NewMoney wraps an existing decimal value.
func NewMoney(d decimal.Decimal) Money {
	return Money{d: d}
}

// MoneyFromCents builds an amount from an integer number of cents.
func MoneyFromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -2)}
}

// ParseAmount converts user input to a positive amount rounded to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. Signs are rejected, as are values
// that round to zero.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,5")   -> 12.50
//	ParseAmount("12.345") -> 12.35
func ParseAmount(s string) (Money, error) {
	s = normalizeAmount(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	d, err := parseDecimal(s)
	if err != nil {
		return Money{}, err
	}
	m := Money{d: d.Round(2)}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// ParseStoredAmount parses an amount cell read back from a store. Unlike
// ParseAmount it accepts signed and zero values, since rows edited by hand
// may carry refunds or placeholders. The magnitude is still bounded by
// MaxAmount.
func ParseStoredAmount(s string) (Money, error) {
	d, err := parseDecimal(normalizeAmount(s))
	if err != nil {
		return Money{}, err
	}
	m := Money{d: d.Round(2)}
	if err := m.checkBound(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// parseDecimal accepts only short plain decimals.
func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" || len(s) > maxAmountLength || !amountPattern.MatchString(s) {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return d, nil
}

func normalizeAmount(s string) string {
	s = strings.TrimSpace(s)
	return strings.ReplaceAll(s, ",", ".")
}

// Validate reports whether the amount is strictly positive and below MaxAmount.
func (m Money) Validate() error {
	if !m.d.IsPositive() {
		return ErrInvalidAmount
	}
	return m.checkBound()
}

func (m Money) checkBound() error {
	if m.d.Abs().GreaterThanOrEqual(MaxAmount.d) {
		return fmt.Errorf("%w: must be below %s", ErrInvalidAmount, MaxAmount)
	}
	return nil
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{d: m.d.Add(o.d)}
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.d.IsZero()
}

// Equal compares two amounts by value.
func (m Money) Equal(o Money) bool {
	return m.d.Equal(o.d)
}

// Decimal exposes the underlying decimal value.
func (m Money) Decimal() decimal.Decimal {
	return m.d
}

// Cents returns the amount in integer cents.
func (m Money) Cents() int64 {
	return m.d.Shift(2).Round(0).IntPart()
}

// String renders the amount with exactly two decimals.
func (m Money) String() string {
	return m.d.StringFixed(2)
}
