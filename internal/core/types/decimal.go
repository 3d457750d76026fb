// Package types provides money and rate helpers shared by pricing code.
package types

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Rounding happens only when a value is presented (PDF, words, JSON views).
type Money = decimal.Decimal

// Rate is a percentage, e.g. 17 means 17%.
type Rate = decimal.Decimal

// PresentationPlaces is the number of fractional digits shown to users.
const PresentationPlaces int32 = 2

// Stored scales: amounts are NUMERIC(15,2), rates NUMERIC(7,4).
const (
	MoneyPlaces int32 = 2
	RatePlaces  int32 = 4
)

var (
	hundred = decimal.NewFromInt(100)

	// maxRate is the first percentage NUMERIC(7,4) cannot hold.
	maxRate = decimal.NewFromInt(1000)
)

// HasPlaces reports whether d needs no more than places fractional digits.
// Trailing zeros do not count: 10.500 has two places.
func HasPlaces(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// ValidMoney reports whether m is storable without rounding.
func ValidMoney(m Money) bool {
	return HasPlaces(m, MoneyPlaces)
}

// ValidRate reports whether r is storable without rounding or overflow.
func ValidRate(r Rate) bool {
	return HasPlaces(r, RatePlaces) && r.Abs().LessThan(maxRate)
}

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromInt creates a Money value from whole units.
func NewMoneyFromInt(v int64) Money {
	return decimal.NewFromInt(v)
}

// NewMoneyFromString creates a Money value from a string.
// Blank input is zero, matching optional charge fields on the forms.
func NewMoneyFromString(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d, nil
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// PercentOf returns rate% of base.
func PercentOf(base Money, rate Rate) Money {
	return base.Mul(rate).Div(hundred)
}

// FloorZero clamps negative values to zero.
func FloorZero(m Money) Money {
	if m.IsNegative() {
		return decimal.Zero
	}
	return m
}

// Present rounds half away from zero to two places and renders a fixed string.
func Present(m Money) string {
	return m.StringFixed(PresentationPlaces)
}
