// Package core provides the domain types shared by storage, services and the
// HTTP layer.
//
// This file contains money parsing. Values are held as integer cents; the
// textual form always carries exactly two fraction digits.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// ValueScale is the number of fraction digits an expense value keeps.
	ValueScale = 2
	// ValueMaxDigits is the total number of digits an expense value may hold.
	ValueMaxDigits = 10
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrAmountTooLarge = errors.New("amount has too many digits")
	ErrAmountScale    = errors.New("amount has more than two decimal places")
	ErrAmountPositive = errors.New("amount must be positive")

	maxValue = decimal.New(1, ValueMaxDigits-ValueScale)
)

// Money is an amount in cents.
type Money struct {
	Cents int64
}

// Decimal returns the amount as a decimal with two fraction digits.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -ValueScale)
}

// String formats the amount as "42.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(ValueScale)
}

// ParseMoney parses an expense value.
//
// The value must be positive, carry at most two significant fraction digits
// and fit in ten digits overall. Both "12.5" and "12.50" are accepted.
func ParseMoney(s string) (Money, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return Money{}, err
	}
	if !d.Equal(d.Round(ValueScale)) {
		return Money{}, ErrAmountScale
	}
	if d.Abs().GreaterThanOrEqual(maxValue) {
		return Money{}, ErrAmountTooLarge
	}
	if !d.IsPositive() {
		return Money{}, ErrAmountPositive
	}
	return Money{Cents: d.Shift(ValueScale).IntPart()}, nil
}

// ParseLowerBound parses a minimum-value filter into the smallest cent amount
// satisfying value >= s. Zero and negative bounds are allowed.
func ParseLowerBound(s string) (int64, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return 0, err
	}
	return clampCents(d.Shift(ValueScale).Ceil()), nil
}

// ParseUpperBound parses a maximum-value filter into the largest cent amount
// satisfying value <= s.
func ParseUpperBound(s string) (int64, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return 0, err
	}
	return clampCents(d.Shift(ValueScale).Floor()), nil
}

// clampCents keeps filter bounds inside the storable range so IntPart never
// overflows; any bound outside it already matches everything or nothing.
func clampCents(cents decimal.Decimal) int64 {
	limit := maxValue.Shift(ValueScale)
	if cents.GreaterThan(limit) {
		return limit.IntPart()
	}
	if cents.LessThan(limit.Neg()) {
		return limit.Neg().IntPart()
	}
	return cents.IntPart()
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return d, nil
}
