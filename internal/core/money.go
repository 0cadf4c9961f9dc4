// Package core provides money parsing and handling utilities.
//
// Amounts are fixed-point decimals so that summing many payments never
// accumulates floating-point error.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount in the congregation's currency.
type Money struct {
	Amount decimal.Decimal
}

// NewMoney builds Money from a decimal value.
func NewMoney(amount decimal.Decimal) Money {
	return Money{Amount: amount}
}

// ZeroMoney returns a zero amount.
func ZeroMoney() Money {
	return Money{Amount: decimal.Zero}
}

// MustMoney parses s and panics on failure. Intended for tests and fixtures.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseMoney converts a decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and keeps
// every fractional digit; no rounding happens at parse time. Negative and
// malformed inputs return ErrInvalidAmount. Zero is accepted here since the
// sign rule belongs to payment validation.
//
// Examples:
//
//	ParseMoney("12.34") -> 12.34, nil
//	ParseMoney("12,34") -> 12.34, nil
//	ParseMoney("-1")    -> error
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	if strings.ContainsAny(s, "eE") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return Money{Amount: d}, nil
}

// Add returns m + other with no intermediate rounding.
func (m Money) Add(other Money) Money {
	return Money{Amount: m.Amount.Add(other.Amount)}
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}

// Cmp compares two amounts: -1, 0 or +1.
func (m Money) Cmp(other Money) int {
	return m.Amount.Cmp(other.Amount)
}

func (m Money) Equal(other Money) bool {
	return m.Amount.Equal(other.Amount)
}

func (m Money) Validate() error {
	if !m.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// String formats the amount with two decimals for display.
func (m Money) String() string {
	return m.Amount.StringFixed(2)
}

func (m Money) MarshalText() ([]byte, error) {
	return []byte(m.Amount.String()), nil
}

func (m *Money) UnmarshalText(b []byte) error {
	parsed, err := ParseMoney(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalJSON emits the amount as a JSON string so clients never round it.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.Amount.String() + `"`), nil
}

// UnmarshalJSON accepts both "12.34" and 12.34.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	return m.UnmarshalText([]byte(s))
}
