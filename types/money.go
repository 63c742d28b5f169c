// Package types provides common value types used across the Sardis core.
package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value as an arbitrary-precision fixed-point
// decimal, always carrying its currency code. All arithmetic goes through
// shopspring/decimal — there is no floating point anywhere in the balance
// math, and amounts are never truncated to an integer-cents representation,
// which is what lets a single Money type hold both a sub-cent agent
// micropayment and a nine-figure settlement balance.
//
// Examples:
//   - USDC("49.50") = 49.50 USDC
//   - Zero("usdc") = 0 USDC
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"` // lowercase asset code: "usdc", "usd", ...
}

// displayScale is the number of fractional digits Money is rendered to by
// String(). The underlying decimal.Decimal retains full precision
// regardless of this value.
const displayScale = 6

// New creates a Money value from a decimal amount and currency code.
func New(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: strings.ToLower(currency)}
}

// FromString parses a decimal string amount in the given currency.
func FromString(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("types: parse money amount %q: %w", amount, err)
	}
	return New(d, currency), nil
}

// MustFromString is like FromString but panics on error. Use for hardcoded
// literals in tests and constants.
func MustFromString(amount, currency string) Money {
	m, err := FromString(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// FromInt creates a Money value from a whole-unit integer amount.
func FromInt(units int64, currency string) Money {
	return New(decimal.NewFromInt(units), currency)
}

// Zero returns a zero Money value in the specified currency.
func Zero(currency string) Money {
	return Money{Amount: decimal.Zero, Currency: strings.ToLower(currency)}
}

// USDC is a convenience constructor for the platform's default settlement
// asset.
func USDC(amount string) Money {
	return MustFromString(amount, "usdc")
}

// Arithmetic operations. All panic on currency mismatch: mixing currencies
// in ledger math is always a programming error, never a condition to
// recover from at runtime.

// Add adds two Money values. Panics if currencies don't match.
func (m Money) Add(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}
}

// Subtract subtracts another Money value. Panics if currencies don't match.
func (m Money) Subtract(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}
}

// Multiply multiplies the Money by an integer quantity.
func (m Money) Multiply(qty int64) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(qty)), Currency: m.Currency}
}

// MultiplyRate multiplies the Money by an arbitrary decimal rate (e.g. a
// fee percentage), rounding the result to displayScale fractional digits.
func (m Money) MultiplyRate(rate decimal.Decimal) Money {
	return Money{Amount: m.Amount.Mul(rate).Round(displayScale), Currency: m.Currency}
}

// Divide divides the Money by an integer divisor. Panics on division by zero.
func (m Money) Divide(divisor int64) Money {
	if divisor == 0 {
		panic("types: money division by zero")
	}
	return Money{Amount: m.Amount.Div(decimal.NewFromInt(divisor)), Currency: m.Currency}
}

// Negate returns the negative of the Money value.
func (m Money) Negate() Money {
	return Money{Amount: m.Amount.Neg(), Currency: m.Currency}
}

// Abs returns the absolute value.
func (m Money) Abs() Money {
	return Money{Amount: m.Amount.Abs(), Currency: m.Currency}
}

// Comparison methods

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool { return m.Amount.IsZero() }

// IsPositive returns true if the amount is greater than zero.
func (m Money) IsPositive() bool { return m.Amount.IsPositive() }

// IsNegative returns true if the amount is less than zero.
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }

// Equal returns true if both Money values are equal (same amount and currency).
func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

// LessThan returns true if this Money is less than other. Panics if
// currencies don't match.
func (m Money) LessThan(other Money) bool {
	m.assertSameCurrency(other)
	return m.Amount.LessThan(other.Amount)
}

// GreaterThan returns true if this Money is greater than other. Panics if
// currencies don't match.
func (m Money) GreaterThan(other Money) bool {
	m.assertSameCurrency(other)
	return m.Amount.GreaterThan(other.Amount)
}

// GreaterThanOrEqual returns true if this Money is >= other. Panics if
// currencies don't match.
func (m Money) GreaterThanOrEqual(other Money) bool {
	m.assertSameCurrency(other)
	return m.Amount.GreaterThanOrEqual(other.Amount)
}

// Min returns the smaller of two Money values. Panics if currencies don't match.
func (m Money) Min(other Money) Money {
	m.assertSameCurrency(other)
	if m.Amount.LessThan(other.Amount) {
		return m
	}
	return other
}

// Max returns the larger of two Money values. Panics if currencies don't match.
func (m Money) Max(other Money) Money {
	m.assertSameCurrency(other)
	if m.Amount.GreaterThan(other.Amount) {
		return m
	}
	return other
}

// Formatting methods

// FormatMajor returns the amount as a fixed-point decimal string at
// displayScale fractional digits, without a currency symbol or code.
func (m Money) FormatMajor() string {
	return m.Amount.StringFixed(displayScale)
}

// String returns "<amount> <currency>", e.g. "49.500000 usdc".
func (m Money) String() string {
	return m.FormatMajor() + " " + m.Currency
}

// MarshalJSON implements json.Marshaler, encoding the amount as a decimal
// string so precision survives the JSON round trip — Money is never
// marshaled as a JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	}{
		Amount:   m.Amount.String(),
		Currency: m.Currency,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d, err := decimal.NewFromString(raw.Amount)
	if err != nil {
		return fmt.Errorf("types: decode money amount %q: %w", raw.Amount, err)
	}
	m.Amount = d
	m.Currency = raw.Currency
	return nil
}

// Value implements driver.Valuer, storing the canonical decimal string so
// the database column never loses precision.
func (m Money) Value() (driver.Value, error) {
	return m.Amount.String(), nil
}

// Helper functions

// assertSameCurrency panics if currencies don't match.
func (m Money) assertSameCurrency(other Money) {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("types: money currency mismatch: %s != %s", m.Currency, other.Currency))
	}
}

// Sum calculates the sum of multiple Money values. All must share one
// currency. Returns a zero Money in "usdc" for an empty list.
func Sum(values ...Money) Money {
	if len(values) == 0 {
		return Zero("usdc")
	}

	result := values[0]
	for i := 1; i < len(values); i++ {
		result = result.Add(values[i])
	}
	return result
}
