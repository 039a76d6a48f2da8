package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Currency represents an ISO 4217 currency code
type Currency string

// LKR is the only currency the storefront prices in.
const LKR Currency = "LKR"

// minorUnits is the number of decimal places for LKR
const minorUnits = 2

var multiplier = math.Pow(10, minorUnits)

// Money represents an amount of rupees in minor units (cents)
type Money struct {
	AmountMinor int64    `json:"amount_minor"`
	Currency    Currency `json:"currency"`
}

// New creates a new Money value from minor units
func New(amountMinor int64) Money {
	return Money{AmountMinor: amountMinor, Currency: LKR}
}

// ErrOutOfRange is returned when an amount does not fit in int64 minor units.
var ErrOutOfRange = errors.New("amount out of range")

// FromMajor creates Money from major units (rupees), rounding to the nearest
// cent. NaN and infinities are zero; other amounts beyond the int64 range
// clamp to its bounds.
func FromMajor(amountMajor float64) Money {
	if math.IsNaN(amountMajor) || math.IsInf(amountMajor, 0) {
		return Zero()
	}
	m, err := ParseMajor(amountMajor)
	if err != nil {
		return saturate(amountMajor > 0)
	}
	return m
}

// ParseMajor is FromMajor that rejects non-finite amounts and amounts beyond
// the int64 range.
func ParseMajor(amountMajor float64) (Money, error) {
	v := math.Round(amountMajor * multiplier)
	if math.IsNaN(v) || v >= maxMinorFloat || v < -maxMinorFloat {
		return Zero(), fmt.Errorf("%v: %w", amountMajor, ErrOutOfRange)
	}
	return New(int64(v)), nil
}

// 2^63, the first float64 past math.MaxInt64
const maxMinorFloat = float64(1 << 63)

// Zero returns a zero amount
func Zero() Money {
	return New(0)
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.AmountMinor == 0
}

// Add adds two money values, saturating at the int64 bounds.
func (m Money) Add(other Money) Money {
	sum, err := m.CheckedAdd(other)
	if err != nil {
		return saturate(other.AmountMinor > 0)
	}
	return sum
}

// CheckedAdd adds two money values and fails instead of wrapping.
func (m Money) CheckedAdd(other Money) (Money, error) {
	a, b := m.AmountMinor, other.AmountMinor
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return Zero(), fmt.Errorf("adding %d and %d: %w", a, b, ErrOutOfRange)
	}
	return New(sum), nil
}

// Sub subtracts other from m, saturating at the int64 bounds.
func (m Money) Sub(other Money) Money {
	a, b := m.AmountMinor, other.AmountMinor
	diff := a - b
	if (b > 0 && diff > a) || (b < 0 && diff < a) {
		return saturate(b < 0)
	}
	return New(diff)
}

// Multiply multiplies by an integer, saturating at the int64 bounds.
func (m Money) Multiply(factor int64) Money {
	p, err := m.CheckedMultiply(factor)
	if err != nil {
		return saturate((m.AmountMinor < 0) == (factor < 0))
	}
	return p
}

// CheckedMultiply multiplies by an integer and fails instead of wrapping.
func (m Money) CheckedMultiply(factor int64) (Money, error) {
	a := m.AmountMinor
	if a == 0 || factor == 0 {
		return Zero(), nil
	}
	p := a * factor
	if p/factor != a || (a == -1 && factor == math.MinInt64) || (factor == -1 && a == math.MinInt64) {
		return Zero(), fmt.Errorf("multiplying %d by %d: %w", a, factor, ErrOutOfRange)
	}
	return New(p), nil
}

func saturate(positive bool) Money {
	if positive {
		return New(math.MaxInt64)
	}
	return New(math.MinInt64)
}

// NonNegative clamps negative amounts to zero
func (m Money) NonNegative() Money {
	if m.AmountMinor < 0 {
		return Zero()
	}
	return New(m.AmountMinor)
}

// GreaterThan checks if m > other
func (m Money) GreaterThan(other Money) bool {
	return m.AmountMinor > other.AmountMinor
}

// ToMajor converts to major units as float
func (m Money) ToMajor() float64 {
	return float64(m.AmountMinor) / multiplier
}

// String returns a human-readable representation, e.g. "Rs. 8,250.00"
func (m Money) String() string {
	sign := ""
	amount := uint64(m.AmountMinor)
	if m.AmountMinor < 0 {
		sign = "-"
		amount = -amount
	}
	whole := strconv.FormatUint(amount/uint64(multiplier), 10)
	cents := amount % uint64(multiplier)

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%sRs. %s.%02d", sign, b.String(), cents)
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	currency := m.Currency
	if currency == "" {
		currency = LKR
	}
	return json.Marshal(struct {
		AmountMinor int64   `json:"amount_minor"`
		Amount      float64 `json:"amount"`
		Currency    string  `json:"currency"`
	}{
		AmountMinor: m.AmountMinor,
		Amount:      m.ToMajor(),
		Currency:    string(currency),
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (m *Money) UnmarshalJSON(data []byte) error {
	var v struct {
		AmountMinor int64  `json:"amount_minor"`
		Currency    string `json:"currency"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	m.AmountMinor = v.AmountMinor
	m.Currency = Currency(v.Currency)
	if m.Currency == "" {
		m.Currency = LKR
	}
	return nil
}

// Sum adds up multiple money values, saturating at the int64 bounds.
func Sum(amounts ...Money) Money {
	total := Zero()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Max returns the larger of two amounts
func Max(a, b Money) Money {
	if a.GreaterThan(b) {
		return a
	}
	return b
}
