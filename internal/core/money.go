// Package core holds the domain model shared by the aggregation engine and
// the receipt extraction pipeline.
//
// Money is kept in integer cents so aggregation sums never accumulate
// floating-point drift; amounts only become floats at the output boundary,
// where two decimal places is all the precision currency display needs.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Money is a non-directional monetary magnitude in cents. Direction comes
// from the transaction type; derived values such as net amounts may be
// negative.
type Money struct {
	Cents int64
}

// ParseAmountToCents converts a decimal string to cents with half-up
// rounding on the third decimal place. Zero is accepted (extraction drafts
// default to it); signs are rejected.
//
// Examples:
//
//	ParseAmountToCents("12.34")  -> 1234, nil
//	ParseAmountToCents("12.345") -> 1234, nil (rounds down)
//	ParseAmountToCents("12.346") -> 1235, nil (rounds up)
func ParseAmountToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take the first two fractional digits, then half-up on the third.
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// MoneyFromFloat converts a non-negative float amount to cents.
func MoneyFromFloat(v float64) (Money, error) {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: int64(math.Round(v * 100))}, nil
}

// Validate enforces the creation policy: stored amounts must be positive.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Float returns the display value. Use cents for calculations.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(m.Cents)/100.0, 'f', -1, 64)), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	s := string(b)
	if strings.HasPrefix(s, `"`) {
		// Amounts cross the wire as JSON numbers, never strings.
		return ErrInvalidAmount
	}
	cents, err := ParseAmountToCents(s)
	if err != nil {
		return err
	}
	m.Cents = cents
	return nil
}
