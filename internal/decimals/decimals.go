// Package decimals centralizes the decimal arithmetic conventions used for
// share quantities and percentages. Quantities and money are never handled
// as binary floats; percentages are rounded half-up to six places.
package decimals

import (
	"github.com/shopspring/decimal"

	apperrors "captable/internal/errors"
)

// PercentPlaces is the number of fractional digits stored for percentages.
const PercentPlaces = 6

var hundred = decimal.NewFromInt(100)

// Percent computes part/whole*100 rounded to PercentPlaces.
// Returns zero when whole is zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(PercentPlaces)
}

// RoundPercent applies the canonical percentage rounding.
func RoundPercent(d decimal.Decimal) decimal.Decimal {
	return d.Round(PercentPlaces)
}

// IsWhole reports whether d has no fractional component.
func IsWhole(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(0))
}

// Parse converts an exact decimal string into a decimal value,
// returning an invalid-input error on malformed text.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid decimal value: "+s)
	}
	return d, nil
}

// ParsePositive parses a decimal string and requires it to be strictly positive.
func ParsePositive(s string) (decimal.Decimal, error) {
	d, err := Parse(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, apperrors.WithMessage(apperrors.ErrInvalidInput, "value must be greater than zero")
	}
	return d, nil
}
