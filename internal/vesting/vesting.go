// Package vesting computes vested share quantities for option grants with
// a cliff followed by linear monthly vesting.
package vesting

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// MonthsElapsed returns the number of whole calendar months between from
// and now. Negative spans return 0.
func MonthsElapsed(from, now time.Time) int {
	if now.Before(from) {
		return 0
	}
	months := (now.Year()-from.Year())*12 + int(now.Month()) - int(from.Month())
	// Not a full month yet if the day-of-month hasn't been reached.
	if now.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// Vested returns the vested quantity of a grant at the given time.
//
// Before the cliff nothing vests. At the cliff, cliffPct percent of the
// quantity vests at once; the remainder vests linearly over the months
// between the cliff and the end of the vesting period. The result never
// exceeds quantity.
func Vested(quantity decimal.Decimal, grantDate time.Time, cliffMonths, vestingMonths int, cliffPct decimal.Decimal, now time.Time) decimal.Decimal {
	elapsed := MonthsElapsed(grantDate, now)

	if elapsed < cliffMonths {
		return decimal.Zero
	}
	if elapsed >= vestingMonths {
		return quantity
	}

	cliffAmount := quantity.Mul(cliffPct).Div(hundred)
	remaining := quantity.Sub(cliffAmount)
	linearMonths := vestingMonths - cliffMonths
	vested := cliffAmount.Add(
		remaining.Mul(decimal.NewFromInt(int64(elapsed - cliffMonths))).
			Div(decimal.NewFromInt(int64(linearMonths))),
	)

	if vested.GreaterThan(quantity) {
		return quantity
	}
	return vested
}

// VestedUnexercised returns max(vested - exercised, 0).
func VestedUnexercised(vested, exercised decimal.Decimal) decimal.Decimal {
	diff := vested.Sub(exercised)
	if diff.IsNegative() {
		return decimal.Zero
	}
	return diff
}

// Unvested returns the quantity that has not vested yet.
func Unvested(quantity, vested decimal.Decimal) decimal.Decimal {
	return quantity.Sub(vested)
}
