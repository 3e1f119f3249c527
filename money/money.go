// Package money converts between major and minor currency units.
//
// Every currency is assumed to have two decimal places (INR, USD). Zero- and
// three-decimal currencies are not handled.
package money

import (
	"math"

	"github.com/shopspring/decimal"
)

// MinorUnitFactor is the number of minor units in one major unit.
const MinorUnitFactor = 100

var (
	factor   = decimal.NewFromInt(MinorUnitFactor)
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// ToMinor converts a major-unit amount to minor units, rounding half away
// from zero. ok is false for NaN, infinities and results outside int64.
func ToMinor(major float64) (minor int64, ok bool) {
	if math.IsNaN(major) || math.IsInf(major, 0) {
		return 0, false
	}
	m := decimal.NewFromFloat(major).Mul(factor).Round(0)
	if m.GreaterThan(maxMinor) || m.LessThan(minMinor) {
		return 0, false
	}
	return m.IntPart(), true
}

// ToMajor converts a minor-unit amount back to major units.
func ToMajor(minor int64) float64 {
	return decimal.New(minor, -2).InexactFloat64()
}
