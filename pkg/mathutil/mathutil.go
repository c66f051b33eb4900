// Package mathutil provides common numerical helpers for share arithmetic.
package mathutil

import (
	"math"

	"github.com/iwvelando/sector-clearing/pkg/constants"
)

// IsZero checks if a value is effectively zero (within SmallNumber)
func IsZero(val float64) bool {
	return math.Abs(val) <= constants.SmallNumber
}

// IsValidNumber reports whether val is a finite number.
func IsValidNumber(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// CalculatePercentage calculates what percentage value is of total
func CalculatePercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * constants.PercentageMultiplier
}

// CapLimitTransform converts a raw capacity limit into the effective share
// ceiling for a subsector currently holding share. Limits of one (or within
// SmallNumber of one) are returned unchanged. Below that the ceiling is a
// blend of share and limit: close to share while share is well under the
// limit, and converging on the limit as share grows past it. The ceiling is
// never below share while share is under the limit.
func CapLimitTransform(capLimit, share float64) float64 {
	if capLimit >= 1-constants.SmallNumber {
		return capLimit
	}
	if capLimit <= 0 {
		return 0
	}
	factor := math.Exp(math.Pow(constants.CapLimitTransformMultiplier*share/capLimit, constants.CapLimitTransformExponent))
	if math.IsInf(factor, 1) {
		return capLimit
	}
	return share/factor + capLimit*(factor-1)/factor
}
