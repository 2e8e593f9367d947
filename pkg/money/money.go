package money

import "math"

// Round2 rounds x to 2 decimal places (round half away from zero on cents).
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Equal2 reports whether a and b are equal within the cent rounding
// tolerance used across fiscal totals.
func Equal2(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}
