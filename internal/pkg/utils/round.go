package utils

import "github.com/shopspring/decimal"

// Round rounds v half away from zero to the given number of decimal places.
// Going through decimal avoids 1.005 -> 1.00 style float artefacts.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// SafeDiv returns num/den, or 0 when den is zero.
func SafeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
