package domain

import (
	"fmt"
	"math"
)

// RoundCents rounds an amount to whole cents.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatUSD renders an amount the way it is shown to users, e.g. "$2.99".
func FormatUSD(v float64) string {
	return fmt.Sprintf("$%.2f", RoundCents(v))
}
