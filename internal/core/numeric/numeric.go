// internal/core/numeric/numeric.go

// Package numeric converts the loosely formatted monetary values found in
// GST filings ("₹3,58,42,919.18", with lakh/crore grouping) into floats.
package numeric

import (
	"fmt"
	"strconv"
	"strings"
)

var currencyReplacer = strings.NewReplacer("₹", "", "Rs.", "", "Rs", "", ",", "")

// SafeNumber converts a value of unknown shape to a float64. A cell that
// cannot be parsed normalizes to 0.0; a single bad cell must never abort a
// multi-sheet extraction.
func SafeNumber(value interface{}) float64 {
	if value == nil {
		return 0.0
	}
	s := strings.TrimSpace(fmt.Sprint(value))
	if s == "" {
		return 0.0
	}
	s = strings.TrimSpace(currencyReplacer.Replace(s))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0.0
	}
	return f
}
