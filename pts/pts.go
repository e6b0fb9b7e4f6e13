// Package pts holds presentation timestamp helpers.
package pts

import (
	"fmt"
	"math"
)

// None marks an unknown timestamp.
const None = -9.223372036854775808e18

// Valid reports whether p carries a real timestamp.
func Valid(p float64) bool {
	return p != None && !math.IsNaN(p)
}

// Or returns p when valid, otherwise fallback.
func Or(p, fallback float64) float64 {
	if Valid(p) {
		return p
	}
	return fallback
}

// Format renders seconds as hh:mm:ss, appending hundredths when fractions is set.
// Unknown timestamps render as "??:??:??".
func Format(p float64, fractions bool) string {
	if !Valid(p) {
		return "??:??:??"
	}

	sign := ""
	if p < 0 {
		sign = "-"
		p = -p
	}

	total := int64(p)
	h, m, s := total/3600, (total/60)%60, total%60
	if !fractions {
		return fmt.Sprintf("%s%02d:%02d:%02d", sign, h, m, s)
	}

	frac := int64((p - float64(total)) * 100)
	return fmt.Sprintf("%s%02d:%02d:%02d.%02d", sign, h, m, s, frac)
}
