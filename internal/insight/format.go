package insight

import (
	"fmt"
	"math"
	"strconv"
)

// Monetary and percentage formatting shared by every generated narrative.
// Amounts render in thousands ("$3000k") or millions ("$1.2M"); confidence
// and weight values render as rounded integer percentages.

func fmtThousands(amount float64) string {
	return fmt.Sprintf("$%.0fk", amount/1000)
}

func fmtMillions(amount float64) string {
	return fmt.Sprintf("$%.1fM", amount/1000000)
}

// pct converts a probability in [0,1] to a rounded integer percentage.
func pct(p float64) int {
	return int(math.Round(p * 100))
}

// groupInt renders n with comma grouping, e.g. 14200 -> "14,200".
func groupInt(n int) string {
	s := strconv.Itoa(n)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		return "-" + s
	}
	return s
}
