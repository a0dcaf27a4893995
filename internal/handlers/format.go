package handlers

import (
	"fmt"
	"math"
	"strconv"
)

// FormatCurrency renders a monetary value as a grouped integer with the
// currency prefix, e.g. 1234567.8 → "Rp1,234,568". The sign sits after the
// prefix, matching the metric display.
func FormatCurrency(v float64) string {
	rounded := int64(math.Round(v))

	sign := ""
	if rounded < 0 {
		sign = "-"
		rounded = -rounded
	}

	return "Rp" + sign + groupDigits(rounded)
}

// FormatPct renders a percentage with an explicit sign and two decimals,
// e.g. 50.0 → "+50.00%".
func FormatPct(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

func groupDigits(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var out []byte
	lead := len(s) % 3
	if lead > 0 {
		out = append(out, s[:lead]...)
	}
	for i := lead; i < len(s); i += 3 {
		if len(out) > 0 {
			out = append(out, ',')
		}
		out = append(out, s[i:i+3]...)
	}
	return string(out)
}
