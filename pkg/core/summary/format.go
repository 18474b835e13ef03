package summary

import (
	"fmt"
	"strconv"
)

// Display formatting for card key metrics. Absent figures render as "N/A",
// never as a zero that could be mistaken for data.

func formatBillions(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("$%.1fB", *v/1e9)
}

func formatMillions(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("$%.1fM", *v/1e6)
}

func formatDollars(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("$%.2f", *v)
}

// formatShares renders a share count with thousands separators.
func formatShares(shares int64) string {
	s := strconv.FormatInt(shares, 10)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
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
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
