// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/carledger/internal/model"
)

// Currency is the symbol FormatCost prefixes amounts with.
var Currency = "€"

// FormatCost formats a cost with the configured currency symbol.
func FormatCost(cost float64) string {
	sign := ""
	if cost < 0 {
		sign = "-"
		cost = -cost
	}
	if cost >= 1000 {
		return sign + Currency + FormatNumber(int64(math.Round(cost)))
	}
	return fmt.Sprintf("%s%s%.2f", sign, Currency, cost)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatShare formats a percentage already expressed in 0-100.
func FormatShare(pct float64) string {
	return fmt.Sprintf("%.2f%%", pct)
}

// FormatDistance formats kilometers with separators.
func FormatDistance(km int) string {
	return FormatNumber(int64(km)) + " km"
}

// FormatVolume formats liters.
func FormatVolume(l float64) string {
	return fmt.Sprintf("%.1f L", l)
}

// FormatRate formats a consumption rate, or a dash when undefined.
func FormatRate(rate *float64) string {
	if rate == nil {
		return "—"
	}
	return fmt.Sprintf("%.2f L/100km", *rate)
}

// FormatDelta formats a cost delta with sign.
func FormatDelta(current, previous float64) string {
	delta := current - previous
	if delta >= 0 {
		return "+" + FormatCost(delta)
	}
	return "-" + FormatCost(-delta)
}

// FormatRemaining formats what is left of an interval, e.g. "1,200 km" or
// "overdue 300 km". A nil value renders as a dash.
func FormatRemaining(n *int, unit string) string {
	if n == nil {
		return "—"
	}
	if *n < 0 {
		return fmt.Sprintf("overdue %s %s", FormatNumber(int64(-*n)), unit)
	}
	return fmt.Sprintf("%s %s", FormatNumber(int64(*n)), unit)
}

// FormatDate formats a timestamp as a local calendar date.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Local().Format("2006-01-02")
}

// FormatStatus returns a status label with its icon.
func FormatStatus(s model.Status) string {
	switch s {
	case model.StatusCritical:
		return "✖ " + s.String()
	case model.StatusWarning:
		return "▲ " + s.String()
	default:
		return "● " + s.String()
	}
}
