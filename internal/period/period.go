// Package period resolves requested time windows to concrete date ranges.
package period

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidWindow is returned by ParseWindow for unrecognized input.
var ErrInvalidWindow = errors.New("invalid time window")

// Kind identifies a rolling window or a specific calendar month.
type Kind int

// Window kinds.
const (
	Week Kind = iota
	TwoWeeks
	Month
	ThreeMonths
	SixMonths
	Year
	AllTime
	CalendarMonth
)

// Window is a requested time window. Year and Month are only meaningful
// for CalendarMonth.
type Window struct {
	Kind  Kind
	Year  int
	Month time.Month
}

// Range is a resolved window, inclusive on both ends.
type Range struct {
	Start time.Time
	End   time.Time
}

var kindNames = map[Kind]string{
	Week:        "week",
	TwoWeeks:    "two-weeks",
	Month:       "month",
	ThreeMonths: "3-months",
	SixMonths:   "6-months",
	Year:        "year",
	AllTime:     "all",
}

var aliases = map[string]Kind{
	"week":      Week,
	"7d":        Week,
	"1w":        Week,
	"two-weeks": TwoWeeks,
	"2w":        TwoWeeks,
	"14d":       TwoWeeks,
	"month":     Month,
	"1m":        Month,
	"3-months":  ThreeMonths,
	"3m":        ThreeMonths,
	"6-months":  SixMonths,
	"6m":        SixMonths,
	"year":      Year,
	"1y":        Year,
	"all":       AllTime,
	"all-time":  AllTime,
}

// Names lists the canonical rolling window names in display order.
func Names() []string {
	return []string{"week", "two-weeks", "month", "3-months", "6-months", "year", "all"}
}

// Rolling returns a rolling window of the given kind.
func Rolling(k Kind) Window {
	return Window{Kind: k}
}

// ForMonth returns the window covering one calendar month.
func ForMonth(year int, month time.Month) Window {
	return Window{Kind: CalendarMonth, Year: year, Month: month}
}

// ParseWindow parses a window name, a short alias, or a "YYYY-MM" month.
func ParseWindow(s string) (Window, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if k, ok := aliases[s]; ok {
		return Rolling(k), nil
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Window{}, fmt.Errorf("%w: %q", ErrInvalidWindow, s)
	}
	return ForMonth(t.Year(), t.Month()), nil
}

func (w Window) String() string {
	if w.Kind == CalendarMonth {
		return fmt.Sprintf("%04d-%02d", w.Year, int(w.Month))
	}
	if name, ok := kindNames[w.Kind]; ok {
		return name
	}
	return "unknown"
}

// Label returns a human-readable title for the window.
func (w Window) Label() string {
	switch w.Kind {
	case Week:
		return "Last 7d"
	case TwoWeeks:
		return "Last 14d"
	case Month:
		return "Last month"
	case ThreeMonths:
		return "Last 3 months"
	case SixMonths:
		return "Last 6 months"
	case Year:
		return "Last year"
	case AllTime:
		return "All time"
	case CalendarMonth:
		return time.Date(w.Year, w.Month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
	}
	return w.String()
}

// AllTimeStart is the sentinel start of the all-time window.
func AllTimeStart(loc *time.Location) time.Time {
	return time.Date(2000, time.January, 1, 0, 0, 0, 0, loc)
}

// Resolve maps a window to a concrete range anchored at now.
func Resolve(w Window, now time.Time) Range {
	switch w.Kind {
	case Week:
		return Range{Start: now.AddDate(0, 0, -7), End: now}
	case TwoWeeks:
		return Range{Start: now.AddDate(0, 0, -14), End: now}
	case Month:
		return Range{Start: now.AddDate(0, -1, 0), End: now}
	case ThreeMonths:
		return Range{Start: now.AddDate(0, -3, 0), End: now}
	case SixMonths:
		return Range{Start: now.AddDate(0, -6, 0), End: now}
	case Year:
		return Range{Start: now.AddDate(-1, 0, 0), End: now}
	case CalendarMonth:
		start := time.Date(w.Year, w.Month, 1, 0, 0, 0, 0, now.Location())
		// Last nanosecond of the final day keeps the inclusive filter whole-day.
		end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
		return Range{Start: start, End: end}
	default:
		return Range{Start: AllTimeStart(now.Location()), End: now}
	}
}

// Contains reports whether t falls within the range, inclusive.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Days returns the number of whole days spanned by the range.
func (r Range) Days() int {
	return int(r.End.Sub(r.Start).Hours() / 24)
}

// Previous returns the window immediately before w and the anchor to resolve
// it at, for period-over-period comparison. All time has no predecessor.
func Previous(w Window, now time.Time) (Window, time.Time, bool) {
	switch w.Kind {
	case AllTime:
		return Window{}, time.Time{}, false
	case CalendarMonth:
		prev := time.Date(w.Year, w.Month, 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
		return ForMonth(prev.Year(), prev.Month()), now, true
	default:
		return w, Resolve(w, now).Start, true
	}
}
