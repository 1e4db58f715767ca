package period

import (
	"errors"
	"testing"
	"time"
)

var fixedNow = time.Date(2024, time.May, 15, 10, 30, 0, 0, time.UTC)

func TestResolve_RollingMonth(t *testing.T) {
	r := Resolve(Rolling(Month), fixedNow)

	want := time.Date(2024, time.April, 15, 10, 30, 0, 0, time.UTC)
	if !r.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", r.Start, want)
	}
	if !r.End.Equal(fixedNow) {
		t.Errorf("End = %v, want %v", r.End, fixedNow)
	}
}

func TestResolve_RollingWindows(t *testing.T) {
	tests := []struct {
		kind Kind
		want time.Time
	}{
		{Week, time.Date(2024, time.May, 8, 10, 30, 0, 0, time.UTC)},
		{TwoWeeks, time.Date(2024, time.May, 1, 10, 30, 0, 0, time.UTC)},
		{ThreeMonths, time.Date(2024, time.February, 15, 10, 30, 0, 0, time.UTC)},
		{SixMonths, time.Date(2023, time.November, 15, 10, 30, 0, 0, time.UTC)},
		{Year, time.Date(2023, time.May, 15, 10, 30, 0, 0, time.UTC)},
		{AllTime, time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		r := Resolve(Rolling(tt.kind), fixedNow)
		if !r.Start.Equal(tt.want) {
			t.Errorf("%s: Start = %v, want %v", Rolling(tt.kind), r.Start, tt.want)
		}
		if !r.End.Equal(fixedNow) {
			t.Errorf("%s: End = %v, want now", Rolling(tt.kind), r.End)
		}
	}
}

func TestResolve_CalendarMonth(t *testing.T) {
	r := Resolve(ForMonth(2024, time.March), fixedNow)

	if y, m, d := r.Start.Date(); y != 2024 || m != time.March || d != 1 {
		t.Errorf("Start = %v, want 2024-03-01", r.Start)
	}
	if r.Start.Hour() != 0 || r.Start.Minute() != 0 {
		t.Errorf("Start = %v, want midnight", r.Start)
	}
	if y, m, d := r.End.Date(); y != 2024 || m != time.March || d != 31 {
		t.Errorf("End = %v, want 2024-03-31", r.End)
	}

	lastEvening := time.Date(2024, time.March, 31, 22, 0, 0, 0, time.UTC)
	if !r.Contains(lastEvening) {
		t.Error("range should include the evening of the last day")
	}
	if !r.Contains(r.Start) || !r.Contains(r.End) {
		t.Error("range bounds should be inclusive")
	}
	if r.Contains(time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("range should exclude the next month")
	}
}

func TestResolve_FebruaryLeapYear(t *testing.T) {
	r := Resolve(ForMonth(2024, time.February), fixedNow)
	if d := r.End.Day(); d != 29 {
		t.Errorf("End day = %d, want 29", d)
	}
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		in   string
		want Window
	}{
		{"week", Rolling(Week)},
		{"2w", Rolling(TwoWeeks)},
		{"Month", Rolling(Month)},
		{"3m", Rolling(ThreeMonths)},
		{"6-months", Rolling(SixMonths)},
		{"1y", Rolling(Year)},
		{"all-time", Rolling(AllTime)},
		{"2024-03", ForMonth(2024, time.March)},
	}
	for _, tt := range tests {
		got, err := ParseWindow(tt.in)
		if err != nil {
			t.Errorf("ParseWindow(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseWindow(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseWindow_Invalid(t *testing.T) {
	for _, in := range []string{"", "fortnight", "2024-13", "24-03"} {
		if _, err := ParseWindow(in); !errors.Is(err, ErrInvalidWindow) {
			t.Errorf("ParseWindow(%q) err = %v, want ErrInvalidWindow", in, err)
		}
	}
}

func TestWindowString_RoundTrip(t *testing.T) {
	for _, name := range Names() {
		w, err := ParseWindow(name)
		if err != nil {
			t.Fatalf("ParseWindow(%q): %v", name, err)
		}
		if w.String() != name {
			t.Errorf("String() = %q, want %q", w.String(), name)
		}
	}
	if s := ForMonth(2024, time.March).String(); s != "2024-03" {
		t.Errorf("String() = %q, want 2024-03", s)
	}
}

func TestPrevious(t *testing.T) {
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

	w, anchor, ok := Previous(Rolling(Month), now)
	if !ok || w.Kind != Month {
		t.Fatalf("Previous(month) = %+v, %v", w, ok)
	}
	r := Resolve(w, anchor)
	if want := time.Date(2024, time.April, 15, 12, 0, 0, 0, time.UTC); !r.Start.Equal(want) {
		t.Errorf("previous month starts %v, want %v", r.Start, want)
	}

	w, _, ok = Previous(ForMonth(2024, time.January), now)
	if !ok || w.Year != 2023 || w.Month != time.December {
		t.Errorf("Previous(2024-01) = %+v, want 2023-12", w)
	}

	if _, _, ok := Previous(Rolling(AllTime), now); ok {
		t.Error("all time should have no previous window")
	}
}
