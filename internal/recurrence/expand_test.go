package recurrence

import (
	"testing"

	"github.com/planora-hq/planora/internal/civil"
)

func date(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return d
}

func TestExpandOneOff(t *testing.T) {
	start := date(t, "2025-01-06")
	// A one-off returns exactly the start date regardless of period.
	for _, p := range []Period{OneWeek, OneMonth, SixMonths, OneYear} {
		dates, err := Expand(start, Rule{Unit: Once}, p)
		if err != nil {
			t.Fatalf("expand: %v", err)
		}
		if len(dates) != 1 || !dates[0].Equal(start) {
			t.Fatalf("period %s: expected [%s], got %v", p, start, dates)
		}
	}
}

func TestExpandWeeklyOneMonth(t *testing.T) {
	dates, err := Expand(date(t, "2025-01-06"), Rule{Unit: Week, Every: 1}, OneMonth)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	want := []string{"2025-01-06", "2025-01-13", "2025-01-20", "2025-01-27"}
	if len(dates) != len(want) {
		t.Fatalf("expected %d dates, got %d (%v)", len(want), len(dates), dates)
	}
	for i, w := range want {
		if dates[i].String() != w {
			t.Fatalf("date %d: expected %s, got %s", i, w, dates[i])
		}
	}
}

func TestExpandDailyOneWeek(t *testing.T) {
	start := date(t, "2025-01-06")
	dates, err := Expand(start, Rule{Unit: Day, Every: 1}, OneWeek)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if len(dates) != 7 {
		t.Fatalf("expected 7 dates, got %d", len(dates))
	}
	for i, d := range dates {
		if want := start.AddDays(i); !d.Equal(want) {
			t.Fatalf("date %d: expected %s, got %s", i, want, d)
		}
	}
}

func TestExpandFirstDateIsStartVerbatim(t *testing.T) {
	// Month-end starts must not drift a day through any conversion.
	for _, s := range []string{"2025-01-31", "2024-02-29", "2025-12-31"} {
		start := date(t, s)
		dates, err := Expand(start, Rule{Unit: Week, Every: 1}, TwoWeeks)
		if err != nil {
			t.Fatalf("expand: %v", err)
		}
		if !dates[0].Equal(start) {
			t.Fatalf("first date: expected %s, got %s", start, dates[0])
		}
	}
}

func TestExpandStrictlyIncreasing(t *testing.T) {
	rules := []struct {
		rule   Rule
		period Period
	}{
		{Rule{Unit: Day, Every: 1}, OneMonth},
		{Rule{Unit: Day, Every: 3}, ThreeMonths},
		{Rule{Unit: Week, Every: 1}, OneYear},
		{Rule{Unit: Week, Every: 2}, SixMonths},
		{Rule{Unit: Month, Every: 1}, OneYear},
	}
	start := date(t, "2025-01-06")
	for _, c := range rules {
		dates, err := Expand(start, c.rule, c.period)
		if err != nil {
			t.Fatalf("expand %v/%s: %v", c.rule, c.period, err)
		}
		if len(dates) == 0 {
			t.Fatalf("expand %v/%s: empty", c.rule, c.period)
		}
		for i := 1; i < len(dates); i++ {
			if !dates[i-1].Before(dates[i]) {
				t.Fatalf("%v/%s: dates not strictly increasing at %d: %s >= %s",
					c.rule, c.period, i, dates[i-1], dates[i])
			}
		}
	}
}

func TestSeriesCountTable(t *testing.T) {
	cases := []struct {
		rule   Rule
		period Period
		count  int
	}{
		{Rule{Unit: Day, Every: 1}, OneWeek, 7},
		{Rule{Unit: Day, Every: 1}, OneMonth, 30},
		{Rule{Unit: Day, Every: 1}, OneYear, 365},
		{Rule{Unit: Week, Every: 1}, OneMonth, 4},
		// The table's non-linear entries: fixed product constants.
		{Rule{Unit: Week, Every: 1}, OneMonthAndHalf, 6},
		{Rule{Unit: Week, Every: 1}, ThreeMonths, 13},
		{Rule{Unit: Week, Every: 1}, SixMonths, 26},
		{Rule{Unit: Week, Every: 1}, OneYear, 52},
		{Rule{Unit: Month, Every: 1}, OneMonthAndHalf, 2},
		{Rule{Unit: Month, Every: 1}, SixMonths, 6},
		{Rule{Unit: Month, Every: 1}, OneYear, 12},
		// The count never drops below one.
		{Rule{Unit: Month, Every: 1}, OneWeek, 1},
		{Rule{Unit: Month, Every: 6}, OneMonth, 1},
		// "Every N" divides the base count down.
		{Rule{Unit: Week, Every: 2}, OneMonth, 2},
		{Rule{Unit: Day, Every: 2}, OneWeek, 3},
	}
	for _, c := range cases {
		n, err := Count(c.rule, c.period)
		if err != nil {
			t.Fatalf("count %v/%s: %v", c.rule, c.period, err)
		}
		if n != c.count {
			t.Fatalf("count %v/%s: expected %d, got %d", c.rule, c.period, c.count, n)
		}
	}
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("1.5 months")
	if err != nil || p != OneMonthAndHalf {
		t.Fatalf("expected 1.5 Months, got %q err=%v", p, err)
	}
	if _, err := ParsePeriod("fortnight"); err == nil {
		t.Fatal("expected error for unknown period")
	}
}

func TestParseUnit(t *testing.T) {
	for in, want := range map[string]Unit{
		"once": Once, "regular": Once, "": Once,
		"day": Day, "weekly": Week, "Month": Month,
	} {
		u, err := ParseUnit(in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if u != want {
			t.Fatalf("%q: expected %v, got %v", in, want, u)
		}
	}
	if _, err := ParseUnit("fortnightly"); err == nil {
		t.Fatal("expected error for unknown unit")
	}
}
