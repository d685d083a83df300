// Package recurrence expands a booking's repetition rule into the ordered
// list of calendar dates a series occupies. Expansion is pure: filtering
// past dates is the materializer's job.
package recurrence

import (
	"fmt"
	"strings"
)

// Unit is the repetition pattern of a series.
type Unit int

const (
	Once Unit = iota
	Day
	Week
	Month
)

func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "once", "one-off", "regular":
		return Once, nil
	case "day", "daily":
		return Day, nil
	case "week", "weekly":
		return Week, nil
	case "month", "monthly":
		return Month, nil
	}
	return Once, fmt.Errorf("unknown recurrence unit %q", s)
}

func (u Unit) String() string {
	switch u {
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	default:
		return "once"
	}
}

// Rule is "every Every Units" (e.g. {Week, 2} is every 2 weeks). Every is
// treated as 1 when it is zero or negative, and ignored entirely for Once.
type Rule struct {
	Unit  Unit
	Every int
}

func (r Rule) every() int {
	if r.Every < 1 {
		return 1
	}
	return r.Every
}

// IntervalDays is the gap between generated dates. Months are a flat 30 days
// here; the series generator is deliberately not calendar-aware.
func (r Rule) IntervalDays() int {
	switch r.Unit {
	case Day:
		return r.every()
	case Week:
		return r.every() * 7
	case Month:
		return r.every() * 30
	default:
		return 0
	}
}

// Period bounds the total span of a recurring series.
type Period string

const (
	OneWeek         Period = "1 Week"
	TwoWeeks        Period = "2 Weeks"
	OneMonth        Period = "1 Month"
	OneMonthAndHalf Period = "1.5 Months"
	TwoMonths       Period = "2 Months"
	ThreeMonths     Period = "3 Months"
	SixMonths       Period = "6 Months"
	OneYear         Period = "1 Year"
)

func ParsePeriod(s string) (Period, error) {
	p := Period(strings.TrimSpace(s))
	switch strings.ToLower(string(p)) {
	case "1 week":
		return OneWeek, nil
	case "2 weeks":
		return TwoWeeks, nil
	case "1 month":
		return OneMonth, nil
	case "1.5 months":
		return OneMonthAndHalf, nil
	case "2 months":
		return TwoMonths, nil
	case "3 months":
		return ThreeMonths, nil
	case "6 months":
		return SixMonths, nil
	case "1 year":
		return OneYear, nil
	}
	return "", fmt.Errorf("unknown duration period %q", s)
}

// seriesCounts maps (unit, period) to the total number of appointments for
// an "every 1 unit" rule. These are fixed product constants, not derived
// ratios: note "1.5 Months" of weekly appointments is 6, not 6.52, and
// "3 Months" is 13. Do not replace entries with arithmetic.
var seriesCounts = map[Unit]map[Period]int{
	Day: {
		OneWeek:         7,
		TwoWeeks:        14,
		OneMonth:        30,
		OneMonthAndHalf: 45,
		TwoMonths:       60,
		ThreeMonths:     90,
		SixMonths:       180,
		OneYear:         365,
	},
	Week: {
		OneWeek:         1,
		TwoWeeks:        2,
		OneMonth:        4,
		OneMonthAndHalf: 6,
		TwoMonths:       8,
		ThreeMonths:     13,
		SixMonths:       26,
		OneYear:         52,
	},
	Month: {
		OneWeek:         1,
		TwoWeeks:        1,
		OneMonth:        1,
		OneMonthAndHalf: 2,
		TwoMonths:       2,
		ThreeMonths:     3,
		SixMonths:       6,
		OneYear:         12,
	},
}

// Count returns the total number of appointments for the rule over the
// period. For "every N" rules with N > 1 the base count divides down,
// never below one.
func Count(r Rule, p Period) (int, error) {
	if r.Unit == Once {
		return 1, nil
	}
	counts, ok := seriesCounts[r.Unit]
	if !ok {
		return 0, fmt.Errorf("unknown recurrence unit %d", r.Unit)
	}
	n, ok := counts[p]
	if !ok {
		return 0, fmt.Errorf("unknown duration period %q", p)
	}
	n /= r.every()
	if n < 1 {
		n = 1
	}
	return n, nil
}
