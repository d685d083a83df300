package recurrence

import (
	"github.com/planora-hq/planora/internal/civil"
)

// Expand generates the ordered dates of a series. The first date is always
// start verbatim; each subsequent date steps by the rule's day interval.
// Dates strictly ascend, so nothing before start can ever be produced.
func Expand(start civil.Date, rule Rule, period Period) ([]civil.Date, error) {
	if rule.Unit == Once {
		return []civil.Date{start}, nil
	}

	total, err := Count(rule, period)
	if err != nil {
		return nil, err
	}
	interval := rule.IntervalDays()

	dates := make([]civil.Date, 0, total)
	d := start
	for i := 0; i < total; i++ {
		dates = append(dates, d)
		d = d.AddDays(interval)
	}
	return dates, nil
}
