// Package conflict detects booking collisions on a staff member's calendar.
package conflict

import (
	"time"

	"github.com/planora-hq/planora/internal/civil"
	"github.com/planora-hq/planora/internal/model"
	"github.com/planora-hq/planora/internal/timeutil"
)

// Clock is "now" as the detector sees it: the current calendar day plus the
// minute of that day. Passing it explicitly keeps detection pure and
// deterministic under test.
type Clock struct {
	Today  civil.Date
	Minute int
}

func ClockAt(t time.Time) Clock {
	return Clock{
		Today:  civil.DateOf(t),
		Minute: t.Hour()*60 + t.Minute(),
	}
}

// Find returns the first existing appointment whose [start,end) interval
// overlaps the candidate for the same staff member and date, or nil.
// Iteration follows the insertion order of existing, so with multiple
// collisions the earliest-stored one is reported. excludeID skips the
// candidate's own record when rescheduling. Appointments dated before
// today, or already finished today, are historical and never conflict.
func Find(existing []model.Appointment, staffID string, date civil.Date, start, end string, excludeID string, now Clock) *model.Appointment {
	newStart, err := timeutil.Minutes(start)
	if err != nil {
		return nil
	}
	newEnd, err := timeutil.Minutes(end)
	if err != nil {
		return nil
	}

	for i := range existing {
		appt := &existing[i]
		if appt.ID == excludeID && excludeID != "" {
			continue
		}
		if appt.StaffID != staffID || !appt.Date.Equal(date) {
			continue
		}
		if isHistorical(appt, now) {
			continue
		}

		exStart, err := timeutil.Minutes(appt.Start)
		if err != nil {
			continue
		}
		exEnd, err := timeutil.Minutes(appt.End)
		if err != nil {
			continue
		}
		// Half-open intervals: touching boundaries do not overlap.
		if newStart < exEnd && exStart < newEnd {
			return appt
		}
	}
	return nil
}

func isHistorical(appt *model.Appointment, now Clock) bool {
	if appt.Date.Before(now.Today) {
		return true
	}
	if !appt.Date.Equal(now.Today) {
		return false
	}
	end, err := timeutil.Minutes(appt.End)
	if err != nil {
		return false
	}
	return end <= now.Minute
}
