// Package schedule turns an expanded recurrence into concrete appointment
// records, enforcing the batch conflict policy.
package schedule

import (
	"github.com/google/uuid"

	"github.com/planora-hq/planora/internal/civil"
	"github.com/planora-hq/planora/internal/conflict"
	"github.com/planora-hq/planora/internal/model"
	"github.com/planora-hq/planora/internal/timeutil"
)

// Booking is the user's in-progress selection: who, what, and when a series
// should start each day. It is never persisted.
type Booking struct {
	StaffID         string
	ClientID        string
	ClientName      string
	ServiceID       string
	ServiceName     string
	Start           string // "HH:MM"
	DurationMinutes int
}

// Result reports what a materialization produced. Skips are expected
// outcomes, not errors; Conflict is the one condition the caller must
// surface.
type Result struct {
	Created []model.Appointment
	// Conflict is the existing appointment that blocked the batch. When it
	// is set, Created is empty: a recurring series is never partially
	// persisted.
	Conflict       *model.Appointment
	PastSkips      int
	DuplicateSkips int
}

// Materialize walks the expanded dates in order and builds the batch.
// Per date: dates before today are dropped, exact duplicates of an existing
// appointment are dropped, and the first overlap aborts the entire batch.
// The function is pure apart from id generation; nothing is persisted here.
func Materialize(dates []civil.Date, b Booking, existing []model.Appointment, now conflict.Clock) (Result, error) {
	end, err := timeutil.EndOf(b.Start, b.DurationMinutes)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, d := range dates {
		if d.Before(now.Today) {
			res.PastSkips++
			continue
		}
		if hasDuplicate(existing, b, d) {
			res.DuplicateSkips++
			continue
		}

		// The batch built so far counts as existing: two generated dates can
		// never collide with each other, but the check keeps the invariant
		// local instead of relying on that.
		pool := append(existing, res.Created...)
		if c := conflict.Find(pool, b.StaffID, d, b.Start, end, "", now); c != nil {
			return Result{Conflict: c, PastSkips: res.PastSkips, DuplicateSkips: res.DuplicateSkips}, nil
		}

		res.Created = append(res.Created, model.Appointment{
			ID:          uuid.NewString(),
			Date:        d,
			Start:       b.Start,
			End:         end,
			StaffID:     b.StaffID,
			ClientID:    b.ClientID,
			ClientName:  b.ClientName,
			ServiceID:   b.ServiceID,
			ServiceName: b.ServiceName,
		})
	}
	return res, nil
}

func hasDuplicate(existing []model.Appointment, b Booking, d civil.Date) bool {
	for i := range existing {
		e := &existing[i]
		if e.Date.Equal(d) && e.Start == b.Start && e.StaffID == b.StaffID &&
			e.ClientID == b.ClientID && e.ServiceID == b.ServiceID {
			return true
		}
	}
	return false
}
