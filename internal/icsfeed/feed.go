// Package icsfeed renders a staff member's calendar as an iCalendar feed so
// appointments can be subscribed to from external calendar apps.
package icsfeed

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/planora-hq/planora/internal/model"
	"github.com/planora-hq/planora/internal/timeutil"
)

// Build serializes appointments as VEVENTs. This is a display boundary:
// calendar dates become instants in loc here, and only here.
func Build(staff model.Staff, appts []model.Appointment, loc *time.Location, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)

	for _, a := range appts {
		startMin, err := timeutil.Minutes(a.Start)
		if err != nil {
			continue
		}
		endMin, err := timeutil.Minutes(a.End)
		if err != nil || endMin <= startMin {
			continue
		}
		midnight := a.Date.Midnight(loc)

		ev := cal.AddEvent(a.ID + "@planora")
		ev.SetDtStampTime(now)
		ev.SetStartAt(midnight.Add(time.Duration(startMin) * time.Minute))
		ev.SetEndAt(midnight.Add(time.Duration(endMin) * time.Minute))
		ev.SetSummary(fmt.Sprintf("%s with %s", a.ServiceName, a.ClientName))
		ev.SetDescription("Staff: " + staff.Name)
	}
	return cal.Serialize()
}
