package drag

import (
	"testing"

	"github.com/planora-hq/planora/internal/civil"
	"github.com/planora-hq/planora/internal/model"
)

// geo gives one pixel per minute (5px slots), grid starting at midnight, so
// pointerY equals minutes-of-day and the tests read naturally.
var geo = Geometry{SlotPixels: 5, GridStartMinute: 0}

func date(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return d
}

func dragged(t *testing.T) model.Appointment {
	return model.Appointment{
		ID: "appt-1", StaffID: "staff-a", Date: date(t, "2025-01-06"),
		Start: "10:00", End: "10:30", ClientName: "Dana Reyes",
	}
}

func TestSnapDownToFiveMinutes(t *testing.T) {
	e := NewEngine(geo, nil)
	if err := e.Start(dragged(t), 600); err != nil { // grab at the top edge
		t.Fatalf("start: %v", err)
	}

	// Pointer at 10:03 (603px) snaps down to 10:00.
	cand, err := e.Move(Column{StaffID: "staff-a", Date: date(t, "2025-01-06")}, 603)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if cand.Start != "10:00" || cand.End != "10:30" {
		t.Fatalf("expected 10:00-10:30, got %s-%s", cand.Start, cand.End)
	}

	// 10:05 exactly lands on the boundary.
	cand, _ = e.Move(Column{StaffID: "staff-a", Date: date(t, "2025-01-06")}, 605)
	if cand.Start != "10:05" {
		t.Fatalf("expected 10:05, got %s", cand.Start)
	}
}

func TestGrabOffsetPreventsJump(t *testing.T) {
	e := NewEngine(geo, nil)
	// Grab 10px below the top edge (at 10:10 within the block).
	if err := e.Start(dragged(t), 610); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Without moving the pointer, the candidate stays at the original slot.
	cand, err := e.Move(Column{StaffID: "staff-a", Date: date(t, "2025-01-06")}, 610)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if cand.Start != "10:00" {
		t.Fatalf("appointment jumped on drag start: %s", cand.Start)
	}
}

func TestDropCommitsMove(t *testing.T) {
	e := NewEngine(geo, func(string, civil.Date, string, string, string) *model.Appointment {
		return nil
	})
	if err := e.Start(dragged(t), 600); err != nil {
		t.Fatalf("start: %v", err)
	}
	target := Column{StaffID: "staff-b", Date: date(t, "2025-01-07")}
	if _, err := e.Move(target, 840); err != nil { // 14:00
		t.Fatalf("move: %v", err)
	}

	res, err := e.Drop()
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	if res.Outcome != Moved {
		t.Fatalf("expected Moved, got %v", res.Outcome)
	}
	a := res.Appointment
	if a.Date.String() != "2025-01-07" || a.StaffID != "staff-b" {
		t.Fatalf("column not applied: %+v", a)
	}
	if a.Start != "14:00" || a.End != "14:30" {
		t.Fatalf("expected 14:00-14:30, got %s-%s", a.Start, a.End)
	}
	if e.Dragging() {
		t.Fatal("engine did not return to idle")
	}
}

func TestDropConflictReverts(t *testing.T) {
	blocker := model.Appointment{ID: "other", ClientName: "Ben Ochoa", Start: "14:00", End: "14:45"}
	var gotExclude string
	e := NewEngine(geo, func(_ string, _ civil.Date, _, _ string, excludeID string) *model.Appointment {
		gotExclude = excludeID
		return &blocker
	})
	orig := dragged(t)
	if err := e.Start(orig, 600); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := e.Move(Column{StaffID: "staff-a", Date: date(t, "2025-01-06")}, 840); err != nil {
		t.Fatalf("move: %v", err)
	}

	res, err := e.Drop()
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	if res.Outcome != Rejected {
		t.Fatalf("expected Rejected, got %v", res.Outcome)
	}
	if res.Conflict == nil || res.Conflict.ID != "other" {
		t.Fatalf("expected blocking appointment, got %+v", res.Conflict)
	}
	if res.Appointment != orig {
		t.Fatalf("appointment must revert untouched, got %+v", res.Appointment)
	}
	if gotExclude != "appt-1" {
		t.Fatalf("conflict check must exclude the dragged appointment, got %q", gotExclude)
	}
}

func TestCancelReverts(t *testing.T) {
	e := NewEngine(geo, nil)
	orig := dragged(t)
	if err := e.Start(orig, 600); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := e.Move(Column{StaffID: "staff-b", Date: date(t, "2025-01-08")}, 900); err != nil {
		t.Fatalf("move: %v", err)
	}

	res, err := e.Cancel()
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if res.Outcome != Cancelled || res.Appointment != orig {
		t.Fatalf("expected untouched original, got %+v", res)
	}
	if e.Dragging() {
		t.Fatal("engine did not return to idle")
	}
}

func TestDropWithoutHoverCancels(t *testing.T) {
	e := NewEngine(geo, nil)
	if err := e.Start(dragged(t), 600); err != nil {
		t.Fatalf("start: %v", err)
	}
	res, err := e.Drop()
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	if res.Outcome != Cancelled {
		t.Fatalf("expected Cancelled for drop outside any column, got %v", res.Outcome)
	}
}

func TestStateGuards(t *testing.T) {
	e := NewEngine(geo, nil)
	if _, err := e.Move(Column{}, 0); err == nil {
		t.Fatal("Move before Start must fail")
	}
	if _, err := e.Drop(); err == nil {
		t.Fatal("Drop before Start must fail")
	}
	if err := e.Start(dragged(t), 600); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := e.Start(dragged(t), 600); err == nil {
		t.Fatal("second Start during a drag must fail")
	}
}

func TestMoveClampsToDay(t *testing.T) {
	e := NewEngine(geo, nil)
	if err := e.Start(dragged(t), 600); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Above the grid clamps to 00:00.
	cand, err := e.Move(Column{StaffID: "staff-a", Date: date(t, "2025-01-06")}, -50)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if cand.Start != "00:00" {
		t.Fatalf("expected clamp to 00:00, got %s", cand.Start)
	}

	// Far below the grid clamps so the appointment still fits the day.
	cand, err = e.Move(Column{StaffID: "staff-a", Date: date(t, "2025-01-06")}, 5000)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if cand.Start != "23:30" || cand.End != "24:00" {
		t.Fatalf("expected 23:30-24:00, got %s-%s", cand.Start, cand.End)
	}
}
