package conflict

import (
	"testing"

	"github.com/planora-hq/planora/internal/civil"
	"github.com/planora-hq/planora/internal/model"
)

func date(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	if err != nil {
		t.Fatalf("parse %s: %v", s, err)
	}
	return d
}

func appt(id, staffID, day, start, end string) model.Appointment {
	d, _ := civil.ParseDate(day)
	return model.Appointment{ID: id, StaffID: staffID, Date: d, Start: start, End: end}
}

func TestFindOverlap(t *testing.T) {
	day := date(t, "2025-01-06")
	now := Clock{Today: date(t, "2025-01-01")}
	existing := []model.Appointment{
		appt("a1", "staff-a", "2025-01-06", "10:00", "10:30"),
	}

	got := Find(existing, "staff-a", day, "10:15", "10:45", "", now)
	if got == nil || got.ID != "a1" {
		t.Fatalf("expected conflict with a1, got %+v", got)
	}

	// Candidate fully containing the existing one also conflicts.
	if got := Find(existing, "staff-a", day, "09:00", "12:00", "", now); got == nil {
		t.Fatal("expected containment conflict")
	}
}

func TestFindTouchingBoundaryIsFree(t *testing.T) {
	day := date(t, "2025-01-06")
	now := Clock{Today: date(t, "2025-01-01")}
	existing := []model.Appointment{
		appt("a1", "staff-a", "2025-01-06", "10:00", "10:30"),
	}

	// [10:30,11:00) starts exactly where [10:00,10:30) ends.
	if got := Find(existing, "staff-a", day, "10:30", "11:00", "", now); got != nil {
		t.Fatalf("expected no conflict at touching boundary, got %+v", got)
	}
	if got := Find(existing, "staff-a", day, "09:30", "10:00", "", now); got != nil {
		t.Fatalf("expected no conflict ending at existing start, got %+v", got)
	}
}

func TestFindScopedToStaffAndDate(t *testing.T) {
	day := date(t, "2025-01-06")
	now := Clock{Today: date(t, "2025-01-01")}
	existing := []model.Appointment{
		appt("b1", "staff-b", "2025-01-06", "10:00", "10:30"),
		appt("a2", "staff-a", "2025-01-07", "10:00", "10:30"),
	}

	if got := Find(existing, "staff-a", day, "10:00", "10:30", "", now); got != nil {
		t.Fatalf("expected no conflict across staff/date, got %+v", got)
	}
}

func TestFindExcludesSelf(t *testing.T) {
	day := date(t, "2025-01-06")
	now := Clock{Today: date(t, "2025-01-01")}
	existing := []model.Appointment{
		appt("a1", "staff-a", "2025-01-06", "10:00", "10:30"),
	}

	// Moving a1 within its own interval must not collide with itself.
	if got := Find(existing, "staff-a", day, "10:05", "10:35", "a1", now); got != nil {
		t.Fatalf("expected self-exclusion, got %+v", got)
	}
}

func TestFindFirstStoredWins(t *testing.T) {
	day := date(t, "2025-01-06")
	now := Clock{Today: date(t, "2025-01-01")}
	existing := []model.Appointment{
		appt("a1", "staff-a", "2025-01-06", "10:00", "11:00"),
		appt("a2", "staff-a", "2025-01-06", "10:30", "11:30"),
	}

	got := Find(existing, "staff-a", day, "10:45", "11:15", "", now)
	if got == nil || got.ID != "a1" {
		t.Fatalf("expected first-stored a1, got %+v", got)
	}
}

func TestFindIgnoresHistorical(t *testing.T) {
	now := Clock{Today: date(t, "2025-01-06"), Minute: 11*60 + 30}

	// Past date.
	existing := []model.Appointment{
		appt("old", "staff-a", "2025-01-03", "10:00", "10:30"),
	}
	if got := Find(existing, "staff-a", date(t, "2025-01-03"), "10:00", "10:30", "", now); got != nil {
		t.Fatalf("expected past-date appointment ignored, got %+v", got)
	}

	// Today, already finished at 11:30.
	existing = []model.Appointment{
		appt("done", "staff-a", "2025-01-06", "10:00", "11:00"),
		appt("running", "staff-a", "2025-01-06", "11:00", "12:00"),
	}
	if got := Find(existing, "staff-a", now.Today, "10:15", "10:45", "", now); got != nil {
		t.Fatalf("expected finished appointment ignored, got %+v", got)
	}
	got := Find(existing, "staff-a", now.Today, "11:15", "11:45", "", now)
	if got == nil || got.ID != "running" {
		t.Fatalf("expected still-running appointment to conflict, got %+v", got)
	}
}
