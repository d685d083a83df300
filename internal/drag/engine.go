// Package drag is the drag-reschedule engine: a state machine over a single
// in-progress drag, decoupled from any UI event system so it can be driven
// with synthetic coordinates. Transitions: Idle -> Dragging -> (Dropped |
// Cancelled) -> Idle.
package drag

import (
	"errors"
	"math"

	"github.com/planora-hq/planora/internal/civil"
	"github.com/planora-hq/planora/internal/model"
	"github.com/planora-hq/planora/internal/timeutil"
)

// SlotMinutes is the snapping granularity of the calendar grid.
const SlotMinutes = 5

// Geometry maps pointer coordinates to the grid: one slot is SlotPixels
// tall, and the row at y=0 starts at GridStartMinute of the day.
type Geometry struct {
	SlotPixels      float64
	GridStartMinute int
}

func (g Geometry) slotPixels() float64 {
	if g.SlotPixels <= 0 {
		return 12
	}
	return g.SlotPixels
}

// Column is a drop target: one staff member's lane on one date.
type Column struct {
	StaffID string
	Date    civil.Date
}

// Candidate is the continuously re-displayed preview while dragging.
type Candidate struct {
	Column
	Start string
	End   string
}

// Outcome of a finished drag.
type Outcome int

const (
	// Moved commits the candidate slot.
	Moved Outcome = iota
	// Rejected means the drop collided; the appointment reverts.
	Rejected
	// Cancelled means the drag ended outside any column; no mutation.
	Cancelled
)

// Result is the terminal report of a drag. Appointment carries the new slot
// for Moved and the untouched original for Rejected/Cancelled.
type Result struct {
	Outcome     Outcome
	Appointment model.Appointment
	Conflict    *model.Appointment
}

// ConflictFunc checks a candidate interval against the rest of the calendar,
// excluding the dragged appointment itself.
type ConflictFunc func(staffID string, date civil.Date, start, end string, excludeID string) *model.Appointment

// Engine drives one drag at a time. It is not safe for concurrent use; the
// calendar processes pointer events on a single goroutine.
type Engine struct {
	geo          Geometry
	findConflict ConflictFunc

	dragging  bool
	original  model.Appointment
	duration  int
	grabPixel float64
	candidate *Candidate
}

func NewEngine(geo Geometry, findConflict ConflictFunc) *Engine {
	return &Engine{geo: geo, findConflict: findConflict}
}

func (e *Engine) Dragging() bool { return e.dragging }

// Start begins a drag on appt at pointerY. The pointer's offset from the
// appointment's top edge is captured so the block does not jump to the
// cursor on the first move.
func (e *Engine) Start(appt model.Appointment, pointerY float64) error {
	if e.dragging {
		return errors.New("drag already in progress")
	}
	startMin, err := timeutil.Minutes(appt.Start)
	if err != nil {
		return err
	}
	endMin, err := timeutil.Minutes(appt.End)
	if err != nil {
		return err
	}
	if endMin <= startMin {
		return errors.New("appointment end not after start")
	}

	topY := float64(startMin-e.geo.GridStartMinute) / SlotMinutes * e.geo.slotPixels()
	e.dragging = true
	e.original = appt
	e.duration = endMin - startMin
	e.grabPixel = pointerY - topY
	e.candidate = nil
	return nil
}

// Move recomputes the preview for the pointer position over a drop column.
// The candidate start is the pointer position minus the captured grab
// offset, snapped down to the nearest slot boundary.
func (e *Engine) Move(col Column, pointerY float64) (Candidate, error) {
	if !e.dragging {
		return Candidate{}, errors.New("not dragging")
	}

	top := pointerY - e.grabPixel
	slot := int(math.Floor(top / e.geo.slotPixels()))
	startMin := e.geo.GridStartMinute + slot*SlotMinutes
	if startMin < 0 {
		startMin = 0
	}
	if startMin+e.duration > timeutil.MinutesPerDay {
		startMin = timeutil.MinutesPerDay - e.duration
		startMin -= startMin % SlotMinutes
	}

	start := timeutil.Label(startMin)
	end, err := timeutil.EndOf(start, e.duration)
	if err != nil {
		return Candidate{}, err
	}
	c := Candidate{Column: col, Start: start, End: end}
	e.candidate = &c
	return c, nil
}

// Drop releases the drag over the last hovered column. The candidate is
// re-checked for conflicts before anything is committed; on collision the
// appointment reverts and the blocking appointment is reported. A drop with
// no hovered column behaves like Cancel.
func (e *Engine) Drop() (Result, error) {
	if !e.dragging {
		return Result{}, errors.New("not dragging")
	}
	cand := e.candidate
	e.reset()

	if cand == nil {
		return Result{Outcome: Cancelled, Appointment: e.original}, nil
	}
	if e.findConflict != nil {
		if c := e.findConflict(cand.StaffID, cand.Date, cand.Start, cand.End, e.original.ID); c != nil {
			return Result{Outcome: Rejected, Appointment: e.original, Conflict: c}, nil
		}
	}

	moved := e.original
	moved.Date = cand.Date
	moved.Start = cand.Start
	moved.End = cand.End
	moved.StaffID = cand.StaffID
	return Result{Outcome: Moved, Appointment: moved}, nil
}

// Cancel aborts the drag with no mutation.
func (e *Engine) Cancel() (Result, error) {
	if !e.dragging {
		return Result{}, errors.New("not dragging")
	}
	e.reset()
	return Result{Outcome: Cancelled, Appointment: e.original}, nil
}

func (e *Engine) reset() {
	e.dragging = false
}
