// Package handlers exposes the scheduling core over HTTP. The store and
// directory arrive as narrow interfaces so the handlers (and the algorithms
// beneath them) are testable without a database.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/planora-hq/planora/internal/civil"
	"github.com/planora-hq/planora/internal/model"
	"github.com/planora-hq/planora/internal/outbox"
)

// CalendarStore is the event store contract the scheduling core needs: list,
// append a batch, update one record. Any durable keyed store satisfies it.
type CalendarStore interface {
	ListAppointments(ctx context.Context, staffID string, from civil.Date) ([]model.Appointment, error)
	Get(ctx context.Context, id string) (model.Appointment, error)
	AppendSeries(ctx context.Context, batch []model.Appointment, evt outbox.Event) error
	Reschedule(ctx context.Context, appt model.Appointment, evt outbox.Event) error
}

// Directory is the staff directory + service catalog contract.
type Directory interface {
	ListStaff(ctx context.Context, includeNotWorking bool) ([]model.Staff, error)
	GetStaff(ctx context.Context, id string) (model.Staff, error)
	CreateStaff(ctx context.Context, name string, isWorking bool) (string, error)
	ListServices(ctx context.Context) ([]model.Service, error)
	GetService(ctx context.Context, id string) (model.Service, error)
	CreateService(ctx context.Context, name string, durationMinutes int, price string) (string, error)
}

type CalendarHandler struct {
	store  CalendarStore
	dir    Directory
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time
}

func NewCalendarHandler(store CalendarStore, dir Directory, logger *slog.Logger, loc *time.Location) *CalendarHandler {
	if loc == nil {
		loc = time.Local
	}
	return &CalendarHandler{
		store:  store,
		dir:    dir,
		logger: logger,
		loc:    loc,
		now:    time.Now,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// conflictView is what the user sees when a booking collides: enough context
// to find the blocking appointment on the calendar.
type conflictView struct {
	AppointmentID string `json:"appointment_id"`
	ClientName    string `json:"client_name"`
	Date          string `json:"date"`
	Start         string `json:"start"`
	End           string `json:"end"`
}

func viewOfConflict(c *model.Appointment) conflictView {
	return conflictView{
		AppointmentID: c.ID,
		ClientName:    c.ClientName,
		Date:          c.Date.String(),
		Start:         c.Start,
		End:           c.End,
	}
}
