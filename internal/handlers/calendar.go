package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/planora-hq/planora/internal/civil"
	"github.com/planora-hq/planora/internal/conflict"
	"github.com/planora-hq/planora/internal/drag"
	"github.com/planora-hq/planora/internal/model"
	"github.com/planora-hq/planora/internal/outbox"
	"github.com/planora-hq/planora/internal/recurrence"
	"github.com/planora-hq/planora/internal/schedule"
	"github.com/planora-hq/planora/internal/storage"
	"github.com/planora-hq/planora/internal/timeutil"
)

type bookRequest struct {
	StaffID    string `json:"staff_id"`
	ClientID   string `json:"client_id"`
	ClientName string `json:"client_name"`
	ServiceID  string `json:"service_id"`
	Date       string `json:"date"`
	Start      string `json:"start"`
	Recurrence struct {
		Repeat string `json:"repeat"`
		Every  int    `json:"every"`
		Period string `json:"period"`
	} `json:"recurrence"`
}

type bookResponse struct {
	SeriesID       string   `json:"series_id,omitempty"`
	AppointmentIDs []string `json:"appointment_ids"`
	PastSkips      int      `json:"past_skips"`
	DuplicateSkips int      `json:"duplicate_skips"`
}

// Book creates a single appointment or a whole recurring series. The series
// is all-or-nothing: the first conflict aborts it and nothing persists.
func (h *CalendarHandler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.StaffID = strings.TrimSpace(req.StaffID)
	req.ClientID = strings.TrimSpace(req.ClientID)
	req.ClientName = strings.TrimSpace(req.ClientName)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.Date = strings.TrimSpace(req.Date)
	req.Start = strings.TrimSpace(req.Start)

	// Preconditions: every selection must be made before the algorithms run.
	var missing []string
	for field, v := range map[string]string{
		"staff_id": req.StaffID, "client_id": req.ClientID,
		"service_id": req.ServiceID, "date": req.Date, "start": req.Start,
	} {
		if v == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		writeError(w, http.StatusBadRequest, "missing required fields: "+strings.Join(missing, ", "))
		return
	}

	startDate, err := civil.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date (want YYYY-MM-DD)")
		return
	}
	if _, err := timeutil.Minutes(req.Start); err != nil {
		writeError(w, http.StatusBadRequest, "invalid start (want HH:MM)")
		return
	}

	unit, err := recurrence.ParseUnit(req.Recurrence.Repeat)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rule := recurrence.Rule{Unit: unit, Every: req.Recurrence.Every}
	period := recurrence.OneMonth
	if unit != recurrence.Once {
		period, err = recurrence.ParsePeriod(req.Recurrence.Period)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	ctx := r.Context()
	svc, err := h.dir.GetService(ctx, req.ServiceID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "service not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load service")
		return
	}

	dates, err := recurrence.Expand(startDate, rule, period)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := h.store.ListAppointments(ctx, req.StaffID, civil.Date{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load calendar")
		return
	}

	booking := schedule.Booking{
		StaffID:         req.StaffID,
		ClientID:        req.ClientID,
		ClientName:      req.ClientName,
		ServiceID:       svc.ID,
		ServiceName:     svc.Name,
		Start:           req.Start,
		DurationMinutes: svc.DurationMinutes,
	}
	res, err := schedule.Materialize(dates, booking, existing, conflict.ClockAt(h.now().In(h.loc)))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if res.Conflict != nil {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":    "time slot conflicts with an existing appointment",
			"conflict": viewOfConflict(res.Conflict),
		})
		return
	}
	if res.DuplicateSkips > 0 {
		h.logger.Info("duplicate appointments skipped",
			"staff_id", req.StaffID, "client_id", req.ClientID, "skipped", res.DuplicateSkips)
	}

	resp := bookResponse{
		AppointmentIDs: make([]string, 0, len(res.Created)),
		PastSkips:      res.PastSkips,
		DuplicateSkips: res.DuplicateSkips,
	}
	if len(res.Created) == 0 {
		// Everything was in the past or already booked; nothing to persist.
		writeJSON(w, http.StatusOK, resp)
		return
	}

	seriesID := uuid.NewString()
	for _, a := range res.Created {
		resp.AppointmentIDs = append(resp.AppointmentIDs, a.ID)
	}
	payload, err := json.Marshal(map[string]any{
		"series_id":    seriesID,
		"staff_id":     req.StaffID,
		"client_id":    req.ClientID,
		"service_id":   svc.ID,
		"start":        req.Start,
		"appointments": resp.AppointmentIDs,
		"first_date":   res.Created[0].Date.String(),
		"last_date":    res.Created[len(res.Created)-1].Date.String(),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build event payload")
		return
	}

	if err := h.store.AppendSeries(ctx, res.Created, outbox.Event{
		AggregateType: "series",
		AggregateID:   seriesID,
		EventType:     outbox.EventSeriesBooked,
		Payload:       payload,
	}); err != nil {
		h.logger.Error("series append failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to persist appointments")
		return
	}

	resp.SeriesID = seriesID
	writeJSON(w, http.StatusCreated, resp)
}

type rescheduleRequest struct {
	AppointmentID string `json:"appointment_id"`
	StaffID       string `json:"staff_id"`
	Date          string `json:"date"`
	// Start commits an exact slot. When absent, the pointer geometry below
	// replays the drag server-side and the snapped slot wins.
	Start   string `json:"start"`
	Pointer *struct {
		DownY           float64 `json:"down_y"`
		DropY           float64 `json:"drop_y"`
		SlotPixels      float64 `json:"slot_pixels"`
		GridStartMinute int     `json:"grid_start_minute"`
	} `json:"pointer"`
}

// Reschedule commits a drag-drop move. The candidate slot is re-validated
// against the target column before anything is written; on conflict the
// appointment stays exactly where it was.
func (h *CalendarHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	req.StaffID = strings.TrimSpace(req.StaffID)
	req.Date = strings.TrimSpace(req.Date)
	req.Start = strings.TrimSpace(req.Start)
	if req.AppointmentID == "" || req.StaffID == "" || req.Date == "" {
		writeError(w, http.StatusBadRequest, "appointment_id, staff_id and date required")
		return
	}
	if req.Start == "" && req.Pointer == nil {
		writeError(w, http.StatusBadRequest, "either start or pointer required")
		return
	}

	targetDate, err := civil.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date (want YYYY-MM-DD)")
		return
	}

	ctx := r.Context()
	appt, err := h.store.Get(ctx, req.AppointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load appointment")
		return
	}

	existing, err := h.store.ListAppointments(ctx, req.StaffID, civil.Date{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load calendar")
		return
	}
	clock := conflict.ClockAt(h.now().In(h.loc))
	findConflict := func(staffID string, date civil.Date, start, end string, excludeID string) *model.Appointment {
		return conflict.Find(existing, staffID, date, start, end, excludeID, clock)
	}

	geo := drag.Geometry{SlotPixels: 12}
	var downY, dropY float64
	if req.Pointer != nil {
		geo = drag.Geometry{SlotPixels: req.Pointer.SlotPixels, GridStartMinute: req.Pointer.GridStartMinute}
		downY = req.Pointer.DownY
		dropY = req.Pointer.DropY
	} else {
		startMin, err := timeutil.Minutes(req.Start)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start (want HH:MM)")
			return
		}
		origMin, err := timeutil.Minutes(appt.Start)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "stored appointment is malformed")
			return
		}
		// Grab the block at its top edge and drop at the requested slot.
		downY = yFor(origMin, geo)
		dropY = yFor(startMin, geo)
	}

	engine := drag.NewEngine(geo, findConflict)
	if err := engine.Start(appt, downY); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := engine.Move(drag.Column{StaffID: req.StaffID, Date: targetDate}, dropY); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := engine.Drop()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	switch result.Outcome {
	case drag.Rejected:
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":    "target slot conflicts with an existing appointment",
			"conflict": viewOfConflict(result.Conflict),
		})
		return
	case drag.Cancelled:
		writeJSON(w, http.StatusOK, result.Appointment)
		return
	}

	moved := result.Appointment
	payload, err := json.Marshal(map[string]any{
		"appointment_id": moved.ID,
		"staff_id":       moved.StaffID,
		"date":           moved.Date.String(),
		"start":          moved.Start,
		"end":            moved.End,
		"previous": map[string]string{
			"staff_id": appt.StaffID,
			"date":     appt.Date.String(),
			"start":    appt.Start,
			"end":      appt.End,
		},
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build event payload")
		return
	}

	if err := h.store.Reschedule(ctx, moved, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   moved.ID,
		EventType:     outbox.EventAppointmentRescheduled,
		Payload:       payload,
	}); err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		h.logger.Error("reschedule failed", "err", err, "appointment_id", moved.ID)
		writeError(w, http.StatusInternalServerError, "failed to persist move")
		return
	}
	writeJSON(w, http.StatusOK, moved)
}

// List returns appointments, optionally narrowed to a staff member, a lower
// date bound, or one exact date.
func (h *CalendarHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	staffID := strings.TrimSpace(r.URL.Query().Get("staff_id"))
	var from civil.Date
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		d, err := civil.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from (want YYYY-MM-DD)")
			return
		}
		from = d
	}

	appts, err := h.store.ListAppointments(r.Context(), staffID, from)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		day, err := civil.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date (want YYYY-MM-DD)")
			return
		}
		filtered := appts[:0]
		for _, a := range appts {
			if a.Date.Equal(day) {
				filtered = append(filtered, a)
			}
		}
		appts = filtered
	}

	if appts == nil {
		appts = []model.Appointment{}
	}
	writeJSON(w, http.StatusOK, appts)
}

func yFor(minuteOfDay int, geo drag.Geometry) float64 {
	px := geo.SlotPixels
	if px <= 0 {
		px = 12
	}
	return float64(minuteOfDay-geo.GridStartMinute) / drag.SlotMinutes * px
}
