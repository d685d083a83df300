package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/planora-hq/planora/internal/civil"
	"github.com/planora-hq/planora/internal/icsfeed"
	"github.com/planora-hq/planora/internal/model"
	"github.com/planora-hq/planora/internal/storage"
)

// Staff lists the directory (working staff only, unless ?all=1) or registers
// a staff member.
func (h *CalendarHandler) Staff(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		includeAll := r.URL.Query().Get("all") == "1"
		staff, err := h.dir.ListStaff(r.Context(), includeAll)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list staff")
			return
		}
		if staff == nil {
			staff = []model.Staff{}
		}
		writeJSON(w, http.StatusOK, staff)

	case http.MethodPost:
		var req struct {
			Name      string `json:"name"`
			IsWorking *bool  `json:"is_working"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name required")
			return
		}
		isWorking := true
		if req.IsWorking != nil {
			isWorking = *req.IsWorking
		}
		id, err := h.dir.CreateStaff(r.Context(), req.Name, isWorking)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to create staff")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// Services lists the catalog or registers a service.
func (h *CalendarHandler) Services(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		services, err := h.dir.ListServices(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list services")
			return
		}
		if services == nil {
			services = []model.Service{}
		}
		writeJSON(w, http.StatusOK, services)

	case http.MethodPost:
		var req struct {
			Name            string `json:"name"`
			DurationMinutes int    `json:"duration_minutes"`
			Price           string `json:"price"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name required")
			return
		}
		if req.DurationMinutes <= 0 || req.DurationMinutes > 8*60 {
			writeError(w, http.StatusBadRequest, "duration_minutes must be within (0, 480]")
			return
		}
		id, err := h.dir.CreateService(r.Context(), req.Name, req.DurationMinutes, req.Price)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to create service")
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// Feed serves a staff member's upcoming appointments as an iCalendar feed.
func (h *CalendarHandler) Feed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	staffID := strings.TrimSpace(r.URL.Query().Get("staff_id"))
	if staffID == "" {
		writeError(w, http.StatusBadRequest, "staff_id required")
		return
	}

	ctx := r.Context()
	staff, err := h.dir.GetStaff(ctx, staffID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "staff not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load staff")
		return
	}

	now := h.now().In(h.loc)
	appts, err := h.store.ListAppointments(ctx, staffID, civil.DateOf(now))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(icsfeed.Build(staff, appts, h.loc, now)))
}
