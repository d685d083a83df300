package model

import (
	"time"

	"github.com/planora-hq/planora/internal/civil"
)

// Appointment is a scheduled booking instance on a staff member's calendar.
// Start and End are "HH:MM" labels on Date; the [Start,End) interval is
// half-open, so an appointment ending at 10:00 does not conflict with one
// starting at 10:00.
type Appointment struct {
	ID          string     `json:"id"`
	Date        civil.Date `json:"date"`
	Start       string     `json:"start"`
	End         string     `json:"end"`
	StaffID     string     `json:"staff_id"`
	ClientID    string     `json:"client_id"`
	ClientName  string     `json:"client_name"`
	ServiceID   string     `json:"service_id"`
	ServiceName string     `json:"service_name"`
	CreatedAt   time.Time  `json:"created_at,omitempty"`
}

// Staff is the local mirror of the staff directory. The scheduling core only
// needs the id; name and working flag exist for labels and default
// visibility.
type Staff struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsWorking bool   `json:"is_working"`
}

// Service is the local mirror of the service catalog; its duration drives
// end-time computation.
type Service struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	Price           string `json:"price"`
}
