package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/planora-hq/planora/internal/civil"
	"github.com/planora-hq/planora/internal/model"
	"github.com/planora-hq/planora/internal/outbox"
	"github.com/planora-hq/planora/libs/db"
)

// CalendarRepository is the event store adapter: it persists the calendar
// events collection and writes domain events in the same transaction, so a
// failed write can never leave a half-committed series or a phantom event.
type CalendarRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewCalendarRepository(pool *db.Pool, outboxRepo *outbox.Repository) *CalendarRepository {
	return &CalendarRepository{pool: pool, outbox: outboxRepo}
}

const appointmentColumns = `
	id::text, event_date::text, start_label, end_label,
	staff_id, client_id, client_name, service_id, service_name, created_at`

// ListAppointments returns appointments in insertion order (load-bearing:
// first-conflict-wins depends on stable iteration). staffID narrows to one
// staff member when non-empty; from drops days before it when set.
func (r *CalendarRepository) ListAppointments(ctx context.Context, staffID string, from civil.Date) ([]model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM calendar_events
		WHERE ($1 = '' OR staff_id = $1)
		  AND ($2 = '' OR event_date >= $2::date)
		ORDER BY seq ASC`
	fromArg := ""
	if !from.IsZero() {
		fromArg = from.String()
	}
	rows, err := r.pool.Query(ctx, query, staffID, fromArg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func (r *CalendarRepository) Get(ctx context.Context, id string) (model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM calendar_events
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

// AppendSeries persists a materialized batch plus its domain event in one
// transaction. The all-or-nothing policy holds at the store level too: a
// failure on any row rolls back the whole series.
func (r *CalendarRepository) AppendSeries(ctx context.Context, batch []model.Appointment, evt outbox.Event) error {
	if len(batch) == 0 {
		return nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, appt := range batch {
		if _, err := tx.Exec(ctx, `
			INSERT INTO calendar_events
				(id, event_date, start_label, end_label, staff_id, client_id, client_name, service_id, service_name)
			VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8, $9)
		`, appt.ID, appt.Date.String(), appt.Start, appt.End,
			appt.StaffID, appt.ClientID, appt.ClientName, appt.ServiceID, appt.ServiceName); err != nil {
			return err
		}
	}

	if err := r.outbox.Insert(ctx, tx, evt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Reschedule rewrites the movable fields of one appointment (date, times,
// staff) together with its domain event.
func (r *CalendarRepository) Reschedule(ctx context.Context, appt model.Appointment, evt outbox.Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE calendar_events
		SET event_date = $2::date,
			start_label = $3,
			end_label = $4,
			staff_id = $5
		WHERE id = $1
	`, appt.ID, appt.Date.String(), appt.Start, appt.End, appt.StaffID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if err := r.outbox.Insert(ctx, tx, evt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var appt model.Appointment
	var dateStr string
	if err := row.Scan(
		&appt.ID,
		&dateStr,
		&appt.Start,
		&appt.End,
		&appt.StaffID,
		&appt.ClientID,
		&appt.ClientName,
		&appt.ServiceID,
		&appt.ServiceName,
		&appt.CreatedAt,
	); err != nil {
		return model.Appointment{}, err
	}
	d, err := civil.ParseDate(dateStr)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.Date = d
	return appt, nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func IsDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
