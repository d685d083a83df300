package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/planora-hq/planora/internal/model"
	"github.com/planora-hq/planora/libs/db"
)

// DirectoryRepository holds the local mirrors of the staff directory and
// service catalog. Rows arrive through admin endpoints or the directory
// sync consumer; the scheduling core only ever reads them.
type DirectoryRepository struct {
	pool *db.Pool
}

func NewDirectoryRepository(pool *db.Pool) *DirectoryRepository {
	return &DirectoryRepository{pool: pool}
}

// ListStaff returns working staff by default; includeNotWorking widens the
// listing for admin views.
func (r *DirectoryRepository) ListStaff(ctx context.Context, includeNotWorking bool) ([]model.Staff, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, is_working
		FROM staff
		WHERE $1 OR is_working
		ORDER BY name ASC
	`, includeNotWorking)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Staff
	for rows.Next() {
		var s model.Staff
		if err := rows.Scan(&s.ID, &s.Name, &s.IsWorking); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *DirectoryRepository) GetStaff(ctx context.Context, id string) (model.Staff, error) {
	var s model.Staff
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, is_working
		FROM staff
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.IsWorking)
	return s, err
}

func (r *DirectoryRepository) CreateStaff(ctx context.Context, name string, isWorking bool) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO staff (id, name, is_working)
		VALUES ($1, $2, $3)
	`, id, name, isWorking)
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpsertStaff applies a directory sync event.
func (r *DirectoryRepository) UpsertStaff(ctx context.Context, s model.Staff) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO staff (id, name, is_working)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			is_working = EXCLUDED.is_working,
			updated_at = now()
	`, s.ID, s.Name, s.IsWorking)
	return err
}

func (r *DirectoryRepository) ListServices(ctx context.Context) ([]model.Service, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, duration_minutes, price::text
		FROM services
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Service
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.DurationMinutes, &s.Price); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *DirectoryRepository) GetService(ctx context.Context, id string) (model.Service, error) {
	var s model.Service
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, duration_minutes, price::text
		FROM services
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.DurationMinutes, &s.Price)
	return s, err
}

func (r *DirectoryRepository) CreateService(ctx context.Context, name string, durationMinutes int, price string) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO services (id, name, duration_minutes, price)
		VALUES ($1, $2, $3, $4)
	`, id, name, durationMinutes, price)
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpsertService applies a directory sync event.
func (r *DirectoryRepository) UpsertService(ctx context.Context, s model.Service) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO services (id, name, duration_minutes, price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			duration_minutes = EXCLUDED.duration_minutes,
			price = EXCLUDED.price,
			updated_at = now()
	`, s.ID, s.Name, s.DurationMinutes, s.Price)
	return err
}
