package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dreyes/barberflow/libs/db"
	"github.com/dreyes/barberflow/services/booking-service/internal/model"
)

type ServiceRepository struct {
	pool *db.Pool
}

func NewServiceRepository(pool *db.Pool) *ServiceRepository {
	return &ServiceRepository{pool: pool}
}

const selectService = `
	SELECT id::text, name, duration_minutes, price::text, is_active, created_at
	FROM services`

func (r *ServiceRepository) Create(ctx context.Context, s *model.Service) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO services (id, name, duration_minutes, price, is_active)
		VALUES ($1, $2, $3, $4, true)
	`, id, s.Name, s.DurationMinutes, s.Price)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *ServiceRepository) Get(ctx context.Context, id string) (model.Service, error) {
	return scanService(r.pool.QueryRow(ctx, selectService+` WHERE id = $1`, id))
}

func (r *ServiceRepository) ListActive(ctx context.Context) ([]model.Service, error) {
	return r.list(ctx, selectService+` WHERE is_active ORDER BY name ASC`)
}

func (r *ServiceRepository) ListAll(ctx context.Context) ([]model.Service, error) {
	return r.list(ctx, selectService+` ORDER BY name ASC`)
}

func (r *ServiceRepository) Update(ctx context.Context, s *model.Service) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE services
		SET name = $2, duration_minutes = $3, price = $4, updated_at = now()
		WHERE id = $1
	`, s.ID, s.Name, s.DurationMinutes, s.Price)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Deactivate soft-deletes so existing bookings keep a valid service reference.
func (r *ServiceRepository) Deactivate(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE services SET is_active = false, updated_at = now() WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ServiceRepository) list(ctx context.Context, query string) ([]model.Service, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []model.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return services, nil
}

func scanService(row pgx.Row) (model.Service, error) {
	var s model.Service
	err := row.Scan(&s.ID, &s.Name, &s.DurationMinutes, &s.Price, &s.Active, &s.CreatedAt)
	if err != nil {
		return model.Service{}, err
	}
	return s, nil
}
