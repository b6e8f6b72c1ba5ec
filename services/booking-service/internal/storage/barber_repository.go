package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dreyes/barberflow/libs/db"
	"github.com/dreyes/barberflow/services/booking-service/internal/model"
)

type BarberRepository struct {
	pool *db.Pool
}

func NewBarberRepository(pool *db.Pool) *BarberRepository {
	return &BarberRepository{pool: pool}
}

const selectBarber = `
	SELECT id::text, COALESCE(user_id::text, ''), name, COALESCE(phone, ''), COALESCE(bio, ''),
		is_active, work_start, work_end, specialties, created_at
	FROM barbers`

func (r *BarberRepository) Create(ctx context.Context, b *model.Barber) (string, error) {
	id := uuid.NewString()
	if b.WorkStart == "" {
		b.WorkStart = "09:00"
	}
	if b.WorkEnd == "" {
		b.WorkEnd = "18:00"
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO barbers (id, user_id, name, phone, bio, is_active, work_start, work_end, specialties)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, true, $6, $7, $8)
	`, id, b.UserID, b.Name, b.Phone, b.Bio, b.WorkStart, b.WorkEnd, b.Specialties)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *BarberRepository) Get(ctx context.Context, id string) (model.Barber, error) {
	return scanBarber(r.pool.QueryRow(ctx, selectBarber+` WHERE id = $1`, id))
}

// ListActive returns active barbers in creation order. That order is the
// tie-break for automatic assignment, so it has to be stable.
func (r *BarberRepository) ListActive(ctx context.Context) ([]model.Barber, error) {
	return r.list(ctx, selectBarber+` WHERE is_active ORDER BY created_at ASC, id ASC`)
}

func (r *BarberRepository) ListAll(ctx context.Context) ([]model.Barber, error) {
	return r.list(ctx, selectBarber+` ORDER BY created_at ASC, id ASC`)
}

func (r *BarberRepository) Update(ctx context.Context, b *model.Barber) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE barbers
		SET name = $2, phone = $3, bio = $4, work_start = $5, work_end = $6,
			specialties = $7, updated_at = now()
		WHERE id = $1
	`, b.ID, b.Name, b.Phone, b.Bio, b.WorkStart, b.WorkEnd, b.Specialties)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Deactivate soft-deletes: the barber disappears from availability and
// assignment but stays referenced by historical bookings.
func (r *BarberRepository) Deactivate(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE barbers SET is_active = false, updated_at = now() WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *BarberRepository) list(ctx context.Context, query string) ([]model.Barber, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var barbers []model.Barber
	for rows.Next() {
		b, err := scanBarber(rows)
		if err != nil {
			return nil, err
		}
		barbers = append(barbers, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return barbers, nil
}

func scanBarber(row pgx.Row) (model.Barber, error) {
	var b model.Barber
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.Name,
		&b.Phone,
		&b.Bio,
		&b.Active,
		&b.WorkStart,
		&b.WorkEnd,
		&b.Specialties,
		&b.CreatedAt,
	)
	if err != nil {
		return model.Barber{}, err
	}
	return b, nil
}
