package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/dreyes/barberflow/libs/db"
)

// Contact is a local copy of user delivery details, kept current from
// auth.user.created.v1 events so sends never call back into auth.
type Contact struct {
	UserID string
	Name   string
	Email  string
	Phone  string
}

type ContactRepository struct {
	pool *db.Pool
}

func NewContactRepository(pool *db.Pool) *ContactRepository {
	return &ContactRepository{pool: pool}
}

func (r *ContactRepository) Upsert(ctx context.Context, c Contact) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO contacts (user_id, name, email, phone)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		ON CONFLICT (user_id) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email, phone = EXCLUDED.phone
	`, c.UserID, c.Name, c.Email, c.Phone)
	return err
}

func (r *ContactRepository) Get(ctx context.Context, userID string) (Contact, error) {
	var c Contact
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, name, email, COALESCE(phone, '')
		FROM contacts
		WHERE user_id = $1
	`, userID).Scan(&c.UserID, &c.Name, &c.Email, &c.Phone)
	if err != nil {
		return Contact{}, err
	}
	return c, nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
