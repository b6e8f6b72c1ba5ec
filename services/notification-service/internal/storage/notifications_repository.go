package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dreyes/barberflow/libs/db"
)

type Notification struct {
	ID        string
	UserID    string
	BookingID string
	Channel   string
	Recipient string
	Subject   string
	Body      string
	Status    string
	ReadAt    *time.Time
	CreatedAt time.Time
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert runs inside the caller's transaction so the notification row and
// its outbox event commit together.
func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, n Notification) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO notifications (user_id, booking_id, channel, recipient, subject, body, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, n.UserID, n.BookingID, n.Channel, n.Recipient, n.Subject, n.Body, n.Status).Scan(&id)
	return id, err
}

func (r *Repository) ListForUser(ctx context.Context, userID string, limit int) ([]Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, booking_id, channel, recipient, subject, body, status, read_at, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.BookingID, &n.Channel, &n.Recipient, &n.Subject, &n.Body, &n.Status, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return notifications, nil
}

// MarkRead is scoped to the owner so one user cannot touch another's rows.
func (r *Repository) MarkRead(ctx context.Context, id string, userID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE notifications
		SET read_at = now()
		WHERE id = $1 AND user_id = $2 AND read_at IS NULL
	`, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
