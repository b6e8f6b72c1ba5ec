package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dreyes/barberflow/libs/db"
	"github.com/dreyes/barberflow/services/booking-service/internal/model"
)

type BookingRepository struct {
	pool *db.Pool
}

type IdempotencyRecord struct {
	ClientID        string
	IdempotencyKey  string
	BookingID       string
	StatusCode      int
	ResponsePayload []byte
}

// BookingFilter narrows List. Zero-valued fields are skipped.
type BookingFilter struct {
	Day      time.Time
	Status   string
	BarberID string
	ClientID string
	Limit    int
}

func NewBookingRepository(pool *db.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *BookingRepository) LockIdempotencyKey(ctx context.Context, tx pgx.Tx, clientID, key string) (IdempotencyRecord, bool, error) {
	rec, err := r.selectIdempotencyForUpdate(ctx, tx, clientID, key)
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return IdempotencyRecord{}, false, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO booking_idempotency_keys (client_id, idempotency_key)
		VALUES ($1, $2)
		ON CONFLICT (client_id, idempotency_key) DO NOTHING
	`, clientID, key)
	if err != nil {
		return IdempotencyRecord{}, false, err
	}

	rec, err = r.selectIdempotencyForUpdate(ctx, tx, clientID, key)
	if err != nil {
		return IdempotencyRecord{}, false, err
	}
	return rec, false, nil
}

func (r *BookingRepository) FinalizeIdempotency(ctx context.Context, tx pgx.Tx, clientID, key, bookingID string, statusCode int, response []byte) error {
	_, err := tx.Exec(ctx, `
		UPDATE booking_idempotency_keys
		SET booking_id = $3,
			status_code = $4,
			response_payload = $5,
			updated_at = now()
		WHERE client_id = $1 AND idempotency_key = $2
	`, clientID, key, bookingID, statusCode, response)
	return err
}

// Create inserts the booking with its duration already resolved by the
// caller, so every later read sees the same value even if the service's
// duration changes afterwards.
func (r *BookingRepository) Create(ctx context.Context, tx pgx.Tx, bk *model.Booking) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO bookings
			(client_id, service_id, barber_id, start_time, duration_minutes, status, payment_status, payment_method)
		VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, $6, $7, $8)
		RETURNING id
	`, bk.ClientID, bk.ServiceID, bk.BarberID, bk.StartTime, bk.DurationMinutes,
		bk.Status, bk.PaymentStatus, bk.PaymentMethod).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *BookingRepository) Get(ctx context.Context, id string) (model.Booking, error) {
	return scanBooking(r.pool.QueryRow(ctx, selectBooking+` WHERE id = $1`, id))
}

func (r *BookingRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Booking, error) {
	return scanBooking(tx.QueryRow(ctx, selectBooking+` WHERE id = $1 FOR UPDATE`, id))
}

func (r *BookingRepository) List(ctx context.Context, f BookingFilter) ([]model.Booking, error) {
	query := selectBooking + ` WHERE 1=1`
	var args []any

	if !f.Day.IsZero() {
		y, m, d := f.Day.Date()
		dayStart := time.Date(y, m, d, 0, 0, 0, 0, f.Day.Location())
		args = append(args, dayStart, dayStart.AddDate(0, 0, 1))
		query += fmt.Sprintf(" AND start_time >= $%d AND start_time < $%d", len(args)-1, len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.BarberID != "" {
		args = append(args, f.BarberID)
		query += fmt.Sprintf(" AND barber_id = $%d", len(args))
	}
	if f.ClientID != "" {
		args = append(args, f.ClientID)
		query += fmt.Sprintf(" AND client_id = $%d", len(args))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY start_time DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		bk, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, bk)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return bookings, nil
}

// ListActiveForDay returns the bookings that block barber time on the given
// calendar day, for the availability and slot sweeps.
func (r *BookingRepository) ListActiveForDay(ctx context.Context, day time.Time) ([]model.Booking, error) {
	y, m, d := day.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	rows, err := r.pool.Query(ctx, selectBooking+`
		WHERE start_time >= $1 AND start_time < $2 AND status IN ($3, $4)
		ORDER BY start_time ASC
	`, dayStart, dayStart.AddDate(0, 0, 1), model.StatusPending, model.StatusAssigned)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		bk, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, bk)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return bookings, nil
}

// Reschedule moves a still-active booking. The caller has already re-checked
// availability with the booking's own id excluded.
func (r *BookingRepository) Reschedule(ctx context.Context, tx pgx.Tx, id, serviceID string, start time.Time, durationMinutes int) error {
	tag, err := tx.Exec(ctx, `
		UPDATE bookings
		SET service_id = $2, start_time = $3, duration_minutes = $4
		WHERE id = $1 AND status IN ($5, $6)
	`, id, serviceID, start, durationMinutes, model.StatusPending, model.StatusAssigned)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Assign sets the barber on a still-unassigned booking. The barber_id IS NULL
// guard makes the whole assignment one conditional write, so two concurrent
// assigners cannot both win.
func (r *BookingRepository) Assign(ctx context.Context, tx pgx.Tx, bookingID, barberID string) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE bookings
		SET barber_id = $2, status = $3
		WHERE id = $1 AND barber_id IS NULL AND status = $4
	`, bookingID, barberID, model.StatusAssigned, model.StatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *BookingRepository) Cancel(ctx context.Context, tx pgx.Tx, id, reason string) (time.Time, error) {
	var cancelledAt time.Time
	err := tx.QueryRow(ctx, `
		UPDATE bookings
		SET status = $2,
			cancelled_at = now(),
			cancellation_reason = $3
		WHERE id = $1 AND status IN ($4, $5)
		RETURNING cancelled_at
	`, id, model.StatusCancelled, reason, model.StatusPending, model.StatusAssigned).Scan(&cancelledAt)
	return cancelledAt, err
}

func (r *BookingRepository) Complete(ctx context.Context, tx pgx.Tx, id, paymentMethod string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE bookings
		SET status = $2,
			payment_status = 'paid',
			payment_method = $3
		WHERE id = $1 AND status = $4
	`, id, model.StatusCompleted, paymentMethod, model.StatusAssigned)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

const selectBooking = `
	SELECT id::text, client_id::text, service_id::text, COALESCE(barber_id::text, ''),
		start_time, duration_minutes, status, payment_status, COALESCE(payment_method, ''),
		COALESCE(cancellation_reason, ''), cancelled_at, created_at
	FROM bookings`

func scanBooking(row pgx.Row) (model.Booking, error) {
	var bk model.Booking
	var cancelledAt *time.Time
	err := row.Scan(
		&bk.ID,
		&bk.ClientID,
		&bk.ServiceID,
		&bk.BarberID,
		&bk.StartTime,
		&bk.DurationMinutes,
		&bk.Status,
		&bk.PaymentStatus,
		&bk.PaymentMethod,
		&bk.CancelReason,
		&cancelledAt,
		&bk.CreatedAt,
	)
	if err != nil {
		return model.Booking{}, err
	}
	bk.CancelledAt = cancelledAt
	return bk, nil
}

// IsConflict matches the exclusion constraint on overlapping barber bookings.
// The in-process availability check is an optimistic pre-filter; the
// constraint is what actually stops a double-booking under concurrency.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func (r *BookingRepository) selectIdempotencyForUpdate(ctx context.Context, tx pgx.Tx, clientID, key string) (IdempotencyRecord, error) {
	var rec IdempotencyRecord
	var responseText string
	err := tx.QueryRow(ctx, `
		SELECT client_id::text,
			idempotency_key,
			COALESCE(booking_id::text, ''),
			COALESCE(status_code, 0),
			COALESCE(response_payload::text, '')
		FROM booking_idempotency_keys
		WHERE client_id = $1 AND idempotency_key = $2
		FOR UPDATE
	`, clientID, key).Scan(
		&rec.ClientID,
		&rec.IdempotencyKey,
		&rec.BookingID,
		&rec.StatusCode,
		&responseText,
	)
	if err != nil {
		return IdempotencyRecord{}, err
	}
	if responseText != "" {
		rec.ResponsePayload = []byte(responseText)
	}
	return rec, nil
}
