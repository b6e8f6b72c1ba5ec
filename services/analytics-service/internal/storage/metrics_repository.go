package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dreyes/barberflow/libs/db"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// BookingEvent is one consumed booking lifecycle event. OccurredAt is the
// booking's start time; metrics bucket by the day the appointment was for,
// not the day the event arrived.
type BookingEvent struct {
	EventID      string
	EventType    string
	BookingID    string
	BarberID     string
	OccurredAt   time.Time
	RevenueCents int64
}

func (e BookingEvent) increments() (created, assigned, cancelled, completed int) {
	switch e.EventType {
	case "booking.created.v1":
		created = 1
	case "booking.assigned.v1":
		assigned = 1
	case "booking.cancelled.v1":
		cancelled = 1
	case "booking.completed.v1":
		completed = 1
	}
	return
}

// ApplyBookingEvent records the raw event and bumps the daily aggregates in
// one transaction. The raw insert doubles as a dedup guard for replays that
// slip past the inbox.
func (r *Repository) ApplyBookingEvent(ctx context.Context, e BookingEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		INSERT INTO booking_events (event_id, event_type, booking_id, barber_id, occurred_at)
		VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5)
		ON CONFLICT (event_id) DO NOTHING
	`, e.EventID, e.EventType, e.BookingID, e.BarberID, e.OccurredAt.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return tx.Commit(ctx)
	}

	created, assigned, cancelled, completed := e.increments()
	if _, err := tx.Exec(ctx, `
		INSERT INTO daily_booking_metrics (day, created_count, assigned_count, cancelled_count, completed_count, revenue_cents)
		VALUES ($1::date, $2, $3, $4, $5, $6)
		ON CONFLICT (day)
		DO UPDATE SET created_count = daily_booking_metrics.created_count + EXCLUDED.created_count,
		              assigned_count = daily_booking_metrics.assigned_count + EXCLUDED.assigned_count,
		              cancelled_count = daily_booking_metrics.cancelled_count + EXCLUDED.cancelled_count,
		              completed_count = daily_booking_metrics.completed_count + EXCLUDED.completed_count,
		              revenue_cents = daily_booking_metrics.revenue_cents + EXCLUDED.revenue_cents,
		              updated_at = now()
	`, e.OccurredAt.UTC(), created, assigned, cancelled, completed, e.RevenueCents); err != nil {
		return err
	}

	if e.BarberID != "" {
		if _, err := tx.Exec(ctx, `
			INSERT INTO daily_barber_metrics (barber_id, day, assigned_count, cancelled_count, completed_count, revenue_cents)
			VALUES ($1, $2::date, $3, $4, $5, $6)
			ON CONFLICT (barber_id, day)
			DO UPDATE SET assigned_count = daily_barber_metrics.assigned_count + EXCLUDED.assigned_count,
			              cancelled_count = daily_barber_metrics.cancelled_count + EXCLUDED.cancelled_count,
			              completed_count = daily_barber_metrics.completed_count + EXCLUDED.completed_count,
			              revenue_cents = daily_barber_metrics.revenue_cents + EXCLUDED.revenue_cents,
			              updated_at = now()
		`, e.BarberID, e.OccurredAt.UTC(), assigned, cancelled, completed, e.RevenueCents); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *Repository) ApplyNotificationEvent(ctx context.Context, channel string, day time.Time, sentInc, failedInc int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO daily_notification_metrics (day, channel, sent_count, failed_count)
		VALUES ($1::date, $2, $3, $4)
		ON CONFLICT (day, channel)
		DO UPDATE SET sent_count = daily_notification_metrics.sent_count + EXCLUDED.sent_count,
		              failed_count = daily_notification_metrics.failed_count + EXCLUDED.failed_count,
		              updated_at = now()
	`, day.UTC(), channel, sentInc, failedInc)
	return err
}

func (r *Repository) ApplyPurchase(ctx context.Context, day time.Time, revenueCents int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO daily_shop_metrics (day, purchase_count, revenue_cents)
		VALUES ($1::date, 1, $2)
		ON CONFLICT (day)
		DO UPDATE SET purchase_count = daily_shop_metrics.purchase_count + 1,
		              revenue_cents = daily_shop_metrics.revenue_cents + EXCLUDED.revenue_cents,
		              updated_at = now()
	`, day.UTC(), revenueCents)
	return err
}

type DailyShopSummary struct {
	Day          time.Time
	Purchases    int64
	RevenueCents int64
}

func (r *Repository) ShopSummary(ctx context.Context, from, to time.Time) ([]DailyShopSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT day, purchase_count, revenue_cents
		FROM daily_shop_metrics
		WHERE day >= $1::date AND day <= $2::date
		ORDER BY day ASC
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []DailyShopSummary
	for rows.Next() {
		var s DailyShopSummary
		if err := rows.Scan(&s.Day, &s.Purchases, &s.RevenueCents); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return summaries, nil
}

func (r *Repository) RecordSecurityAudit(ctx context.Context, eventType, actorID string, metadata json.RawMessage, createdAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO security_audit_events (event_type, actor_id, metadata, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4)
	`, eventType, actorID, metadata, createdAt.UTC())
	return err
}

type DailySummary struct {
	Day          time.Time
	Created      int64
	Assigned     int64
	Cancelled    int64
	Completed    int64
	RevenueCents int64
}

func (r *Repository) Summary(ctx context.Context, from, to time.Time) ([]DailySummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT day, created_count, assigned_count, cancelled_count, completed_count, revenue_cents
		FROM daily_booking_metrics
		WHERE day >= $1::date AND day <= $2::date
		ORDER BY day ASC
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []DailySummary
	for rows.Next() {
		var s DailySummary
		if err := rows.Scan(&s.Day, &s.Created, &s.Assigned, &s.Cancelled, &s.Completed, &s.RevenueCents); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return summaries, nil
}

type BarberTotal struct {
	BarberID     string
	Assigned     int64
	Cancelled    int64
	Completed    int64
	RevenueCents int64
}

func (r *Repository) BarberTotals(ctx context.Context, from, to time.Time) ([]BarberTotal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT barber_id::text,
		       SUM(assigned_count), SUM(cancelled_count), SUM(completed_count), SUM(revenue_cents)
		FROM daily_barber_metrics
		WHERE day >= $1::date AND day <= $2::date
		GROUP BY barber_id
		ORDER BY SUM(revenue_cents) DESC, barber_id ASC
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []BarberTotal
	for rows.Next() {
		var t BarberTotal
		if err := rows.Scan(&t.BarberID, &t.Assigned, &t.Cancelled, &t.Completed, &t.RevenueCents); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return totals, nil
}

type ChannelTotal struct {
	Channel string
	Sent    int64
	Failed  int64
}

func (r *Repository) NotificationTotals(ctx context.Context, from, to time.Time) ([]ChannelTotal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT channel, SUM(sent_count), SUM(failed_count)
		FROM daily_notification_metrics
		WHERE day >= $1::date AND day <= $2::date
		GROUP BY channel
		ORDER BY channel ASC
	`, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []ChannelTotal
	for rows.Next() {
		var t ChannelTotal
		if err := rows.Scan(&t.Channel, &t.Sent, &t.Failed); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return totals, nil
}
