// Package events defines the booking domain events and their topics.
package events

import "time"

const (
	TopicBookingCreated   = "booking.created.v1"
	TopicBookingAssigned  = "booking.assigned.v1"
	TopicBookingCancelled = "booking.cancelled.v1"
	TopicBookingCompleted = "booking.completed.v1"
)

// BookingCreated is emitted when a booking is accepted, whether or not a
// barber was requested up front.
type BookingCreated struct {
	BookingID       string    `json:"booking_id"`
	ClientID        string    `json:"client_id"`
	ServiceID       string    `json:"service_id"`
	BarberID        string    `json:"barber_id,omitempty"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
}

type BookingAssigned struct {
	BookingID string    `json:"booking_id"`
	ClientID  string    `json:"client_id"`
	BarberID  string    `json:"barber_id"`
	StartTime time.Time `json:"start_time"`
}

type BookingCancelled struct {
	BookingID   string    `json:"booking_id"`
	ClientID    string    `json:"client_id"`
	BarberID    string    `json:"barber_id,omitempty"`
	StartTime   time.Time `json:"start_time"`
	Reason      string    `json:"reason,omitempty"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// BookingCompleted carries the price so analytics can total revenue without
// a lookup back into the catalog.
type BookingCompleted struct {
	BookingID     string    `json:"booking_id"`
	ClientID      string    `json:"client_id"`
	BarberID      string    `json:"barber_id"`
	ServiceID     string    `json:"service_id"`
	StartTime     time.Time `json:"start_time"`
	Price         string    `json:"price"`
	PaymentMethod string    `json:"payment_method"`
}
