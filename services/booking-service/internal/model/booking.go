package model

import "time"

// Assignment lifecycle of a booking. Completed and cancelled bookings no
// longer occupy a barber's time.
const (
	StatusPending   = "pending"
	StatusAssigned  = "assigned"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// DefaultDurationMinutes is used when a booking's service row is missing or
// carries no usable duration.
const DefaultDurationMinutes = 30

type Booking struct {
	ID              string
	ClientID        string
	ServiceID       string
	BarberID        string // empty until assigned
	StartTime       time.Time
	DurationMinutes int // resolved once at load, never zero for stored rows
	Status          string
	PaymentStatus   string
	PaymentMethod   string
	CancelReason    string
	CancelledAt     *time.Time
	CreatedAt       time.Time
}

// Duration returns the booking's resolved service duration, falling back to
// the default when the stored value is unusable.
func (b Booking) Duration() time.Duration {
	mins := b.DurationMinutes
	if mins <= 0 {
		mins = DefaultDurationMinutes
	}
	return time.Duration(mins) * time.Minute
}

// Active reports whether the booking still occupies its barber's time.
func (b Booking) Active() bool {
	return b.Status == StatusPending || b.Status == StatusAssigned
}

// End is the half-open end of the booking's interval.
func (b Booking) End() time.Time {
	return b.StartTime.Add(b.Duration())
}

type Barber struct {
	ID          string
	UserID      string
	Name        string
	Phone       string
	Bio         string
	Active      bool
	WorkStart   string // wall clock "HH:MM"
	WorkEnd     string
	Specialties []string
	CreatedAt   time.Time
}

type Service struct {
	ID              string
	Name            string
	DurationMinutes int
	Price           string
	Active          bool
	CreatedAt       time.Time
}
