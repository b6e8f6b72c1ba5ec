package schedule

import (
	"strconv"
	"strings"
	"time"

	"github.com/dreyes/barberflow/services/booking-service/internal/model"
)

// WorkingWindow reinterprets a barber's wall-clock working hours against the
// calendar date of day. Returns false for missing or malformed hours, or when
// the window would be empty.
//
// All times are expected to be in the same location (timezone).
func WorkingWindow(b model.Barber, day time.Time) (Interval, bool) {
	startH, startM, ok := parseClock(b.WorkStart)
	if !ok {
		return Interval{}, false
	}
	endH, endM, ok := parseClock(b.WorkEnd)
	if !ok {
		return Interval{}, false
	}

	y, m, d := day.Date()
	loc := day.Location()
	win := Interval{
		Start: time.Date(y, m, d, startH, startM, 0, 0, loc),
		End:   time.Date(y, m, d, endH, endM, 0, 0, loc),
	}
	if !win.End.After(win.Start) {
		return Interval{}, false
	}
	return win, true
}

// IsAvailable decides whether a booking of the given duration starting at
// start fits inside the barber's working hours without overlapping any of the
// barber's still-active bookings. dayBookings is the full booking list for
// start's calendar day; bookings of other barbers are skipped here so callers
// can fetch the day once and reuse it. excludeID skips a booking's own row
// when re-checking an edit.
//
// Unavailability and absence of data both resolve to false; this function
// never signals an error.
func IsAvailable(b model.Barber, start time.Time, duration time.Duration, dayBookings []model.Booking, excludeID string) bool {
	if !b.Active || duration <= 0 {
		return false
	}

	win, ok := WorkingWindow(b, start)
	if !ok {
		return false
	}

	candidate := Interval{Start: start, End: start.Add(duration)}
	if candidate.Start.Before(win.Start) || candidate.End.After(win.End) {
		return false
	}

	for _, bk := range dayBookings {
		if bk.BarberID != b.ID || !bk.Active() {
			continue
		}
		if excludeID != "" && bk.ID == excludeID {
			continue
		}
		if candidate.Overlaps(Interval{Start: bk.StartTime, End: bk.End()}) {
			return false
		}
	}
	return true
}

func parseClock(s string) (hour int, minute int, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}
