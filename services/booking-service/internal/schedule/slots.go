package schedule

import (
	"sort"
	"time"

	"github.com/dreyes/barberflow/services/booking-service/internal/model"
)

const (
	// DefaultStep is the coarsest spacing between candidate slot starts.
	DefaultStep = 15 * time.Minute
	// DefaultLeadTime is the minimum notice for same-day bookings.
	DefaultLeadTime = 30 * time.Minute
)

// Options tunes the slot sweep. Zero values fall back to the defaults above.
type Options struct {
	Step     time.Duration
	LeadTime time.Duration
}

func (o Options) step(duration time.Duration) time.Duration {
	step := o.Step
	if step <= 0 {
		step = DefaultStep
	}
	// Never generate candidate starts coarser than the requested duration,
	// so short services are not under-served by the grid.
	if duration < step {
		step = duration
	}
	return step
}

func (o Options) leadTime() time.Duration {
	if o.LeadTime <= 0 {
		return DefaultLeadTime
	}
	return o.LeadTime
}

// Slots sweeps candidate start times for a booking of the given duration on
// day and returns the union across barbers as sorted "HH:MM" strings. A slot
// is present when at least one active barber could take it; which barber is
// resolved later, at booking or assignment time. dayBookings is that day's
// full booking list, fetched once and filtered per barber inside the sweep.
//
// When day is now's calendar day the sweep starts no earlier than
// now+leadTime rounded up to the next step multiple, so a customer cannot
// book an appointment about to start.
func Slots(barbers []model.Barber, dayBookings []model.Booking, day time.Time, duration time.Duration, now time.Time, opts Options) []string {
	if duration <= 0 {
		return []string{}
	}

	step := opts.step(duration)
	seen := make(map[string]struct{})

	for _, b := range barbers {
		if !b.Active {
			continue
		}
		win, ok := WorkingWindow(b, day)
		if !ok {
			continue
		}

		start := win.Start
		if sameDate(day, now) {
			minStart := roundUpToStep(now.Add(opts.leadTime()), step)
			if start.Before(minStart) {
				start = minStart
			}
		}

		for t := start; !t.Add(duration).After(win.End); t = t.Add(step) {
			candidate := Interval{Start: t, End: t.Add(duration)}
			if overlapsAny(b.ID, candidate, dayBookings) {
				continue
			}
			seen[t.Format("15:04")] = struct{}{}
		}
	}

	slots := make([]string, 0, len(seen))
	for s := range seen {
		slots = append(slots, s)
	}
	// Lexicographic order equals chronological order for 24h HH:MM.
	sort.Strings(slots)
	return slots
}

func overlapsAny(barberID string, candidate Interval, bookings []model.Booking) bool {
	for _, bk := range bookings {
		if bk.BarberID != barberID || !bk.Active() {
			continue
		}
		if candidate.Overlaps(Interval{Start: bk.StartTime, End: bk.End()}) {
			return true
		}
	}
	return false
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

// roundUpToStep rounds t up to the next multiple of step counted from that
// day's midnight, so the result lands on the same grid as the sweep.
func roundUpToStep(t time.Time, step time.Duration) time.Time {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	offset := t.Sub(midnight)
	if rem := offset % step; rem != 0 {
		offset += step - rem
	}
	return midnight.Add(offset)
}
