package schedule

import "github.com/dreyes/barberflow/services/booking-service/internal/model"

// PickLeastLoaded selects the candidate barber with the fewest still-active
// bookings in dayBookings. Ties go to the earlier candidate in listing order,
// so the choice is deterministic. Returns false when candidates is empty.
func PickLeastLoaded(candidates []model.Barber, dayBookings []model.Booking) (model.Barber, bool) {
	var chosen model.Barber
	found := false
	minCount := 0

	for _, b := range candidates {
		count := 0
		for _, bk := range dayBookings {
			if bk.BarberID == b.ID && bk.Active() {
				count++
			}
		}
		if !found || count < minCount {
			chosen = b
			minCount = count
			found = true
		}
	}
	return chosen, found
}
