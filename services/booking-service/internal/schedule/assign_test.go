package schedule

import (
	"testing"

	"github.com/dreyes/barberflow/services/booking-service/internal/model"
)

func TestPickLeastLoaded(t *testing.T) {
	r1 := testBarber("b1")
	r2 := testBarber("b2")

	day := []model.Booking{
		booking("c1", "b1", "09:00", 30, model.StatusAssigned),
		booking("c2", "b1", "11:00", 30, model.StatusPending),
	}

	chosen, ok := PickLeastLoaded([]model.Barber{r1, r2}, day)
	if !ok {
		t.Fatal("expected a pick")
	}
	if chosen.ID != "b2" {
		t.Fatalf("chose %s, want b2 (0 bookings vs 2)", chosen.ID)
	}
}

func TestPickLeastLoaded_IgnoresFinishedBookings(t *testing.T) {
	r1 := testBarber("b1")
	r2 := testBarber("b2")

	day := []model.Booking{
		booking("c1", "b1", "09:00", 30, model.StatusCompleted),
		booking("c2", "b1", "10:00", 30, model.StatusCancelled),
		booking("c3", "b2", "11:00", 30, model.StatusAssigned),
	}

	chosen, _ := PickLeastLoaded([]model.Barber{r1, r2}, day)
	if chosen.ID != "b1" {
		t.Fatalf("chose %s, want b1 (completed/cancelled must not count)", chosen.ID)
	}
}

func TestPickLeastLoaded_TieGoesToFirstListed(t *testing.T) {
	r1 := testBarber("b1")
	r2 := testBarber("b2")

	chosen, _ := PickLeastLoaded([]model.Barber{r2, r1}, nil)
	if chosen.ID != "b2" {
		t.Fatalf("chose %s, want b2 (first in listing order)", chosen.ID)
	}
}

func TestPickLeastLoaded_Empty(t *testing.T) {
	if _, ok := PickLeastLoaded(nil, nil); ok {
		t.Fatal("no candidates must yield no pick")
	}
}
