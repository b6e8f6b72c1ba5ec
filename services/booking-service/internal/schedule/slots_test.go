package schedule

import (
	"reflect"
	"testing"
	"time"

	"github.com/dreyes/barberflow/services/booking-service/internal/model"
)

// notToday is far from testDay so the lead-time rule never kicks in.
var notToday = time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

func TestSlots_AroundExistingBooking(t *testing.T) {
	barbers := []model.Barber{testBarber("b1")}
	day := []model.Booking{booking("c1", "b1", "10:00", 30, model.StatusAssigned)}

	slots := Slots(barbers, day, testDay, 30*time.Minute, notToday, Options{})

	wantPresent := []string{"09:00", "09:15", "09:30", "09:45", "10:30"}
	wantAbsent := []string{"10:00", "10:15"}
	got := make(map[string]struct{}, len(slots))
	for _, s := range slots {
		got[s] = struct{}{}
	}
	for _, s := range wantPresent {
		if _, ok := got[s]; !ok {
			t.Fatalf("slot %s missing from %v", s, slots)
		}
	}
	for _, s := range wantAbsent {
		if _, ok := got[s]; ok {
			t.Fatalf("slot %s should be blocked", s)
		}
	}

	if slots[0] != "09:00" {
		t.Fatalf("first slot = %s", slots[0])
	}
	if last := slots[len(slots)-1]; last != "16:30" {
		t.Fatalf("last slot = %s, want 16:30 (a 30-minute service must end by 17:00)", last)
	}
}

func TestSlots_NeverExceedClosing(t *testing.T) {
	barbers := []model.Barber{testBarber("b1")}

	slots := Slots(barbers, nil, testDay, 45*time.Minute, notToday, Options{})
	for _, s := range slots {
		if s > "16:15" {
			t.Fatalf("slot %s would run past 17:00 with a 45-minute service", s)
		}
	}
}

func TestSlots_UnionAcrossBarbers(t *testing.T) {
	free := testBarber("b1")
	busy := testBarber("b2")

	// b2 is booked solid all day.
	var day []model.Booking
	day = append(day, booking("c1", "b2", "09:00", 480, model.StatusAssigned))

	slots := Slots([]model.Barber{busy, free}, day, testDay, 30*time.Minute, notToday, Options{})
	onlyFree := Slots([]model.Barber{free}, nil, testDay, 30*time.Minute, notToday, Options{})

	if !reflect.DeepEqual(slots, onlyFree) {
		t.Fatalf("union = %v, want the free barber's list %v", slots, onlyFree)
	}
}

func TestSlots_DeduplicatesAcrossBarbers(t *testing.T) {
	b1 := testBarber("b1")
	b2 := testBarber("b2")

	slots := Slots([]model.Barber{b1, b2}, nil, testDay, 30*time.Minute, notToday, Options{})
	seen := make(map[string]int)
	for _, s := range slots {
		seen[s]++
		if seen[s] > 1 {
			t.Fatalf("slot %s appears twice", s)
		}
	}
}

func TestSlots_StepNeverCoarserThanDuration(t *testing.T) {
	barbers := []model.Barber{testBarber("b1")}

	slots := Slots(barbers, nil, testDay, 10*time.Minute, notToday, Options{})
	got := make(map[string]struct{}, len(slots))
	for _, s := range slots {
		got[s] = struct{}{}
	}
	// A 10-minute service sweeps on a 10-minute grid, not the 15-minute one.
	for _, s := range []string{"09:00", "09:10", "09:20"} {
		if _, ok := got[s]; !ok {
			t.Fatalf("slot %s missing with 10-minute granularity: %v", s, slots)
		}
	}
}

func TestSlots_SameDayLeadTime(t *testing.T) {
	barbers := []model.Barber{testBarber("b1")}
	now := at("09:37") // same calendar day as testDay

	slots := Slots(barbers, nil, testDay, 30*time.Minute, now, Options{})
	if len(slots) == 0 {
		t.Fatal("expected slots for the rest of the day")
	}
	// 09:37 + 30m lead = 10:07, rounded up to the next 15-minute mark.
	if slots[0] != "10:15" {
		t.Fatalf("first same-day slot = %s, want 10:15", slots[0])
	}
}

func TestSlots_LeadTimeAlreadyOnGrid(t *testing.T) {
	barbers := []model.Barber{testBarber("b1")}
	now := at("09:30")

	slots := Slots(barbers, nil, testDay, 30*time.Minute, now, Options{})
	// 09:30 + 30m = 10:00 exactly; no extra rounding.
	if slots[0] != "10:00" {
		t.Fatalf("first same-day slot = %s, want 10:00", slots[0])
	}
}

func TestSlots_Idempotent(t *testing.T) {
	barbers := []model.Barber{testBarber("b1"), testBarber("b2")}
	day := []model.Booking{
		booking("c1", "b1", "11:00", 30, model.StatusAssigned),
		booking("c2", "b2", "14:00", 60, model.StatusPending),
	}

	first := Slots(barbers, day, testDay, 30*time.Minute, notToday, Options{})
	second := Slots(barbers, day, testDay, 30*time.Minute, notToday, Options{})
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical inputs produced %v then %v", first, second)
	}
}

func TestSlots_EmptyForNoBarbersOrBadInput(t *testing.T) {
	if got := Slots(nil, nil, testDay, 30*time.Minute, notToday, Options{}); len(got) != 0 {
		t.Fatalf("no barbers should yield no slots, got %v", got)
	}
	inactive := testBarber("b1")
	inactive.Active = false
	if got := Slots([]model.Barber{inactive}, nil, testDay, 30*time.Minute, notToday, Options{}); len(got) != 0 {
		t.Fatalf("inactive barber should yield no slots, got %v", got)
	}
	if got := Slots([]model.Barber{testBarber("b1")}, nil, testDay, 0, notToday, Options{}); len(got) != 0 {
		t.Fatalf("zero duration should yield no slots, got %v", got)
	}
}

func TestRoundUpToStep(t *testing.T) {
	cases := []struct {
		in   string
		step time.Duration
		want string
	}{
		{"09:37", 15 * time.Minute, "09:45"},
		{"09:45", 15 * time.Minute, "09:45"},
		{"09:46", 15 * time.Minute, "10:00"},
		{"09:01", 10 * time.Minute, "09:10"},
		{"23:55", 15 * time.Minute, "00:00"}, // rolls into the next day
	}
	for _, tc := range cases {
		got := roundUpToStep(at(tc.in), tc.step)
		if got.Format("15:04") != tc.want {
			t.Fatalf("roundUpToStep(%s, %s) = %s, want %s", tc.in, tc.step, got.Format("15:04"), tc.want)
		}
	}
}
