package schedule

import (
	"testing"
	"time"

	"github.com/dreyes/barberflow/services/booking-service/internal/model"
)

var testDay = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func at(hm string) time.Time {
	parsed, err := time.Parse("15:04", hm)
	if err != nil {
		panic(err)
	}
	return testDay.Add(time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute)
}

func testBarber(id string) model.Barber {
	return model.Barber{ID: id, Name: "Marco", Active: true, WorkStart: "09:00", WorkEnd: "17:00"}
}

func booking(id, barberID, startHM string, mins int, status string) model.Booking {
	return model.Booking{
		ID:              id,
		BarberID:        barberID,
		StartTime:       at(startHM),
		DurationMinutes: mins,
		Status:          status,
	}
}

func TestWorkingWindow(t *testing.T) {
	win, ok := WorkingWindow(testBarber("b1"), testDay)
	if !ok {
		t.Fatal("expected a valid window")
	}
	if !win.Start.Equal(at("09:00")) || !win.End.Equal(at("17:00")) {
		t.Fatalf("window = [%s, %s)", win.Start, win.End)
	}

	for _, b := range []model.Barber{
		{ID: "x", Active: true, WorkStart: "", WorkEnd: "17:00"},
		{ID: "x", Active: true, WorkStart: "9am", WorkEnd: "17:00"},
		{ID: "x", Active: true, WorkStart: "17:00", WorkEnd: "09:00"},
		{ID: "x", Active: true, WorkStart: "10:00", WorkEnd: "10:00"},
		{ID: "x", Active: true, WorkStart: "25:00", WorkEnd: "26:00"},
	} {
		if _, ok := WorkingWindow(b, testDay); ok {
			t.Fatalf("expected no window for hours %q-%q", b.WorkStart, b.WorkEnd)
		}
	}
}

func TestIsAvailable_WorkingHoursBound(t *testing.T) {
	b := testBarber("b1")

	if !IsAvailable(b, at("09:00"), 30*time.Minute, nil, "") {
		t.Fatal("09:00 should fit")
	}
	if !IsAvailable(b, at("16:30"), 30*time.Minute, nil, "") {
		t.Fatal("16:30 should fit exactly against closing")
	}
	if IsAvailable(b, at("08:59"), 30*time.Minute, nil, "") {
		t.Fatal("one minute before opening must be rejected")
	}
	if IsAvailable(b, at("16:31"), 30*time.Minute, nil, "") {
		t.Fatal("running one minute past closing must be rejected")
	}
}

func TestIsAvailable_OverlapsByStatus(t *testing.T) {
	b := testBarber("b1")

	cases := []struct {
		status string
		want   bool
	}{
		{model.StatusPending, false},
		{model.StatusAssigned, false},
		{model.StatusCompleted, true},
		{model.StatusCancelled, true},
	}
	for _, tc := range cases {
		day := []model.Booking{booking("c1", "b1", "10:00", 30, tc.status)}
		if got := IsAvailable(b, at("10:15"), 30*time.Minute, day, ""); got != tc.want {
			t.Fatalf("status %s: available = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestIsAvailable_AdjacentBookingDoesNotBlock(t *testing.T) {
	b := testBarber("b1")
	day := []model.Booking{booking("c1", "b1", "10:00", 30, model.StatusAssigned)}

	if !IsAvailable(b, at("10:30"), 30*time.Minute, day, "") {
		t.Fatal("booking starting when another ends must be allowed")
	}
	if !IsAvailable(b, at("09:30"), 30*time.Minute, day, "") {
		t.Fatal("booking ending when another starts must be allowed")
	}
}

func TestIsAvailable_ExcludeSelfOnEdit(t *testing.T) {
	b := testBarber("b1")
	day := []model.Booking{booking("c1", "b1", "10:00", 30, model.StatusAssigned)}

	if IsAvailable(b, at("10:00"), 30*time.Minute, day, "") {
		t.Fatal("slot taken by c1")
	}
	if !IsAvailable(b, at("10:00"), 30*time.Minute, day, "c1") {
		t.Fatal("re-checking c1's own edit must skip its row")
	}
}

func TestIsAvailable_IgnoresOtherBarbers(t *testing.T) {
	b := testBarber("b1")
	day := []model.Booking{booking("c1", "b2", "10:00", 30, model.StatusAssigned)}

	if !IsAvailable(b, at("10:00"), 30*time.Minute, day, "") {
		t.Fatal("another barber's booking must not block b1")
	}
}

func TestIsAvailable_FailsClosed(t *testing.T) {
	inactive := testBarber("b1")
	inactive.Active = false
	if IsAvailable(inactive, at("10:00"), 30*time.Minute, nil, "") {
		t.Fatal("inactive barber must be unavailable")
	}

	broken := testBarber("b1")
	broken.WorkStart = ""
	if IsAvailable(broken, at("10:00"), 30*time.Minute, nil, "") {
		t.Fatal("missing working hours must be unavailable")
	}

	if IsAvailable(testBarber("b1"), at("10:00"), 0, nil, "") {
		t.Fatal("non-positive duration must be unavailable")
	}
}

func TestIsAvailable_UsesExistingBookingOwnDuration(t *testing.T) {
	b := testBarber("b1")
	// 60-minute booking at 10:00 blocks 10:45 even though the candidate is
	// only 30 minutes.
	day := []model.Booking{booking("c1", "b1", "10:00", 60, model.StatusAssigned)}

	if IsAvailable(b, at("10:45"), 30*time.Minute, day, "") {
		t.Fatal("candidate inside a longer booking must be rejected")
	}
	if !IsAvailable(b, at("11:00"), 30*time.Minute, day, "") {
		t.Fatal("candidate after the longer booking must be allowed")
	}
}

func TestIsAvailable_FallbackDurationForUnresolvedService(t *testing.T) {
	b := testBarber("b1")
	// Duration 0 in the row resolves to the 30-minute default.
	day := []model.Booking{booking("c1", "b1", "10:00", 0, model.StatusAssigned)}

	if IsAvailable(b, at("10:15"), 30*time.Minute, day, "") {
		t.Fatal("fallback duration must still block 10:15")
	}
	if !IsAvailable(b, at("10:30"), 30*time.Minute, day, "") {
		t.Fatal("fallback duration ends at 10:30")
	}
}
