package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/dreyes/barberflow/services/notification-service/internal/storage"
)

func TestBookingCreatedMessage(t *testing.T) {
	start := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

	subject, body := bookingCreatedMessage(bookingCreatedPayload{
		BookingID: "b-1",
		ClientID:  "c-1",
		BarberID:  "barber-1",
		StartTime: start,
	})
	if subject != "Booking confirmed" {
		t.Fatalf("unexpected subject: %q", subject)
	}
	if !strings.Contains(body, "Sat 14 Mar 2026 at 10:30") {
		t.Fatalf("body missing start time: %q", body)
	}
	if strings.Contains(body, "assigned shortly") {
		t.Fatalf("barber already chosen, body should not promise assignment: %q", body)
	}

	_, body = bookingCreatedMessage(bookingCreatedPayload{
		BookingID: "b-2",
		ClientID:  "c-1",
		StartTime: start,
	})
	if !strings.Contains(body, "assigned shortly") {
		t.Fatalf("unassigned booking should mention pending barber: %q", body)
	}
}

func TestBookingCancelledMessage(t *testing.T) {
	start := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

	_, body := bookingCancelledMessage(bookingCancelledPayload{
		BookingID: "b-1",
		ClientID:  "c-1",
		StartTime: start,
		Reason:    "client request",
	})
	if !strings.Contains(body, "Reason: client request.") {
		t.Fatalf("body missing reason: %q", body)
	}

	_, body = bookingCancelledMessage(bookingCancelledPayload{
		BookingID: "b-1",
		ClientID:  "c-1",
		StartTime: start,
	})
	if strings.Contains(body, "Reason:") {
		t.Fatalf("body should omit empty reason: %q", body)
	}
}

func TestPickChannel(t *testing.T) {
	cases := []struct {
		name      string
		contact   storage.Contact
		channel   string
		recipient string
	}{
		{"email preferred", storage.Contact{UserID: "u1", Email: "a@b.test", Phone: "+1555"}, "email", "a@b.test"},
		{"sms fallback", storage.Contact{UserID: "u1", Phone: "+1555"}, "sms", "+1555"},
		{"inapp only", storage.Contact{UserID: "u1"}, "inapp", "u1"},
	}
	for _, tc := range cases {
		channel, recipient := pickChannel(tc.contact)
		if channel != tc.channel || recipient != tc.recipient {
			t.Fatalf("%s: got %s/%s, want %s/%s", tc.name, channel, recipient, tc.channel, tc.recipient)
		}
	}
}
