package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dreyes/barberflow/services/booking-service/internal/model"
	"github.com/dreyes/barberflow/services/booking-service/internal/schedule"
)

// Stubs embed the store interfaces so any call outside the path under test
// panics with a nil method.
type stubBookingStore struct {
	bookingStore
	booking model.Booking
	getErr  error
	listErr error
}

func (s *stubBookingStore) Get(ctx context.Context, id string) (model.Booking, error) {
	if s.getErr != nil {
		return model.Booking{}, s.getErr
	}
	return s.booking, nil
}

func (s *stubBookingStore) ListActiveForDay(ctx context.Context, day time.Time) ([]model.Booking, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return nil, nil
}

type stubBarberStore struct {
	barberStore
	listErr error
}

func (s *stubBarberStore) ListActive(ctx context.Context) ([]model.Barber, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return nil, nil
}

func postAssign(t *testing.T, bookings bookingStore, barbers barberStore) *httptest.ResponseRecorder {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewBookingHandler(bookings, barbers, nil, nil, logger, schedule.Options{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/bk-1/assign", nil)
	rec := httptest.NewRecorder()
	h.Assign(rec, req)
	return rec
}

func TestAssignDegradesOnReadFailure(t *testing.T) {
	pending := model.Booking{ID: "bk-1", Status: model.StatusPending, StartTime: time.Now().Add(24 * time.Hour)}
	readErr := errors.New("connection refused")

	cases := []struct {
		name     string
		bookings *stubBookingStore
		barbers  *stubBarberStore
	}{
		{"booking load fails", &stubBookingStore{getErr: readErr}, &stubBarberStore{}},
		{"barber list fails", &stubBookingStore{booking: pending}, &stubBarberStore{listErr: readErr}},
		{"day bookings fail", &stubBookingStore{booking: pending, listErr: readErr}, &stubBarberStore{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postAssign(t, tc.bookings, tc.barbers)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			var resp assignResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Assigned {
				t.Fatal("expected assigned=false on read failure")
			}
			if resp.BookingID != "bk-1" {
				t.Fatalf("expected booking id bk-1, got %q", resp.BookingID)
			}
		})
	}
}

func TestAssignUnknownBookingIs404(t *testing.T) {
	rec := postAssign(t, &stubBookingStore{getErr: pgx.ErrNoRows}, &stubBarberStore{})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAssignNoCandidates(t *testing.T) {
	pending := model.Booking{ID: "bk-1", Status: model.StatusPending, StartTime: time.Now().Add(24 * time.Hour)}
	rec := postAssign(t, &stubBookingStore{booking: pending}, &stubBarberStore{})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp assignResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Assigned || resp.BarberID != "" {
		t.Fatalf("expected no assignment with no active barbers, got %+v", resp)
	}
}

func TestPathTail(t *testing.T) {
	cases := []struct {
		path   string
		suffix string
		want   string
	}{
		{"/api/v1/bookings/abc-123/assign", "/assign", "abc-123"},
		{"/api/v1/bookings/abc-123/cancel", "/cancel", "abc-123"},
		{"/api/v1/bookings/abc-123/assign", "/cancel", ""},
		{"/assign", "/assign", ""},
		{"abc/assign", "/assign", "abc"},
	}
	for _, tc := range cases {
		if got := pathTail(tc.path, tc.suffix); got != tc.want {
			t.Fatalf("pathTail(%q, %q) = %q, want %q", tc.path, tc.suffix, got, tc.want)
		}
	}
}

func TestValidClockPair(t *testing.T) {
	cases := []struct {
		start string
		end   string
		want  bool
	}{
		{"", "", true},
		{"09:00", "18:00", true},
		{"18:00", "09:00", false},
		{"09:00", "09:00", false},
		{"9am", "18:00", false},
		{"09:00", "", false},
		{"", "18:00", false},
	}
	for _, tc := range cases {
		if got := validClockPair(tc.start, tc.end); got != tc.want {
			t.Fatalf("validClockPair(%q, %q) = %v, want %v", tc.start, tc.end, got, tc.want)
		}
	}
}
