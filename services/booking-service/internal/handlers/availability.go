package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/dreyes/barberflow/services/booking-service/internal/model"
	"github.com/dreyes/barberflow/services/booking-service/internal/schedule"
	"github.com/dreyes/barberflow/services/booking-service/internal/storage"
)

type slotsResponse struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

type checkResponse struct {
	Available bool `json:"available"`
}

// Slots returns the open start times for a date, unioned across the active
// barbers. Store failures degrade to an empty list: a client asking "when can
// I come in" gets "nothing free" instead of an error page.
func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	dateStr := strings.TrimSpace(q.Get("date"))
	serviceID := strings.TrimSpace(q.Get("service_id"))
	barberID := strings.TrimSpace(q.Get("barber_id"))
	if dateStr == "" {
		http.Error(w, "date required", http.StatusBadRequest)
		return
	}

	day, err := time.ParseInLocation("2006-01-02", dateStr, time.UTC)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	duration := time.Duration(model.DefaultDurationMinutes) * time.Minute
	if serviceID != "" {
		if svc, err := h.services.Get(ctx, serviceID); err == nil && svc.DurationMinutes > 0 {
			duration = time.Duration(svc.DurationMinutes) * time.Minute
		} else if err != nil && !storage.IsNotFound(err) {
			h.logger.Warn("service lookup failed for slots", "service_id", serviceID, "err", err)
			writeJSON(w, http.StatusOK, slotsResponse{Date: dateStr, Slots: []string{}})
			return
		}
	}

	barbers, err := h.barbers.ListActive(ctx)
	if err != nil {
		h.logger.Warn("barber load failed for slots", "err", err)
		writeJSON(w, http.StatusOK, slotsResponse{Date: dateStr, Slots: []string{}})
		return
	}
	if barberID != "" {
		filtered := barbers[:0]
		for _, b := range barbers {
			if b.ID == barberID {
				filtered = append(filtered, b)
			}
		}
		barbers = filtered
	}

	dayBookings, err := h.bookings.ListActiveForDay(ctx, day)
	if err != nil {
		h.logger.Warn("booking load failed for slots", "err", err)
		writeJSON(w, http.StatusOK, slotsResponse{Date: dateStr, Slots: []string{}})
		return
	}

	slots := schedule.Slots(barbers, dayBookings, day, duration, h.now(), h.opts)
	writeJSON(w, http.StatusOK, slotsResponse{Date: dateStr, Slots: slots})
}

// Check answers whether one barber can take a booking at one moment.
// Failures and unknowns read as unavailable.
func (h *BookingHandler) Check(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	barberID := strings.TrimSpace(q.Get("barber_id"))
	serviceID := strings.TrimSpace(q.Get("service_id"))
	startStr := strings.TrimSpace(q.Get("start_time"))
	excludeID := strings.TrimSpace(q.Get("exclude_booking_id"))
	if barberID == "" || startStr == "" {
		http.Error(w, "barber_id and start_time required", http.StatusBadRequest)
		return
	}

	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	duration := time.Duration(model.DefaultDurationMinutes) * time.Minute
	if serviceID != "" {
		if svc, err := h.services.Get(ctx, serviceID); err == nil && svc.DurationMinutes > 0 {
			duration = time.Duration(svc.DurationMinutes) * time.Minute
		}
	}

	free, err := h.barberFree(ctx, barberID, start, duration, excludeID)
	if err != nil {
		h.logger.Warn("availability check failed", "barber_id", barberID, "err", err)
		writeJSON(w, http.StatusOK, checkResponse{Available: false})
		return
	}
	writeJSON(w, http.StatusOK, checkResponse{Available: free})
}
