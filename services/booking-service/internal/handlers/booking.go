package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dreyes/barberflow/libs/outbox"
	"github.com/dreyes/barberflow/services/booking-service/internal/events"
	"github.com/dreyes/barberflow/services/booking-service/internal/model"
	"github.com/dreyes/barberflow/services/booking-service/internal/schedule"
	"github.com/dreyes/barberflow/services/booking-service/internal/storage"
)

// The store interfaces cover exactly what the handlers call. The pgx-backed
// repositories in internal/storage satisfy them.
type bookingStore interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	LockIdempotencyKey(ctx context.Context, tx pgx.Tx, clientID, key string) (storage.IdempotencyRecord, bool, error)
	FinalizeIdempotency(ctx context.Context, tx pgx.Tx, clientID, key, bookingID string, statusCode int, response []byte) error
	Create(ctx context.Context, tx pgx.Tx, bk *model.Booking) (string, error)
	Get(ctx context.Context, id string) (model.Booking, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Booking, error)
	List(ctx context.Context, f storage.BookingFilter) ([]model.Booking, error)
	ListActiveForDay(ctx context.Context, day time.Time) ([]model.Booking, error)
	Reschedule(ctx context.Context, tx pgx.Tx, id, serviceID string, start time.Time, durationMinutes int) error
	Assign(ctx context.Context, tx pgx.Tx, bookingID, barberID string) (bool, error)
	Cancel(ctx context.Context, tx pgx.Tx, id, reason string) (time.Time, error)
	Complete(ctx context.Context, tx pgx.Tx, id, paymentMethod string) error
}

type barberStore interface {
	Get(ctx context.Context, id string) (model.Barber, error)
	ListActive(ctx context.Context) ([]model.Barber, error)
}

type serviceStore interface {
	Get(ctx context.Context, id string) (model.Service, error)
}

type BookingHandler struct {
	bookings   bookingStore
	barbers    barberStore
	services   serviceStore
	outboxRepo *outbox.Repository
	logger     *slog.Logger
	opts       schedule.Options
	now        func() time.Time
}

func NewBookingHandler(bookings bookingStore, barbers barberStore, services serviceStore, outboxRepo *outbox.Repository, logger *slog.Logger, opts schedule.Options, now func() time.Time) *BookingHandler {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &BookingHandler{
		bookings:   bookings,
		barbers:    barbers,
		services:   services,
		outboxRepo: outboxRepo,
		logger:     logger,
		opts:       opts,
		now:        now,
	}
}

type createBookingRequest struct {
	ClientID      string `json:"client_id"`
	ServiceID     string `json:"service_id"`
	BarberID      string `json:"barber_id"`
	StartTime     string `json:"start_time"`
	PaymentMethod string `json:"payment_method"`
}

type createBookingResponse struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

type assignResponse struct {
	BookingID string `json:"booking_id"`
	Assigned  bool   `json:"assigned"`
	BarberID  string `json:"barber_id,omitempty"`
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

type cancelBookingResponse struct {
	BookingID   string `json:"booking_id"`
	Status      string `json:"status"`
	CancelledAt string `json:"cancelled_at"`
}

type rescheduleBookingRequest struct {
	StartTime string `json:"start_time"`
	ServiceID string `json:"service_id"`
}

type completeBookingRequest struct {
	PaymentMethod string `json:"payment_method"`
}

type bookingItem struct {
	BookingID       string `json:"booking_id"`
	ClientID        string `json:"client_id"`
	ServiceID       string `json:"service_id"`
	BarberID        string `json:"barber_id,omitempty"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Status          string `json:"status"`
	PaymentStatus   string `json:"payment_status"`
	CancelledAt     string `json:"cancelled_at,omitempty"`
	CreatedAt       string `json:"created_at"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ClientID = strings.TrimSpace(req.ClientID)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.BarberID = strings.TrimSpace(req.BarberID)
	if req.ClientID == "" || req.ServiceID == "" {
		http.Error(w, "client_id and service_id required", http.StatusBadRequest)
		return
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}
	if startTime.Before(h.now()) {
		http.Error(w, "start_time is in the past", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	// Resolve the duration once, at acceptance. A later edit to the service
	// must not move the end of an existing booking.
	durationMins := model.DefaultDurationMinutes
	svc, err := h.services.Get(ctx, req.ServiceID)
	switch {
	case err == nil:
		if !svc.Active {
			http.Error(w, "service is not available", http.StatusUnprocessableEntity)
			return
		}
		if svc.DurationMinutes > 0 {
			durationMins = svc.DurationMinutes
		}
	case storage.IsNotFound(err):
		http.Error(w, "service not found", http.StatusNotFound)
		return
	default:
		http.Error(w, "failed to load service", http.StatusInternalServerError)
		return
	}

	bk := &model.Booking{
		ClientID:        req.ClientID,
		ServiceID:       req.ServiceID,
		BarberID:        req.BarberID,
		StartTime:       startTime,
		DurationMinutes: durationMins,
		Status:          model.StatusPending,
		PaymentStatus:   "pending",
		PaymentMethod:   strings.TrimSpace(req.PaymentMethod),
	}

	if req.BarberID != "" {
		ok, err := h.barberFree(ctx, req.BarberID, startTime, bk.Duration(), "")
		if err != nil {
			http.Error(w, "availability check failed", http.StatusServiceUnavailable)
			return
		}
		if !ok {
			http.Error(w, "barber is not available at the requested time", http.StatusUnprocessableEntity)
			return
		}
		bk.Status = model.StatusAssigned
	}

	tx, err := h.bookings.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idempotencyKey != "" {
		rec, exists, err := h.bookings.LockIdempotencyKey(ctx, tx, req.ClientID, idempotencyKey)
		if err != nil {
			http.Error(w, "failed to lock idempotency key", http.StatusInternalServerError)
			return
		}
		if exists && rec.BookingID != "" && rec.StatusCode > 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(rec.StatusCode)
			_, _ = w.Write(rec.ResponsePayload)
			return
		}
	}

	id, err := h.bookings.Create(ctx, tx, bk)
	if err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
		http.Error(w, "failed to create booking", http.StatusInternalServerError)
		return
	}

	evtPayload, err := json.Marshal(events.BookingCreated{
		BookingID:       id,
		ClientID:        bk.ClientID,
		ServiceID:       bk.ServiceID,
		BarberID:        bk.BarberID,
		StartTime:       bk.StartTime.UTC(),
		DurationMinutes: bk.DurationMinutes,
		Status:          bk.Status,
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "booking",
		AggregateID:   id,
		EventType:     events.TopicBookingCreated,
		Payload:       evtPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	respBody, err := json.Marshal(createBookingResponse{BookingID: id, Status: bk.Status})
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	if idempotencyKey != "" {
		if err := h.bookings.FinalizeIdempotency(ctx, tx, req.ClientID, idempotencyKey, id, http.StatusCreated, respBody); err != nil {
			http.Error(w, "failed to finalize idempotency key", http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(respBody)
}

// Assign picks the least-loaded available barber for a pending booking.
// A booking that already has a barber, or has left the pending state, is a
// no-op: the response reports assigned=false rather than an error, so retries
// and concurrent assigners converge on the same outcome. Store read failures
// degrade the same way, to assigned=false; only the assignment write and its
// outbox event surface as 5xx.
func (h *BookingHandler) Assign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	bookingID := pathTail(r.URL.Path, "/assign")
	if bookingID == "" {
		http.Error(w, "booking id required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	bk, err := h.bookings.Get(ctx, bookingID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "booking not found", http.StatusNotFound)
			return
		}
		h.logger.Warn("booking load failed for assign", "booking_id", bookingID, "err", err)
		writeJSON(w, http.StatusOK, assignResponse{BookingID: bookingID, Assigned: false})
		return
	}
	if bk.Status != model.StatusPending || bk.BarberID != "" {
		writeJSON(w, http.StatusOK, assignResponse{BookingID: bk.ID, Assigned: false, BarberID: bk.BarberID})
		return
	}

	barbers, err := h.barbers.ListActive(ctx)
	if err != nil {
		h.logger.Warn("barber load failed for assign", "booking_id", bk.ID, "err", err)
		writeJSON(w, http.StatusOK, assignResponse{BookingID: bk.ID, Assigned: false})
		return
	}
	dayBookings, err := h.bookings.ListActiveForDay(ctx, bk.StartTime)
	if err != nil {
		h.logger.Warn("booking load failed for assign", "booking_id", bk.ID, "err", err)
		writeJSON(w, http.StatusOK, assignResponse{BookingID: bk.ID, Assigned: false})
		return
	}

	var candidates []model.Barber
	for _, b := range barbers {
		if schedule.IsAvailable(b, bk.StartTime, bk.Duration(), dayBookings, bk.ID) {
			candidates = append(candidates, b)
		}
	}
	picked, ok := schedule.PickLeastLoaded(candidates, dayBookings)
	if !ok {
		writeJSON(w, http.StatusOK, assignResponse{BookingID: bk.ID, Assigned: false})
		return
	}

	tx, err := h.bookings.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	won, err := h.bookings.Assign(ctx, tx, bk.ID, picked.ID)
	if err != nil {
		if storage.IsConflict(err) {
			writeJSON(w, http.StatusOK, assignResponse{BookingID: bk.ID, Assigned: false})
			return
		}
		http.Error(w, "failed to assign booking", http.StatusInternalServerError)
		return
	}
	if !won {
		// Another assigner got there first.
		writeJSON(w, http.StatusOK, assignResponse{BookingID: bk.ID, Assigned: false})
		return
	}

	evtPayload, err := json.Marshal(events.BookingAssigned{
		BookingID: bk.ID,
		ClientID:  bk.ClientID,
		BarberID:  picked.ID,
		StartTime: bk.StartTime.UTC(),
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "booking",
		AggregateID:   bk.ID,
		EventType:     events.TopicBookingAssigned,
		Payload:       evtPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, assignResponse{BookingID: bk.ID, Assigned: true, BarberID: picked.ID})
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	bookingID := pathTail(r.URL.Path, "/cancel")
	if bookingID == "" {
		http.Error(w, "booking id required", http.StatusBadRequest)
		return
	}

	var req cancelBookingRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	req.Reason = strings.TrimSpace(req.Reason)

	ctx := r.Context()
	tx, err := h.bookings.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	bk, err := h.bookings.GetForUpdate(ctx, tx, bookingID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "booking not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load booking", http.StatusInternalServerError)
		return
	}

	if bk.Status == model.StatusCancelled && bk.CancelledAt != nil {
		writeJSON(w, http.StatusOK, cancelBookingResponse{
			BookingID:   bk.ID,
			Status:      model.StatusCancelled,
			CancelledAt: bk.CancelledAt.UTC().Format(time.RFC3339),
		})
		return
	}
	if !bk.Active() {
		http.Error(w, "booking cannot be cancelled", http.StatusConflict)
		return
	}

	cancelledAt, err := h.bookings.Cancel(ctx, tx, bk.ID, req.Reason)
	if err != nil {
		http.Error(w, "failed to cancel booking", http.StatusInternalServerError)
		return
	}

	evtPayload, err := json.Marshal(events.BookingCancelled{
		BookingID:   bk.ID,
		ClientID:    bk.ClientID,
		BarberID:    bk.BarberID,
		StartTime:   bk.StartTime.UTC(),
		Reason:      req.Reason,
		CancelledAt: cancelledAt.UTC(),
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "booking",
		AggregateID:   bk.ID,
		EventType:     events.TopicBookingCancelled,
		Payload:       evtPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, cancelBookingResponse{
		BookingID:   bk.ID,
		Status:      model.StatusCancelled,
		CancelledAt: cancelledAt.UTC().Format(time.RFC3339),
	})
}

// Reschedule moves an active booking to a new start time, optionally onto a
// different service. The stored duration only changes when the service does.
func (h *BookingHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	bookingID := pathTail(r.URL.Path, "/reschedule")
	if bookingID == "" {
		http.Error(w, "booking id required", http.StatusBadRequest)
		return
	}

	var req rescheduleBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ServiceID = strings.TrimSpace(req.ServiceID)

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}
	if startTime.Before(h.now()) {
		http.Error(w, "start_time is in the past", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.bookings.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	bk, err := h.bookings.GetForUpdate(ctx, tx, bookingID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "booking not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load booking", http.StatusInternalServerError)
		return
	}
	if !bk.Active() {
		http.Error(w, "booking cannot be rescheduled", http.StatusConflict)
		return
	}

	serviceID := bk.ServiceID
	durationMins := bk.DurationMinutes
	if req.ServiceID != "" && req.ServiceID != bk.ServiceID {
		svc, err := h.services.Get(ctx, req.ServiceID)
		switch {
		case err == nil:
			if !svc.Active {
				http.Error(w, "service is not available", http.StatusUnprocessableEntity)
				return
			}
			serviceID = svc.ID
			durationMins = model.DefaultDurationMinutes
			if svc.DurationMinutes > 0 {
				durationMins = svc.DurationMinutes
			}
		case storage.IsNotFound(err):
			http.Error(w, "service not found", http.StatusNotFound)
			return
		default:
			http.Error(w, "failed to load service", http.StatusInternalServerError)
			return
		}
	}

	if bk.BarberID != "" {
		ok, err := h.barberFree(ctx, bk.BarberID, startTime, time.Duration(durationMins)*time.Minute, bk.ID)
		if err != nil {
			http.Error(w, "availability check failed", http.StatusServiceUnavailable)
			return
		}
		if !ok {
			http.Error(w, "barber is not available at the requested time", http.StatusUnprocessableEntity)
			return
		}
	}

	if err := h.bookings.Reschedule(ctx, tx, bk.ID, serviceID, startTime, durationMins); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "booking cannot be rescheduled", http.StatusConflict)
			return
		}
		if storage.IsConflict(err) {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
		http.Error(w, "failed to reschedule booking", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"booking_id": bk.ID,
		"status":     bk.Status,
		"start_time": startTime.UTC().Format(time.RFC3339),
	})
}

func (h *BookingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	bookingID := pathTail(r.URL.Path, "/complete")
	if bookingID == "" {
		http.Error(w, "booking id required", http.StatusBadRequest)
		return
	}

	var req completeBookingRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	paymentMethod := strings.TrimSpace(req.PaymentMethod)
	if paymentMethod == "" {
		paymentMethod = "cash"
	}

	ctx := r.Context()
	tx, err := h.bookings.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	bk, err := h.bookings.GetForUpdate(ctx, tx, bookingID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "booking not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load booking", http.StatusInternalServerError)
		return
	}
	if bk.Status != model.StatusAssigned {
		http.Error(w, "only an assigned booking can be completed", http.StatusConflict)
		return
	}

	if err := h.bookings.Complete(ctx, tx, bk.ID, paymentMethod); err != nil {
		http.Error(w, "failed to complete booking", http.StatusInternalServerError)
		return
	}

	price := ""
	if svc, err := h.services.Get(ctx, bk.ServiceID); err == nil {
		price = svc.Price
	} else {
		h.logger.Warn("price lookup failed for completed booking", "booking_id", bk.ID, "err", err)
	}

	evtPayload, err := json.Marshal(events.BookingCompleted{
		BookingID:     bk.ID,
		ClientID:      bk.ClientID,
		BarberID:      bk.BarberID,
		ServiceID:     bk.ServiceID,
		StartTime:     bk.StartTime.UTC(),
		Price:         price,
		PaymentMethod: paymentMethod,
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "booking",
		AggregateID:   bk.ID,
		EventType:     events.TopicBookingCompleted,
		Payload:       evtPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"booking_id": bk.ID, "status": model.StatusCompleted})
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var filter storage.BookingFilter
	q := r.URL.Query()
	if raw := strings.TrimSpace(q.Get("date")); raw != "" {
		day, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}
		filter.Day = day
	}
	filter.Status = strings.TrimSpace(q.Get("status"))
	filter.BarberID = strings.TrimSpace(q.Get("barber_id"))
	filter.ClientID = strings.TrimSpace(q.Get("client_id"))
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			filter.Limit = n
		}
	}

	bookings, err := h.bookings.List(r.Context(), filter)
	if err != nil {
		http.Error(w, "failed to list bookings", http.StatusInternalServerError)
		return
	}

	items := make([]bookingItem, 0, len(bookings))
	for _, bk := range bookings {
		items = append(items, toBookingItem(bk))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	bookingID := strings.TrimPrefix(r.URL.Path, "/api/v1/bookings/")
	if bookingID == "" || strings.Contains(bookingID, "/") {
		http.Error(w, "booking id required", http.StatusBadRequest)
		return
	}

	bk, err := h.bookings.Get(r.Context(), bookingID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "booking not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load booking", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toBookingItem(bk))
}

// barberFree loads the barber and the day's active bookings and runs the
// availability check. Load failures are reported, not swallowed: the caller
// decides whether that means reject or empty.
func (h *BookingHandler) barberFree(ctx context.Context, barberID string, start time.Time, duration time.Duration, excludeID string) (bool, error) {
	barber, err := h.barbers.Get(ctx, barberID)
	if err != nil {
		if storage.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	dayBookings, err := h.bookings.ListActiveForDay(ctx, start)
	if err != nil {
		return false, err
	}
	return schedule.IsAvailable(barber, start, duration, dayBookings, excludeID), nil
}

func toBookingItem(bk model.Booking) bookingItem {
	item := bookingItem{
		BookingID:       bk.ID,
		ClientID:        bk.ClientID,
		ServiceID:       bk.ServiceID,
		BarberID:        bk.BarberID,
		StartTime:       bk.StartTime.UTC().Format(time.RFC3339),
		EndTime:         bk.End().UTC().Format(time.RFC3339),
		DurationMinutes: int(bk.Duration().Minutes()),
		Status:          bk.Status,
		PaymentStatus:   bk.PaymentStatus,
		CreatedAt:       bk.CreatedAt.UTC().Format(time.RFC3339),
	}
	if bk.CancelledAt != nil {
		item.CancelledAt = bk.CancelledAt.UTC().Format(time.RFC3339)
	}
	return item
}

// pathTail extracts the id from paths shaped like /api/v1/bookings/{id}/assign.
func pathTail(path, suffix string) string {
	if !strings.HasSuffix(path, suffix) {
		return ""
	}
	trimmed := strings.TrimSuffix(path, suffix)
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(trimmed[idx+1:])
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
