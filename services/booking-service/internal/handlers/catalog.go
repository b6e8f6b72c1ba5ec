package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dreyes/barberflow/services/booking-service/internal/model"
	"github.com/dreyes/barberflow/services/booking-service/internal/storage"
)

// CatalogHandler serves the barber roster and the service menu.
type CatalogHandler struct {
	barbers  *storage.BarberRepository
	services *storage.ServiceRepository
	logger   *slog.Logger
}

func NewCatalogHandler(barbers *storage.BarberRepository, services *storage.ServiceRepository, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{barbers: barbers, services: services, logger: logger}
}

type barberRequest struct {
	UserID      string   `json:"user_id"`
	Name        string   `json:"name"`
	Phone       string   `json:"phone"`
	Bio         string   `json:"bio"`
	WorkStart   string   `json:"work_start"`
	WorkEnd     string   `json:"work_end"`
	Specialties []string `json:"specialties"`
}

type barberItem struct {
	BarberID    string   `json:"barber_id"`
	Name        string   `json:"name"`
	Phone       string   `json:"phone,omitempty"`
	Bio         string   `json:"bio,omitempty"`
	Active      bool     `json:"active"`
	WorkStart   string   `json:"work_start"`
	WorkEnd     string   `json:"work_end"`
	Specialties []string `json:"specialties,omitempty"`
	CreatedAt   string   `json:"created_at"`
}

type serviceRequest struct {
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	Price           string `json:"price"`
}

type serviceItem struct {
	ServiceID       string `json:"service_id"`
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	Price           string `json:"price"`
	Active          bool   `json:"active"`
	CreatedAt       string `json:"created_at"`
}

func (h *CatalogHandler) Barbers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listBarbers(w, r)
	case http.MethodPost:
		h.createBarber(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *CatalogHandler) BarberByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/barbers/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "barber id required", http.StatusBadRequest)
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.getBarber(w, r, id)
	case http.MethodPut:
		h.updateBarber(w, r, id)
	case http.MethodDelete:
		h.deactivateBarber(w, r, id)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *CatalogHandler) listBarbers(w http.ResponseWriter, r *http.Request) {
	var (
		barbers []model.Barber
		err     error
	)
	if r.URL.Query().Get("include_inactive") == "true" {
		barbers, err = h.barbers.ListAll(r.Context())
	} else {
		barbers, err = h.barbers.ListActive(r.Context())
	}
	if err != nil {
		http.Error(w, "failed to list barbers", http.StatusInternalServerError)
		return
	}
	items := make([]barberItem, 0, len(barbers))
	for _, b := range barbers {
		items = append(items, toBarberItem(b))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *CatalogHandler) createBarber(w http.ResponseWriter, r *http.Request) {
	var req barberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	if !validClockPair(req.WorkStart, req.WorkEnd) {
		http.Error(w, "invalid working hours", http.StatusBadRequest)
		return
	}

	b := &model.Barber{
		UserID:      strings.TrimSpace(req.UserID),
		Name:        req.Name,
		Phone:       strings.TrimSpace(req.Phone),
		Bio:         strings.TrimSpace(req.Bio),
		WorkStart:   req.WorkStart,
		WorkEnd:     req.WorkEnd,
		Specialties: req.Specialties,
	}
	id, err := h.barbers.Create(r.Context(), b)
	if err != nil {
		http.Error(w, "failed to create barber", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"barber_id": id})
}

func (h *CatalogHandler) getBarber(w http.ResponseWriter, r *http.Request, id string) {
	b, err := h.barbers.Get(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "barber not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load barber", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toBarberItem(b))
}

func (h *CatalogHandler) updateBarber(w http.ResponseWriter, r *http.Request, id string) {
	var req barberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	if !validClockPair(req.WorkStart, req.WorkEnd) {
		http.Error(w, "invalid working hours", http.StatusBadRequest)
		return
	}

	b := &model.Barber{
		ID:          id,
		Name:        req.Name,
		Phone:       strings.TrimSpace(req.Phone),
		Bio:         strings.TrimSpace(req.Bio),
		WorkStart:   req.WorkStart,
		WorkEnd:     req.WorkEnd,
		Specialties: req.Specialties,
	}
	if err := h.barbers.Update(r.Context(), b); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "barber not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to update barber", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"barber_id": id})
}

func (h *CatalogHandler) deactivateBarber(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.barbers.Deactivate(r.Context(), id); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "barber not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to deactivate barber", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) Services(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listServices(w, r)
	case http.MethodPost:
		h.createService(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *CatalogHandler) ServiceByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/services/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "service id required", http.StatusBadRequest)
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.getService(w, r, id)
	case http.MethodPut:
		h.updateService(w, r, id)
	case http.MethodDelete:
		h.deactivateService(w, r, id)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *CatalogHandler) listServices(w http.ResponseWriter, r *http.Request) {
	var (
		services []model.Service
		err      error
	)
	if r.URL.Query().Get("include_inactive") == "true" {
		services, err = h.services.ListAll(r.Context())
	} else {
		services, err = h.services.ListActive(r.Context())
	}
	if err != nil {
		http.Error(w, "failed to list services", http.StatusInternalServerError)
		return
	}
	items := make([]serviceItem, 0, len(services))
	for _, s := range services {
		items = append(items, toServiceItem(s))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *CatalogHandler) createService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	if req.DurationMinutes < 0 || req.DurationMinutes > 8*60 {
		http.Error(w, "invalid duration_minutes", http.StatusBadRequest)
		return
	}
	if req.DurationMinutes == 0 {
		req.DurationMinutes = model.DefaultDurationMinutes
	}
	if req.Price == "" {
		req.Price = "0"
	}

	s := &model.Service{Name: req.Name, DurationMinutes: req.DurationMinutes, Price: req.Price}
	id, err := h.services.Create(r.Context(), s)
	if err != nil {
		http.Error(w, "failed to create service", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"service_id": id})
}

func (h *CatalogHandler) getService(w http.ResponseWriter, r *http.Request, id string) {
	s, err := h.services.Get(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load service", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toServiceItem(s))
}

func (h *CatalogHandler) updateService(w http.ResponseWriter, r *http.Request, id string) {
	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	if req.DurationMinutes <= 0 || req.DurationMinutes > 8*60 {
		http.Error(w, "invalid duration_minutes", http.StatusBadRequest)
		return
	}

	s := &model.Service{ID: id, Name: req.Name, DurationMinutes: req.DurationMinutes, Price: req.Price}
	if err := h.services.Update(r.Context(), s); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to update service", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"service_id": id})
}

func (h *CatalogHandler) deactivateService(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.services.Deactivate(r.Context(), id); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to deactivate service", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toBarberItem(b model.Barber) barberItem {
	return barberItem{
		BarberID:    b.ID,
		Name:        b.Name,
		Phone:       b.Phone,
		Bio:         b.Bio,
		Active:      b.Active,
		WorkStart:   b.WorkStart,
		WorkEnd:     b.WorkEnd,
		Specialties: b.Specialties,
		CreatedAt:   b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toServiceItem(s model.Service) serviceItem {
	return serviceItem{
		ServiceID:       s.ID,
		Name:            s.Name,
		DurationMinutes: s.DurationMinutes,
		Price:           s.Price,
		Active:          s.Active,
		CreatedAt:       s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// validClockPair accepts empty (defaults applied downstream) or a well-formed
// HH:MM window with start before end.
func validClockPair(start, end string) bool {
	if start == "" && end == "" {
		return true
	}
	s, err := time.Parse("15:04", start)
	if err != nil {
		return false
	}
	e, err := time.Parse("15:04", end)
	if err != nil {
		return false
	}
	return e.After(s)
}
