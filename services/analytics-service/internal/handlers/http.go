package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dreyes/barberflow/services/analytics-service/internal/storage"
)

type Handler struct {
	metrics *storage.Repository
	logger  *slog.Logger
}

func NewHandler(metrics *storage.Repository, logger *slog.Logger) *Handler {
	return &Handler{metrics: metrics, logger: logger}
}

// Summary handles GET /api/v1/analytics/summary?from=&to=.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	from, to, err := parseRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	summaries, err := h.metrics.Summary(r.Context(), from, to)
	if err != nil {
		h.logger.Error("failed to load summary", "err", err)
		http.Error(w, "failed to load summary", http.StatusInternalServerError)
		return
	}
	shopSummaries, err := h.metrics.ShopSummary(r.Context(), from, to)
	if err != nil {
		h.logger.Error("failed to load shop summary", "err", err)
		http.Error(w, "failed to load summary", http.StatusInternalServerError)
		return
	}

	type dayItem struct {
		Day       string `json:"day"`
		Created   int64  `json:"created"`
		Assigned  int64  `json:"assigned"`
		Cancelled int64  `json:"cancelled"`
		Completed int64  `json:"completed"`
		Revenue   string `json:"revenue"`
	}
	days := make([]dayItem, 0, len(summaries))
	var totalRevenue int64
	for _, s := range summaries {
		days = append(days, dayItem{
			Day:       s.Day.UTC().Format("2006-01-02"),
			Created:   s.Created,
			Assigned:  s.Assigned,
			Cancelled: s.Cancelled,
			Completed: s.Completed,
			Revenue:   formatCents(s.RevenueCents),
		})
		totalRevenue += s.RevenueCents
	}
	type shopDayItem struct {
		Day       string `json:"day"`
		Purchases int64  `json:"purchases"`
		Revenue   string `json:"revenue"`
	}
	shopDays := make([]shopDayItem, 0, len(shopSummaries))
	var shopRevenue int64
	for _, s := range shopSummaries {
		shopDays = append(shopDays, shopDayItem{
			Day:       s.Day.UTC().Format("2006-01-02"),
			Purchases: s.Purchases,
			Revenue:   formatCents(s.RevenueCents),
		})
		shopRevenue += s.RevenueCents
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"from":               from.Format("2006-01-02"),
		"to":                 to.Format("2006-01-02"),
		"days":               days,
		"total_revenue":      formatCents(totalRevenue),
		"shop_days":          shopDays,
		"total_shop_revenue": formatCents(shopRevenue),
	})
}

// Barbers handles GET /api/v1/analytics/barbers?from=&to=.
func (h *Handler) Barbers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	from, to, err := parseRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	totals, err := h.metrics.BarberTotals(r.Context(), from, to)
	if err != nil {
		h.logger.Error("failed to load barber totals", "err", err)
		http.Error(w, "failed to load barber totals", http.StatusInternalServerError)
		return
	}

	type barberItem struct {
		BarberID  string `json:"barber_id"`
		Assigned  int64  `json:"assigned"`
		Cancelled int64  `json:"cancelled"`
		Completed int64  `json:"completed"`
		Revenue   string `json:"revenue"`
	}
	items := make([]barberItem, 0, len(totals))
	for _, t := range totals {
		items = append(items, barberItem{
			BarberID:  t.BarberID,
			Assigned:  t.Assigned,
			Cancelled: t.Cancelled,
			Completed: t.Completed,
			Revenue:   formatCents(t.RevenueCents),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"barbers": items})
}

// Notifications handles GET /api/v1/analytics/notifications?from=&to=.
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	from, to, err := parseRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	totals, err := h.metrics.NotificationTotals(r.Context(), from, to)
	if err != nil {
		h.logger.Error("failed to load notification totals", "err", err)
		http.Error(w, "failed to load notification totals", http.StatusInternalServerError)
		return
	}

	type channelItem struct {
		Channel string `json:"channel"`
		Sent    int64  `json:"sent"`
		Failed  int64  `json:"failed"`
	}
	items := make([]channelItem, 0, len(totals))
	for _, t := range totals {
		items = append(items, channelItem{Channel: t.Channel, Sent: t.Sent, Failed: t.Failed})
	}
	writeJSON(w, http.StatusOK, map[string]any{"channels": items})
}

// parseRange defaults to the last 30 days when from/to are omitted.
func parseRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	to := now
	from := now.AddDate(0, 0, -29)

	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("to must be YYYY-MM-DD")
		}
		to = parsed
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("from must be YYYY-MM-DD")
		}
		from = parsed
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to must not be before from")
	}
	return from, to, nil
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
