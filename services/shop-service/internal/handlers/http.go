package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dreyes/barberflow/libs/outbox"
	"github.com/dreyes/barberflow/services/shop-service/internal/storage"
)

type Handler struct {
	repo       *storage.Repository
	outboxRepo *outbox.Repository
	logger     *slog.Logger
}

func New(repo *storage.Repository, outboxRepo *outbox.Repository, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, outboxRepo: outboxRepo, logger: logger}
}

// TopicPurchaseRecorded feeds daily revenue aggregation in analytics.
const TopicPurchaseRecorded = "shop.purchase.recorded.v1"

type productRequest struct {
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Quantity  int     `json:"quantity"`
	MinStock  int     `json:"min_stock"`
	UnitPrice float64 `json:"unit_price"`
}

type productItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Category  string `json:"category,omitempty"`
	Quantity  int    `json:"quantity"`
	MinStock  int    `json:"min_stock"`
	UnitPrice string `json:"unit_price"`
	LowStock  bool   `json:"low_stock"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
}

func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listProducts(w, r)
	case http.MethodPost:
		h.createProduct(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) ProductByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/products/")
	if rest == "" {
		http.Error(w, "product id required", http.StatusBadRequest)
		return
	}
	if id, ok := strings.CutSuffix(rest, "/stock"); ok {
		h.adjustStock(w, r, id)
		return
	}
	if strings.Contains(rest, "/") {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.getProduct(w, r, rest)
	case http.MethodPut:
		h.updateProduct(w, r, rest)
	case http.MethodDelete:
		h.deactivateProduct(w, r, rest)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	products, err := h.repo.ListLowStock(r.Context())
	if err != nil {
		http.Error(w, "failed to list low stock", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toProductItems(products))
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.repo.ListProducts(r.Context(), r.URL.Query().Get("include_inactive") == "true")
	if err != nil {
		http.Error(w, "failed to list products", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toProductItems(products))
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	if req.Quantity < 0 || req.MinStock < 0 || req.UnitPrice < 0 {
		http.Error(w, "quantity, min_stock, and unit_price must not be negative", http.StatusBadRequest)
		return
	}

	p := &storage.Product{
		Name:      req.Name,
		Category:  strings.TrimSpace(req.Category),
		Quantity:  req.Quantity,
		MinStock:  req.MinStock,
		UnitPrice: strconv.FormatFloat(req.UnitPrice, 'f', 2, 64),
	}
	id, err := h.repo.CreateProduct(r.Context(), p)
	if err != nil {
		http.Error(w, "failed to create product", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"product_id": id})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.repo.GetProduct(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load product", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toProductItem(p))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request, id string) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	if req.MinStock < 0 || req.UnitPrice < 0 {
		http.Error(w, "min_stock and unit_price must not be negative", http.StatusBadRequest)
		return
	}

	p := &storage.Product{
		ID:        id,
		Name:      req.Name,
		Category:  strings.TrimSpace(req.Category),
		MinStock:  req.MinStock,
		UnitPrice: strconv.FormatFloat(req.UnitPrice, 'f', 2, 64),
	}
	if err := h.repo.UpdateProduct(r.Context(), p); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to update product", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"product_id": id})
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.Delta == 0 {
		http.Error(w, "delta must be non-zero", http.StatusBadRequest)
		return
	}

	quantity, err := h.repo.AdjustStock(r.Context(), id, req.Delta)
	if err != nil {
		switch {
		case storage.IsNotFound(err):
			http.Error(w, "product not found", http.StatusNotFound)
		case errors.Is(err, storage.ErrInsufficientStock):
			http.Error(w, "insufficient stock", http.StatusConflict)
		default:
			http.Error(w, "failed to adjust stock", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product_id": id, "quantity": quantity})
}

func (h *Handler) deactivateProduct(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.repo.DeactivateProduct(r.Context(), id); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to deactivate product", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type purchaseRequest struct {
	ClientID      string `json:"client_id"`
	PaymentMethod string `json:"payment_method"`
	Lines         []struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	} `json:"lines"`
}

type purchaseItem struct {
	PurchaseID    string                 `json:"purchase_id"`
	ClientID      string                 `json:"client_id,omitempty"`
	Lines         []storage.PurchaseLine `json:"lines"`
	Total         string                 `json:"total"`
	PaymentMethod string                 `json:"payment_method,omitempty"`
	CreatedAt     string                 `json:"created_at"`
}

func (h *Handler) Purchases(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listPurchases(w, r)
	case http.MethodPost:
		h.recordPurchase(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) recordPurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if len(req.Lines) == 0 {
		http.Error(w, "at least one line required", http.StatusBadRequest)
		return
	}

	// Price the sale from the catalog so clients cannot set their own totals.
	lines := make([]storage.PurchaseLine, 0, len(req.Lines))
	totalCents := int64(0)
	for _, l := range req.Lines {
		if strings.TrimSpace(l.ProductID) == "" || l.Quantity <= 0 {
			http.Error(w, "every line needs product_id and a positive quantity", http.StatusBadRequest)
			return
		}
		p, err := h.repo.GetProduct(r.Context(), l.ProductID)
		if err != nil {
			if storage.IsNotFound(err) {
				http.Error(w, "product not found: "+l.ProductID, http.StatusNotFound)
				return
			}
			http.Error(w, "failed to load product", http.StatusInternalServerError)
			return
		}
		cents, err := priceCents(p.UnitPrice)
		if err != nil {
			h.logger.Error("bad unit price in catalog", "product_id", p.ID, "unit_price", p.UnitPrice)
			http.Error(w, "failed to price purchase", http.StatusInternalServerError)
			return
		}
		totalCents += cents * int64(l.Quantity)
		lines = append(lines, storage.PurchaseLine{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  l.Quantity,
			UnitPrice: p.UnitPrice,
		})
	}

	purchase := &storage.Purchase{
		ClientID:      strings.TrimSpace(req.ClientID),
		Lines:         lines,
		Total:         formatCents(totalCents),
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
	}
	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id, err := h.repo.RecordPurchase(ctx, tx, purchase)
	if err != nil {
		if errors.Is(err, storage.ErrInsufficientStock) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, "failed to record purchase", http.StatusInternalServerError)
		return
	}

	evtPayload, err := json.Marshal(map[string]any{
		"purchase_id":    id,
		"client_id":      purchase.ClientID,
		"total":          purchase.Total,
		"payment_method": purchase.PaymentMethod,
		"recorded_at":    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "purchase",
		AggregateID:   id,
		EventType:     TopicPurchaseRecorded,
		Payload:       evtPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"purchase_id": id, "total": purchase.Total})
}

func (h *Handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	clientID := strings.TrimSpace(r.URL.Query().Get("client_id"))
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	purchases, err := h.repo.ListPurchases(r.Context(), clientID, limit)
	if err != nil {
		http.Error(w, "failed to list purchases", http.StatusInternalServerError)
		return
	}
	items := make([]purchaseItem, 0, len(purchases))
	for _, p := range purchases {
		items = append(items, purchaseItem{
			PurchaseID:    p.ID,
			ClientID:      p.ClientID,
			Lines:         p.Lines,
			Total:         p.Total,
			PaymentMethod: p.PaymentMethod,
			CreatedAt:     p.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func toProductItems(products []storage.Product) []productItem {
	items := make([]productItem, 0, len(products))
	for _, p := range products {
		items = append(items, toProductItem(p))
	}
	return items
}

func toProductItem(p storage.Product) productItem {
	return productItem{
		ProductID: p.ID,
		Name:      p.Name,
		Category:  p.Category,
		Quantity:  p.Quantity,
		MinStock:  p.MinStock,
		UnitPrice: p.UnitPrice,
		LowStock:  p.Quantity <= p.MinStock,
		Active:    p.Active,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// priceCents parses a decimal price string into cents. Catalog prices are
// stored with two decimals.
func priceCents(price string) (int64, error) {
	whole, frac, _ := strings.Cut(price, ".")
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || w < 0 {
		return 0, errors.New("invalid price")
	}
	cents := w * 100
	if frac != "" {
		if len(frac) > 2 {
			frac = frac[:2]
		}
		for len(frac) < 2 {
			frac += "0"
		}
		f, err := strconv.ParseInt(frac, 10, 64)
		if err != nil || f < 0 {
			return 0, errors.New("invalid price")
		}
		cents += f
	}
	return cents, nil
}

func formatCents(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
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
