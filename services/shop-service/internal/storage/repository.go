package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dreyes/barberflow/libs/db"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

var ErrInsufficientStock = errors.New("insufficient stock")

type Product struct {
	ID        string
	Name      string
	Category  string
	Quantity  int
	MinStock  int
	UnitPrice string
	Active    bool
	CreatedAt time.Time
}

func (r *Repository) CreateProduct(ctx context.Context, p *Product) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO products (id, name, category, quantity, min_stock, unit_price, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
	`, id, p.Name, p.Category, p.Quantity, p.MinStock, p.UnitPrice)
	if err != nil {
		return "", err
	}
	return id, nil
}

const selectProduct = `
	SELECT id::text, name, COALESCE(category, ''), quantity, min_stock, unit_price::text, is_active, created_at
	FROM products`

func (r *Repository) GetProduct(ctx context.Context, id string) (Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, selectProduct+` WHERE id = $1`, id))
}

func (r *Repository) ListProducts(ctx context.Context, includeInactive bool) ([]Product, error) {
	query := selectProduct + ` WHERE is_active ORDER BY name ASC`
	if includeInactive {
		query = selectProduct + ` ORDER BY name ASC`
	}
	return r.listProducts(ctx, query)
}

// ListLowStock returns active products at or below their restock threshold.
func (r *Repository) ListLowStock(ctx context.Context) ([]Product, error) {
	return r.listProducts(ctx, selectProduct+` WHERE is_active AND quantity <= min_stock ORDER BY name ASC`)
}

func (r *Repository) UpdateProduct(ctx context.Context, p *Product) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE products
		SET name = $2, category = $3, min_stock = $4, unit_price = $5, updated_at = now()
		WHERE id = $1
	`, p.ID, p.Name, p.Category, p.MinStock, p.UnitPrice)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// AdjustStock applies a signed delta (restock or manual correction). The
// quantity check runs inside the update so concurrent adjustments cannot
// drive stock negative.
func (r *Repository) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	var quantity int
	err := r.pool.QueryRow(ctx, `
		UPDATE products
		SET quantity = quantity + $2, updated_at = now()
		WHERE id = $1 AND quantity + $2 >= 0
		RETURNING quantity
	`, id, delta).Scan(&quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the product is missing or the delta would go negative.
		var exists bool
		if checkErr := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); checkErr == nil && exists {
			return 0, ErrInsufficientStock
		}
		return 0, pgx.ErrNoRows
	}
	return quantity, err
}

func (r *Repository) DeactivateProduct(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE products SET is_active = false, updated_at = now() WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

type PurchaseLine struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type Purchase struct {
	ID            string
	ClientID      string
	Lines         []PurchaseLine
	Total         string
	PaymentMethod string
	CreatedAt     time.Time
}

// RecordPurchase writes the purchase and decrements the stock of every line
// in one transaction. Any line without enough stock aborts the whole sale.
func (r *Repository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// RecordPurchase runs inside the caller's transaction so the stock
// decrements, the purchase row, and its outbox event commit together.
func (r *Repository) RecordPurchase(ctx context.Context, tx pgx.Tx, p *Purchase) (string, error) {
	for _, line := range p.Lines {
		tag, err := tx.Exec(ctx, `
			UPDATE products
			SET quantity = quantity - $2, updated_at = now()
			WHERE id = $1 AND is_active AND quantity >= $2
		`, line.ProductID, line.Quantity)
		if err != nil {
			return "", err
		}
		if tag.RowsAffected() == 0 {
			return "", fmt.Errorf("product %s: %w", line.ProductID, ErrInsufficientStock)
		}
	}

	linesJSON, err := json.Marshal(p.Lines)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err = tx.Exec(ctx, `
		INSERT INTO purchases (id, client_id, lines, total, payment_method)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5)
	`, id, p.ClientID, linesJSON, p.Total, p.PaymentMethod)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) ListPurchases(ctx context.Context, clientID string, limit int) ([]Purchase, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id::text, COALESCE(client_id::text, ''), lines, total::text, COALESCE(payment_method, ''), created_at
		FROM purchases`
	args := []any{limit}
	if clientID != "" {
		query += ` WHERE client_id = $2`
		args = append(args, clientID)
	}
	query += ` ORDER BY created_at DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var purchases []Purchase
	for rows.Next() {
		var p Purchase
		var linesJSON []byte
		if err := rows.Scan(&p.ID, &p.ClientID, &linesJSON, &p.Total, &p.PaymentMethod, &p.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(linesJSON, &p.Lines); err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return purchases, nil
}

func (r *Repository) listProducts(ctx context.Context, query string) ([]Product, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return products, nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Quantity, &p.MinStock, &p.UnitPrice, &p.Active, &p.CreatedAt)
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
