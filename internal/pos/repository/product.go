package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shoplite/shoplite-backend/pkg/database"
	"github.com/shoplite/shoplite-backend/pkg/errors"
)

// Product represents a sellable product with an aggregate on-hand stock count.
// Stock is only ever mutated through AdjustStock; batches track freshness
// separately and are not decremented by sales.
type Product struct {
	ID                 string     `db:"id" json:"id"`
	Name               string     `db:"name" json:"name"`
	SKU                *string    `db:"sku" json:"sku,omitempty"`
	Barcode            *string    `db:"barcode" json:"barcode,omitempty"`
	PriceCents         int        `db:"price_cents" json:"price_cents"`
	Stock              int        `db:"stock" json:"stock"`
	SafetyStock        int        `db:"safety_stock" json:"safety_stock"`
	AlertThresholdDays int        `db:"alert_threshold_days" json:"alert_threshold_days"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt          *time.Time `db:"deleted_at" json:"-"`
}

// AdjustResult reports the outcome of a stock adjustment. Floored is set
// when the requested decrement exceeded the available stock and the new
// value was clamped at zero instead of going negative.
type AdjustResult struct {
	ProductID string `json:"product_id"`
	Delta     int    `json:"delta"`
	Applied   int    `json:"applied"`
	NewStock  int    `json:"new_stock"`
	Floored   bool   `json:"floored"`
}

// ProductRepository handles product persistence
type ProductRepository struct {
	db *database.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *database.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create creates a new product
func (r *ProductRepository) Create(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.AlertThresholdDays == 0 {
		p.AlertThresholdDays = 7
	}

	query := `
		INSERT INTO products (
			id, name, sku, barcode, price_cents, stock, safety_stock, alert_threshold_days
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	return r.db.QueryRowxContext(ctx, query,
		p.ID, p.Name, p.SKU, p.Barcode, p.PriceCents, p.Stock, p.SafetyStock, p.AlertThresholdDays,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

// GetByID gets a product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*Product, error) {
	var p Product
	query := `SELECT * FROM products WHERE id = $1 AND deleted_at IS NULL`
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("product")
		}
		return nil, err
	}
	return &p, nil
}

// GetByCode looks a product up by barcode first, then by SKU. POS terminals
// scan either interchangeably.
func (r *ProductRepository) GetByCode(ctx context.Context, code string) (*Product, error) {
	var p Product
	query := `SELECT * FROM products WHERE barcode = $1 AND deleted_at IS NULL LIMIT 1`
	err := r.db.GetContext(ctx, &p, query, code)
	if err == nil {
		return &p, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	query = `SELECT * FROM products WHERE sku = $1 AND deleted_at IS NULL LIMIT 1`
	if err := r.db.GetContext(ctx, &p, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("product")
		}
		return nil, err
	}
	return &p, nil
}

// List lists products with pagination
func (r *ProductRepository) List(ctx context.Context, page, perPage int) ([]*Product, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM products WHERE deleted_at IS NULL`
	if err := r.db.GetContext(ctx, &total, countQuery); err != nil {
		return nil, 0, err
	}

	var products []*Product
	query := `
		SELECT * FROM products
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	offset := (page - 1) * perPage
	if err := r.db.SelectContext(ctx, &products, query, perPage, offset); err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// GetAllActive gets all products for reconciliation scans
func (r *ProductRepository) GetAllActive(ctx context.Context) ([]*Product, error) {
	var products []*Product
	query := `SELECT * FROM products WHERE deleted_at IS NULL ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, err
	}
	return products, nil
}

// Update updates product attributes. Stock is deliberately excluded: the
// only legal stock mutation path is AdjustStock.
func (r *ProductRepository) Update(ctx context.Context, p *Product) error {
	query := `
		UPDATE products SET
			name = $2, sku = $3, barcode = $4, price_cents = $5,
			safety_stock = $6, alert_threshold_days = $7, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.SKU, p.Barcode, p.PriceCents, p.SafetyStock, p.AlertThresholdDays,
	)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("product")
	}

	return nil
}

// SoftDelete soft-deletes a product. Batches referencing it stay intact.
func (r *ProductRepository) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE products SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("product")
	}

	return nil
}

// GetStock reads the current on-hand stock for a product
func (r *ProductRepository) GetStock(ctx context.Context, id string) (int, error) {
	var stock int
	query := `SELECT stock FROM products WHERE id = $1 AND deleted_at IS NULL`
	if err := r.db.GetContext(ctx, &stock, query, id); err != nil {
		if err == sql.ErrNoRows {
			return 0, errors.NotFound("product")
		}
		return 0, err
	}
	return stock, nil
}

// AdjustStock applies a stock delta inside a single-row transaction.
// The read-modify-write locks only the product's row, so adjustments to
// the same product are serialized while other products stay unblocked.
// The new value is clamped at zero: a decrement larger than the available
// stock floors the count instead of failing. A movement record is written
// in the same transaction.
func (r *ProductRepository) AdjustStock(ctx context.Context, productID string, delta int, reason string) (*AdjustResult, error) {
	var result *AdjustResult

	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		var current int
		query := `SELECT stock FROM products WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`
		if err := tx.GetContext(ctx, &current, query, productID); err != nil {
			if err == sql.ErrNoRows {
				return errors.NotFound("product")
			}
			return err
		}

		next := current + delta
		if next < 0 {
			next = 0
		}

		update := `UPDATE products SET stock = $2, updated_at = NOW() WHERE id = $1`
		if _, err := tx.ExecContext(ctx, update, productID, next); err != nil {
			return err
		}

		applied := next - current
		movement := `
			INSERT INTO stock_movements (id, product_id, delta, applied, reason, resulting_stock)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		if _, err := tx.ExecContext(ctx, movement,
			uuid.New().String(), productID, delta, applied, reason, next,
		); err != nil {
			return err
		}

		result = &AdjustResult{
			ProductID: productID,
			Delta:     delta,
			Applied:   applied,
			NewStock:  next,
			Floored:   applied != delta,
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return result, nil
}
