package repository

import (
	"context"
	"time"

	"github.com/shoplite/shoplite-backend/pkg/database"
)

// StockMovement is one entry in the stock adjustment audit trail. Written
// in the same transaction as the adjustment it records.
type StockMovement struct {
	ID             string    `db:"id" json:"id"`
	ProductID      string    `db:"product_id" json:"product_id"`
	Delta          int       `db:"delta" json:"delta"`
	Applied        int       `db:"applied" json:"applied"`
	Reason         string    `db:"reason" json:"reason"`
	ResultingStock int       `db:"resulting_stock" json:"resulting_stock"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// StockMovementRepository reads the stock adjustment audit trail
type StockMovementRepository struct {
	db *database.DB
}

// NewStockMovementRepository creates a new stock movement repository
func NewStockMovementRepository(db *database.DB) *StockMovementRepository {
	return &StockMovementRepository{db: db}
}

// ListByProduct lists movements for a product, newest first
func (r *StockMovementRepository) ListByProduct(ctx context.Context, productID string, page, perPage int) ([]*StockMovement, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM stock_movements WHERE product_id = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, productID); err != nil {
		return nil, 0, err
	}

	var movements []*StockMovement
	query := `
		SELECT * FROM stock_movements
		WHERE product_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	offset := (page - 1) * perPage
	if err := r.db.SelectContext(ctx, &movements, query, productID, perPage, offset); err != nil {
		return nil, 0, err
	}

	return movements, total, nil
}
