package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shoplite/shoplite-backend/pkg/database"
	"github.com/shoplite/shoplite-backend/pkg/errors"
)

// Batch is a dated lot of a product's stock, tracked for freshness only.
// Sales decrement the product's aggregate stock, never a specific batch;
// a batch with quantity <= 0 is inert and expiry scans count it as skipped
// instead of flagging it.
type Batch struct {
	ID         string     `db:"id" json:"id"`
	ProductID  string     `db:"product_id" json:"product_id"`
	Quantity   int        `db:"quantity" json:"quantity"`
	ExpiryDate *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	ReceivedAt time.Time  `db:"received_at" json:"received_at"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// BatchRepository handles batch persistence
type BatchRepository struct {
	db *database.DB
}

// NewBatchRepository creates a new batch repository
func NewBatchRepository(db *database.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// Create creates a new batch
func (r *BatchRepository) Create(ctx context.Context, batch *Batch) error {
	if batch.ID == "" {
		batch.ID = uuid.New().String()
	}
	if batch.ReceivedAt.IsZero() {
		batch.ReceivedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO batches (id, product_id, quantity, expiry_date, received_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	return r.db.QueryRowxContext(ctx, query,
		batch.ID, batch.ProductID, batch.Quantity, batch.ExpiryDate, batch.ReceivedAt,
	).Scan(&batch.CreatedAt, &batch.UpdatedAt)
}

// GetByID gets a batch by ID
func (r *BatchRepository) GetByID(ctx context.Context, id string) (*Batch, error) {
	var batch Batch
	query := `SELECT * FROM batches WHERE id = $1`
	if err := r.db.GetContext(ctx, &batch, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("batch")
		}
		return nil, err
	}
	return &batch, nil
}

// ListByProduct lists a product's batches ordered by expiry ascending
func (r *BatchRepository) ListByProduct(ctx context.Context, productID string) ([]*Batch, error) {
	var batches []*Batch
	query := `
		SELECT * FROM batches
		WHERE product_id = $1
		ORDER BY expiry_date ASC NULLS LAST, received_at ASC
	`
	if err := r.db.SelectContext(ctx, &batches, query, productID); err != nil {
		return nil, err
	}
	return batches, nil
}

// ListForScan lists a product's batches for a freshness scan. Zero-quantity
// and missing-expiry batches are returned too; the scan counts them as
// skipped rather than silently dropping them from the summary.
func (r *BatchRepository) ListForScan(ctx context.Context, productID string) ([]*Batch, error) {
	var batches []*Batch
	query := `
		SELECT * FROM batches
		WHERE product_id = $1
		ORDER BY expiry_date ASC NULLS LAST, received_at ASC
	`
	if err := r.db.SelectContext(ctx, &batches, query, productID); err != nil {
		return nil, err
	}
	return batches, nil
}

// Update updates a batch's quantity and expiry date
func (r *BatchRepository) Update(ctx context.Context, batch *Batch) error {
	query := `
		UPDATE batches SET quantity = $2, expiry_date = $3, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, batch.ID, batch.Quantity, batch.ExpiryDate)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("batch")
	}

	return nil
}
