package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shoplite/shoplite-backend/pkg/database"
	"github.com/shoplite/shoplite-backend/pkg/errors"
)

// Checkout request statuses. A request is consumed at most once: it is
// claimed pending -> processing, then ends in exactly one terminal state.
const (
	CheckoutStatusPending    = "pending"
	CheckoutStatusProcessing = "processing"
	CheckoutStatusCompleted  = "completed"
	CheckoutStatusPartial    = "partial"
	CheckoutStatusFailed     = "failed"
)

// CheckoutLine is one line of a checkout request
type CheckoutLine struct {
	ProductID  string `json:"product_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,gt=0"`
	PriceCents int    `json:"price_cents" validate:"gte=0"`
}

// CheckoutLines is stored as a JSONB column
type CheckoutLines []CheckoutLine

// Value implements driver.Valuer
func (l CheckoutLines) Value() (driver.Value, error) {
	return json.Marshal(l)
}

// Scan implements sql.Scanner
func (l *CheckoutLines) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type %T for CheckoutLines", src)
	}
}

// CheckoutRequest is a multi-line sale awaiting stock decrements. Created
// by the POS flow or an external ordering/payment collaborator.
type CheckoutRequest struct {
	ID          string        `db:"id" json:"id"`
	Lines       CheckoutLines `db:"lines" json:"lines"`
	TotalCents  int           `db:"total_cents" json:"total_cents"`
	Status      string        `db:"status" json:"status"`
	PickupCode  *string       `db:"pickup_code" json:"pickup_code,omitempty"`
	ProcessedAt *time.Time    `db:"processed_at" json:"processed_at,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// CheckoutRepository handles checkout request persistence
type CheckoutRepository struct {
	db *database.DB
}

// NewCheckoutRepository creates a new checkout repository
func NewCheckoutRepository(db *database.DB) *CheckoutRepository {
	return &CheckoutRepository{db: db}
}

// Create creates a new pending checkout request
func (r *CheckoutRepository) Create(ctx context.Context, req *CheckoutRequest) error {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	req.Status = CheckoutStatusPending

	query := `
		INSERT INTO checkout_requests (id, lines, total_cents, status, pickup_code)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	return r.db.QueryRowxContext(ctx, query,
		req.ID, req.Lines, req.TotalCents, req.Status, req.PickupCode,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
}

// GetByID gets a checkout request by ID
func (r *CheckoutRepository) GetByID(ctx context.Context, id string) (*CheckoutRequest, error) {
	var req CheckoutRequest
	query := `SELECT * FROM checkout_requests WHERE id = $1`
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("checkout request")
		}
		return nil, err
	}
	return &req, nil
}

// GetByPickupCode gets a pending checkout request by pickup code
func (r *CheckoutRepository) GetByPickupCode(ctx context.Context, code string) (*CheckoutRequest, error) {
	var req CheckoutRequest
	query := `SELECT * FROM checkout_requests WHERE pickup_code = $1 AND status = $2 LIMIT 1`
	if err := r.db.GetContext(ctx, &req, query, code, CheckoutStatusPending); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("checkout request")
		}
		return nil, err
	}
	return &req, nil
}

// Claim atomically transitions a request from pending to processing and
// returns it. This is the consume-exactly-once gate: a second concurrent
// processor loses the conditional update and gets a Conflict.
func (r *CheckoutRepository) Claim(ctx context.Context, id string) (*CheckoutRequest, error) {
	var req CheckoutRequest
	query := `
		UPDATE checkout_requests
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
		RETURNING *
	`

	err := r.db.GetContext(ctx, &req, query, id, CheckoutStatusProcessing, CheckoutStatusPending)
	if err == nil {
		return &req, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	// Distinguish "gone" from "already claimed"
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, errors.Conflict("checkout request already processed")
}

// Finish records the terminal state of a processed request
func (r *CheckoutRepository) Finish(ctx context.Context, id, status string) error {
	query := `
		UPDATE checkout_requests
		SET status = $2, processed_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("checkout request")
	}

	return nil
}
