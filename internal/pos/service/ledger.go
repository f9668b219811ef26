package service

import (
	"context"

	"github.com/shoplite/shoplite-backend/internal/pos/events"
	"github.com/shoplite/shoplite-backend/internal/pos/repository"
	"github.com/shoplite/shoplite-backend/pkg/database"
	"github.com/shoplite/shoplite-backend/pkg/errors"
	"github.com/shoplite/shoplite-backend/pkg/logger"
)

// StockStore is the slice of product persistence the ledger needs.
type StockStore interface {
	GetByID(ctx context.Context, id string) (*repository.Product, error)
	GetStock(ctx context.Context, id string) (int, error)
	AdjustStock(ctx context.Context, productID string, delta int, reason string) (*repository.AdjustResult, error)
}

// MovementStore reads the stock adjustment audit trail.
type MovementStore interface {
	ListByProduct(ctx context.Context, productID string, page, perPage int) ([]*repository.StockMovement, int64, error)
}

// StockService owns all stock mutations. Every write funnels through
// AdjustStock so the clamp-at-zero rule and the audit trail hold for
// manual adjustments and checkouts alike.
type StockService struct {
	products   StockStore
	movements  MovementStore
	publisher  *events.POSEventPublisher
	maxRetries int
	logger     *logger.Logger
}

// NewStockService creates a new stock service
func NewStockService(
	products StockStore,
	movements MovementStore,
	publisher *events.POSEventPublisher,
	maxRetries int,
	log *logger.Logger,
) *StockService {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &StockService{
		products:   products,
		movements:  movements,
		publisher:  publisher,
		maxRetries: maxRetries,
		logger:     log,
	}
}

// AdjustStock applies a signed delta to a product's stock. Transient
// transaction failures are retried from a fresh read, bounded by the
// configured retry budget; persistent contention surfaces as a Conflict.
func (s *StockService) AdjustStock(ctx context.Context, productID string, delta int, reason string) (*repository.AdjustResult, error) {
	if delta == 0 {
		return nil, errors.BadRequest("delta must be non-zero")
	}
	if reason == "" {
		reason = "manual"
	}

	var result *repository.AdjustResult
	var err error

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		result, err = s.products.AdjustStock(ctx, productID, delta, reason)
		if err == nil {
			break
		}
		if !database.IsRetryable(err) {
			break
		}
		s.logger.Warn().
			Str("product_id", productID).
			Int("attempt", attempt).
			Msg("stock adjustment retrying after transient failure")
	}

	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return nil, appErr
		}
		return nil, err
	}

	if result.Floored {
		s.logger.Warn().
			Str("product_id", productID).
			Int("delta", delta).
			Int("applied", result.Applied).
			Msg("stock decrement floored at zero")
	}

	s.publisher.PublishStockAdjusted(ctx, result, reason)
	return result, nil
}

// GetStock reads the current on-hand stock for a product
func (s *StockService) GetStock(ctx context.Context, productID string) (int, error) {
	return s.products.GetStock(ctx, productID)
}

// ListMovements lists a product's adjustment audit trail, newest first
func (s *StockService) ListMovements(ctx context.Context, productID string, page, perPage int) ([]*repository.StockMovement, int64, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, 0, err
	}
	return s.movements.ListByProduct(ctx, productID, page, perPage)
}
