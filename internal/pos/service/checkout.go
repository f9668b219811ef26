package service

import (
	"context"

	"github.com/shoplite/shoplite-backend/internal/pos/events"
	"github.com/shoplite/shoplite-backend/internal/pos/repository"
	"github.com/shoplite/shoplite-backend/pkg/errors"
	"github.com/shoplite/shoplite-backend/pkg/logger"
)

// CheckoutStore is the slice of checkout persistence the processor needs.
type CheckoutStore interface {
	Create(ctx context.Context, req *repository.CheckoutRequest) error
	GetByID(ctx context.Context, id string) (*repository.CheckoutRequest, error)
	GetByPickupCode(ctx context.Context, code string) (*repository.CheckoutRequest, error)
	Claim(ctx context.Context, id string) (*repository.CheckoutRequest, error)
	Finish(ctx context.Context, id, status string) error
}

// CheckoutResult is the outcome of processing a checkout request.
type CheckoutResult struct {
	Request *repository.CheckoutRequest `json:"request"`
	Lines   []*repository.AdjustResult  `json:"lines"`
}

// CheckoutService processes multi-line checkout requests against the stock
// ledger. Processing is validate-then-commit: every line is checked against
// current stock before any decrement, then lines are committed one at a
// time. The commit phase is not atomic across lines; a mid-flight failure
// is surfaced as a partial failure carrying the committed line indexes, and
// the committed decrements stay applied.
type CheckoutService struct {
	checkouts CheckoutStore
	products  StockStore
	stock     *StockService
	publisher *events.POSEventPublisher
	logger    *logger.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	checkouts CheckoutStore,
	products StockStore,
	stock *StockService,
	publisher *events.POSEventPublisher,
	log *logger.Logger,
) *CheckoutService {
	return &CheckoutService{
		checkouts: checkouts,
		products:  products,
		stock:     stock,
		publisher: publisher,
		logger:    log,
	}
}

// Create records a new pending checkout request. The total is derived from
// the lines; a client-supplied total is ignored.
func (s *CheckoutService) Create(ctx context.Context, lines repository.CheckoutLines, pickupCode *string) (*repository.CheckoutRequest, error) {
	if len(lines) == 0 {
		return nil, errors.BadRequest("checkout requires at least one line")
	}

	total := 0
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, errors.BadRequest("line quantity must be positive")
		}
		total += line.PriceCents * line.Quantity
	}

	req := &repository.CheckoutRequest{
		Lines:      lines,
		TotalCents: total,
		PickupCode: pickupCode,
	}
	if err := s.checkouts.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Get returns a checkout request by ID
func (s *CheckoutService) Get(ctx context.Context, id string) (*repository.CheckoutRequest, error) {
	return s.checkouts.GetByID(ctx, id)
}

// Process consumes a pending checkout request. The request is claimed
// first, so a concurrent processor gets a Conflict instead of a double
// decrement. Validation rejects the whole request with every short line
// listed; nothing is mutated on rejection.
func (s *CheckoutService) Process(ctx context.Context, id string) (*CheckoutResult, error) {
	req, err := s.checkouts.Claim(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.process(ctx, req)
}

// Redeem looks a pending request up by pickup code and processes it
func (s *CheckoutService) Redeem(ctx context.Context, pickupCode string) (*CheckoutResult, error) {
	req, err := s.checkouts.GetByPickupCode(ctx, pickupCode)
	if err != nil {
		return nil, err
	}
	return s.Process(ctx, req.ID)
}

func (s *CheckoutService) process(ctx context.Context, req *repository.CheckoutRequest) (*CheckoutResult, error) {
	// Validation phase: read-only, all lines checked before any decrement
	var shortfalls []errors.StockShortfall
	for _, line := range req.Lines {
		stock, err := s.products.GetStock(ctx, line.ProductID)
		if err != nil {
			s.finish(ctx, req, repository.CheckoutStatusFailed, nil)
			return nil, err
		}
		if stock < line.Quantity {
			shortfalls = append(shortfalls, errors.StockShortfall{
				ProductID: line.ProductID,
				Have:      stock,
				Need:      line.Quantity,
			})
		}
	}
	if len(shortfalls) > 0 {
		s.finish(ctx, req, repository.CheckoutStatusFailed, nil)
		return nil, errors.InsufficientStock(shortfalls)
	}

	// Commit phase: per-line decrements through the ledger. Stock validated
	// above may have moved since; the clamp keeps a raced decrement from
	// going negative rather than aborting the sale.
	results := make([]*repository.AdjustResult, 0, len(req.Lines))
	var committed []int
	for i, line := range req.Lines {
		result, err := s.stock.AdjustStock(ctx, line.ProductID, -line.Quantity, "sale")
		if err != nil {
			s.logger.Error().Err(err).
				Str("request_id", req.ID).
				Int("line", i).
				Msg("checkout commit failed mid-flight")
			s.finish(ctx, req, repository.CheckoutStatusPartial, committed)
			return nil, errors.PartialFailure(err, committed)
		}
		committed = append(committed, i)
		results = append(results, result)
	}

	s.finish(ctx, req, repository.CheckoutStatusCompleted, committed)
	return &CheckoutResult{Request: req, Lines: results}, nil
}

// finish records the terminal state and publishes the checkout event.
// A failure to record the state is logged, not surfaced: the stock
// mutations are the source of truth and have already happened.
func (s *CheckoutService) finish(ctx context.Context, req *repository.CheckoutRequest, status string, committed []int) {
	if err := s.checkouts.Finish(ctx, req.ID, status); err != nil {
		s.logger.Error().Err(err).
			Str("request_id", req.ID).
			Str("status", status).
			Msg("failed to record checkout terminal state")
	}
	req.Status = status
	s.publisher.PublishCheckoutFinished(ctx, req.ID, status, len(req.Lines), committed)
}
