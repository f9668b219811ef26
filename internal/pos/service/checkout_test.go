package service_test

import (
	"context"
	"testing"

	"github.com/lib/pq"
	"github.com/shoplite/shoplite-backend/internal/pos/repository"
	"github.com/shoplite/shoplite-backend/internal/pos/service"
	"github.com/shoplite/shoplite-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCheckoutFixture() (*fakeCheckoutStore, *fakeStockStore, *service.CheckoutService) {
	checkouts := newFakeCheckoutStore()
	stockStore := newFakeStockStore()
	stockSvc := service.NewStockService(stockStore, &fakeMovementStore{}, nil, 3, testLogger())
	svc := service.NewCheckoutService(checkouts, stockStore, stockSvc, nil, testLogger())
	return checkouts, stockStore, svc
}

func pendingRequest(t *testing.T, svc *service.CheckoutService, lines repository.CheckoutLines) *repository.CheckoutRequest {
	t.Helper()
	req, err := svc.Create(context.Background(), lines, nil)
	require.NoError(t, err)
	return req
}

func TestCreate_ComputesTotalFromLines(t *testing.T) {
	_, stockStore, svc := newCheckoutFixture()
	stockStore.addProduct("a", 10)

	req, err := svc.Create(context.Background(), repository.CheckoutLines{
		{ProductID: "a", Quantity: 2, PriceCents: 150},
		{ProductID: "a", Quantity: 1, PriceCents: 300},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 600, req.TotalCents)
	assert.Equal(t, repository.CheckoutStatusPending, req.Status)
}

func TestCreate_RejectsEmptyAndInvalidLines(t *testing.T) {
	_, _, svc := newCheckoutFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))

	_, err = svc.Create(ctx, repository.CheckoutLines{{ProductID: "a", Quantity: 0}}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}

func TestProcess_CommitsAllLines(t *testing.T) {
	ctx := context.Background()
	checkouts, stockStore, svc := newCheckoutFixture()
	stockStore.addProduct("a", 5)
	stockStore.addProduct("b", 4)

	req := pendingRequest(t, svc, repository.CheckoutLines{
		{ProductID: "a", Quantity: 2, PriceCents: 100},
		{ProductID: "b", Quantity: 1, PriceCents: 250},
	})

	result, err := svc.Process(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, result.Lines, 2)
	assert.Equal(t, repository.CheckoutStatusCompleted, result.Request.Status)

	assert.Equal(t, 3, stockStore.stock["a"])
	assert.Equal(t, 3, stockStore.stock["b"])

	stored, err := checkouts.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.CheckoutStatusCompleted, stored.Status)
}

func TestProcess_InsufficientStockRejectsWholeRequest(t *testing.T) {
	ctx := context.Background()
	checkouts, stockStore, svc := newCheckoutFixture()
	stockStore.addProduct("a", 2)
	stockStore.addProduct("b", 10)
	stockStore.addProduct("c", 0)

	req := pendingRequest(t, svc, repository.CheckoutLines{
		{ProductID: "b", Quantity: 1},
		{ProductID: "a", Quantity: 3},
		{ProductID: "c", Quantity: 2},
	})

	_, err := svc.Process(ctx, req.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientStock))

	// Every short line is reported, not just the first
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	require.Len(t, appErr.Shortfalls, 2)
	assert.Equal(t, errors.StockShortfall{ProductID: "a", Have: 2, Need: 3}, appErr.Shortfalls[0])
	assert.Equal(t, errors.StockShortfall{ProductID: "c", Have: 0, Need: 2}, appErr.Shortfalls[1])

	// Nothing was decremented, including the line that had enough stock
	assert.Equal(t, 2, stockStore.stock["a"])
	assert.Equal(t, 10, stockStore.stock["b"])

	stored, err := checkouts.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.CheckoutStatusFailed, stored.Status)
}

func TestProcess_SequentialCheckoutsDrainStock(t *testing.T) {
	ctx := context.Background()
	_, stockStore, svc := newCheckoutFixture()
	stockStore.addProduct("a", 5)

	first := pendingRequest(t, svc, repository.CheckoutLines{{ProductID: "a", Quantity: 3}})
	_, err := svc.Process(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stockStore.stock["a"])

	second := pendingRequest(t, svc, repository.CheckoutLines{{ProductID: "a", Quantity: 3}})
	_, err = svc.Process(ctx, second.ID)
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	require.Len(t, appErr.Shortfalls, 1)
	assert.Equal(t, errors.StockShortfall{ProductID: "a", Have: 2, Need: 3}, appErr.Shortfalls[0])
	assert.Equal(t, 2, stockStore.stock["a"])
}

func TestProcess_SameProductTwiceValidatesPerLine(t *testing.T) {
	// Validation reads each line against the same stock snapshot, so two
	// lines of 3 against a stock of 5 both pass. The commit phase clamps
	// the second decrement at zero instead of going negative.
	ctx := context.Background()
	_, stockStore, svc := newCheckoutFixture()
	stockStore.addProduct("a", 5)

	req := pendingRequest(t, svc, repository.CheckoutLines{
		{ProductID: "a", Quantity: 3},
		{ProductID: "a", Quantity: 3},
	})

	result, err := svc.Process(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.CheckoutStatusCompleted, result.Request.Status)
	assert.Equal(t, 0, stockStore.stock["a"])
	assert.False(t, result.Lines[0].Floored)
	assert.True(t, result.Lines[1].Floored)
	assert.Equal(t, -2, result.Lines[1].Applied)
}

func TestProcess_ConsumedExactlyOnce(t *testing.T) {
	ctx := context.Background()
	_, stockStore, svc := newCheckoutFixture()
	stockStore.addProduct("a", 10)

	req := pendingRequest(t, svc, repository.CheckoutLines{{ProductID: "a", Quantity: 1}})

	_, err := svc.Process(ctx, req.ID)
	require.NoError(t, err)

	_, err = svc.Process(ctx, req.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))

	// The second attempt did not decrement again
	assert.Equal(t, 9, stockStore.stock["a"])
}

func TestProcess_PartialFailureSurfacesCommittedLines(t *testing.T) {
	ctx := context.Background()
	checkouts, stockStore, svc := newCheckoutFixture()
	stockStore.addProduct("a", 5)
	stockStore.addProduct("b", 5)
	stockStore.addProduct("c", 5)

	req := pendingRequest(t, svc, repository.CheckoutLines{
		{ProductID: "a", Quantity: 1},
		{ProductID: "b", Quantity: 1},
		{ProductID: "c", Quantity: 1},
	})

	// Validation reads three stocks, then the commit of line b fails with
	// a non-retryable error after line a is already applied.
	stockStore.failures = []error{
		nil,
		&pq.Error{Code: "23514", Constraint: "products_stock_non_negative"},
	}

	_, err := svc.Process(ctx, req.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPartialFailure))

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, []int{0}, appErr.CommittedLines)

	// Line a's decrement stands; later lines never ran
	assert.Equal(t, 4, stockStore.stock["a"])
	assert.Equal(t, 5, stockStore.stock["b"])
	assert.Equal(t, 5, stockStore.stock["c"])

	stored, err := checkouts.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, repository.CheckoutStatusPartial, stored.Status)
}

func TestRedeem_ByPickupCode(t *testing.T) {
	ctx := context.Background()
	_, stockStore, svc := newCheckoutFixture()
	stockStore.addProduct("a", 3)

	code := "PICKUP-42"
	_, err := svc.Create(ctx, repository.CheckoutLines{{ProductID: "a", Quantity: 2}}, &code)
	require.NoError(t, err)

	result, err := svc.Redeem(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, repository.CheckoutStatusCompleted, result.Request.Status)
	assert.Equal(t, 1, stockStore.stock["a"])

	// Redeemed codes are spent
	_, err = svc.Redeem(ctx, code)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
