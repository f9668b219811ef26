package repository_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shoplite/shoplite-backend/internal/pos/repository"
	"github.com/shoplite/shoplite-backend/pkg/database"
	"github.com/shoplite/shoplite-backend/pkg/errors"
	"github.com/shoplite/shoplite-backend/pkg/logger"
	"github.com/shoplite/shoplite-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProductRepo(t *testing.T) (*testutil.MockDB, *repository.ProductRepository) {
	mockDB := testutil.NewMockDB(t)
	t.Cleanup(func() { mockDB.Close() })
	db := database.Wrap(mockDB.DB, logger.New("test", "test"))
	return mockDB, repository.NewProductRepository(db)
}

func TestAdjustStock_DecrementWithinStock(t *testing.T) {
	mockDB, repo := newProductRepo(t)
	ctx := context.Background()

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("SELECT stock FROM products WHERE id = $1 AND deleted_at IS NULL FOR UPDATE").
		WithArgs("p1").
		WillReturnRows(testutil.MockRows("stock").AddRow(10))
	mockDB.ExpectExec("UPDATE products SET stock = $2, updated_at = NOW() WHERE id = $1").
		WithArgs("p1", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.Mock.ExpectExec("INSERT INTO stock_movements").
		WithArgs(testutil.AnyUUID{}, "p1", -3, -3, "sale", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	result, err := repo.AdjustStock(ctx, "p1", -3, "sale")
	require.NoError(t, err)
	assert.Equal(t, 7, result.NewStock)
	assert.Equal(t, -3, result.Applied)
	assert.False(t, result.Floored)

	mockDB.ExpectationsWereMet(t)
}

func TestAdjustStock_DecrementBeyondStockClampsAtZero(t *testing.T) {
	mockDB, repo := newProductRepo(t)
	ctx := context.Background()

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("SELECT stock FROM products WHERE id = $1 AND deleted_at IS NULL FOR UPDATE").
		WithArgs("p1").
		WillReturnRows(testutil.MockRows("stock").AddRow(2))
	// The write is the clamped value, not current+delta
	mockDB.ExpectExec("UPDATE products SET stock = $2, updated_at = NOW() WHERE id = $1").
		WithArgs("p1", 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// The movement records both the requested delta and what was applied
	mockDB.Mock.ExpectExec("INSERT INTO stock_movements").
		WithArgs(testutil.AnyUUID{}, "p1", -5, -2, "sale", 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	result, err := repo.AdjustStock(ctx, "p1", -5, "sale")
	require.NoError(t, err)
	assert.Equal(t, -5, result.Delta)
	assert.Equal(t, -2, result.Applied)
	assert.Equal(t, 0, result.NewStock)
	assert.True(t, result.Floored)

	mockDB.ExpectationsWereMet(t)
}

func TestAdjustStock_ProductMissingRollsBack(t *testing.T) {
	mockDB, repo := newProductRepo(t)
	ctx := context.Background()

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("SELECT stock FROM products WHERE id = $1 AND deleted_at IS NULL FOR UPDATE").
		WithArgs("gone").
		WillReturnRows(testutil.MockRows("stock"))
	mockDB.ExpectRollback()

	_, err := repo.AdjustStock(ctx, "gone", -1, "sale")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	mockDB.ExpectationsWereMet(t)
}

func TestGetByCode_FallsBackToSKU(t *testing.T) {
	mockDB, repo := newProductRepo(t)
	ctx := context.Background()

	cols := []string{
		"id", "name", "sku", "barcode", "price_cents", "stock",
		"safety_stock", "alert_threshold_days", "created_at", "updated_at", "deleted_at",
	}

	// Barcode miss, then SKU hit
	mockDB.ExpectQuery("SELECT * FROM products WHERE barcode = $1 AND deleted_at IS NULL LIMIT 1").
		WithArgs("ABC-1").
		WillReturnRows(testutil.MockRows(cols...))
	mockDB.ExpectQuery("SELECT * FROM products WHERE sku = $1 AND deleted_at IS NULL LIMIT 1").
		WithArgs("ABC-1").
		WillReturnRows(testutil.MockRows(cols...).
			AddRow("p1", "Milk", "ABC-1", nil, 199, 10, 0, 7, now(), now(), nil))

	product, err := repo.GetByCode(ctx, "ABC-1")
	require.NoError(t, err)
	assert.Equal(t, "p1", product.ID)

	mockDB.ExpectationsWereMet(t)
}

func TestGetByCode_NotFound(t *testing.T) {
	mockDB, repo := newProductRepo(t)
	ctx := context.Background()

	mockDB.ExpectQuery("SELECT * FROM products WHERE barcode = $1 AND deleted_at IS NULL LIMIT 1").
		WithArgs("nope").
		WillReturnRows(testutil.MockRows("id"))
	mockDB.ExpectQuery("SELECT * FROM products WHERE sku = $1 AND deleted_at IS NULL LIMIT 1").
		WithArgs("nope").
		WillReturnRows(testutil.MockRows("id"))

	_, err := repo.GetByCode(ctx, "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestSoftDelete_AlreadyDeleted(t *testing.T) {
	mockDB, repo := newProductRepo(t)
	ctx := context.Background()

	mockDB.ExpectExec("UPDATE products SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL").
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SoftDelete(ctx, "p1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
