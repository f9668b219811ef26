package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// FixtureFactory builds test data with unique identifiers
type FixtureFactory struct {
	counter atomic.Int64
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{}
}

func (f *FixtureFactory) next() int64 {
	return f.counter.Add(1)
}

// ProductFixture holds product test data
type ProductFixture struct {
	ID                 string
	Name               string
	SKU                string
	Barcode            string
	PriceCents         int
	Stock              int
	AlertThresholdDays int
}

// Product builds a product fixture with a unique SKU and barcode
func (f *FixtureFactory) Product(name string, stock int) *ProductFixture {
	n := f.next()
	return &ProductFixture{
		ID:                 uuid.New().String(),
		Name:               name,
		SKU:                fmt.Sprintf("SKU-%06d", n),
		Barcode:            fmt.Sprintf("4006381%06d", n),
		PriceCents:         199,
		Stock:              stock,
		AlertThresholdDays: 7,
	}
}

// BatchFixture holds batch test data
type BatchFixture struct {
	ID         string
	ProductID  string
	Quantity   int
	ExpiryDate *time.Time
}

// Batch builds a batch fixture expiring the given number of days from now
func (f *FixtureFactory) Batch(productID string, quantity, daysUntilExpiry int) *BatchFixture {
	expiry := time.Now().UTC().AddDate(0, 0, daysUntilExpiry)
	return &BatchFixture{
		ID:         uuid.New().String(),
		ProductID:  productID,
		Quantity:   quantity,
		ExpiryDate: &expiry,
	}
}

// BatchWithoutExpiry builds a batch fixture with no expiry date
func (f *FixtureFactory) BatchWithoutExpiry(productID string, quantity int) *BatchFixture {
	return &BatchFixture{
		ID:        uuid.New().String(),
		ProductID: productID,
		Quantity:  quantity,
	}
}

// PickupCode builds a unique pickup code
func (f *FixtureFactory) PickupCode() string {
	return fmt.Sprintf("PICKUP-%06d", f.next())
}
