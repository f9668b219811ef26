package service

import (
	"context"

	"github.com/shoplite/shoplite-backend/internal/pos/repository"
	"github.com/shoplite/shoplite-backend/pkg/errors"
	"github.com/shoplite/shoplite-backend/pkg/logger"
)

// CatalogService handles product and batch bookkeeping. Stock is not
// touched here; receiving a batch adjusts stock through the ledger at the
// call site so the audit trail stays complete.
type CatalogService struct {
	products *repository.ProductRepository
	batches  *repository.BatchRepository
	stock    *StockService
	logger   *logger.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	products *repository.ProductRepository,
	batches *repository.BatchRepository,
	stock *StockService,
	log *logger.Logger,
) *CatalogService {
	return &CatalogService{
		products: products,
		batches:  batches,
		stock:    stock,
		logger:   log,
	}
}

// ProductWithBatches is a product joined with its batches
type ProductWithBatches struct {
	*repository.Product
	Batches []*repository.Batch `json:"batches"`
}

// CreateProduct creates a new product
func (s *CatalogService) CreateProduct(ctx context.Context, p *repository.Product) error {
	return s.products.Create(ctx, p)
}

// GetProduct gets a product with its batches
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*ProductWithBatches, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	batches, err := s.batches.ListByProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ProductWithBatches{Product: product, Batches: batches}, nil
}

// LookupProduct finds a product by scanned barcode or SKU
func (s *CatalogService) LookupProduct(ctx context.Context, code string) (*repository.Product, error) {
	if code == "" {
		return nil, errors.BadRequest("code is required")
	}
	return s.products.GetByCode(ctx, code)
}

// ListProducts lists products with pagination
func (s *CatalogService) ListProducts(ctx context.Context, page, perPage int) ([]*repository.Product, int64, error) {
	return s.products.List(ctx, page, perPage)
}

// UpdateProduct updates product attributes
func (s *CatalogService) UpdateProduct(ctx context.Context, p *repository.Product) error {
	return s.products.Update(ctx, p)
}

// DeleteProduct soft-deletes a product
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	return s.products.SoftDelete(ctx, id)
}

// ReceiveBatch records a received batch and credits its quantity to the
// product's stock through the ledger.
func (s *CatalogService) ReceiveBatch(ctx context.Context, batch *repository.Batch) (*repository.AdjustResult, error) {
	if batch.Quantity <= 0 {
		return nil, errors.BadRequest("batch quantity must be positive")
	}

	if _, err := s.products.GetByID(ctx, batch.ProductID); err != nil {
		return nil, err
	}

	if err := s.batches.Create(ctx, batch); err != nil {
		return nil, err
	}

	result, err := s.stock.AdjustStock(ctx, batch.ProductID, batch.Quantity, "receive")
	if err != nil {
		// The batch record stands; the stock credit must be retried or
		// entered manually. Surfaced so the operator knows.
		s.logger.Error().Err(err).
			Str("batch_id", batch.ID).
			Str("product_id", batch.ProductID).
			Msg("batch recorded but stock credit failed")
		return nil, err
	}

	return result, nil
}

// GetBatch gets a batch by ID
func (s *CatalogService) GetBatch(ctx context.Context, id string) (*repository.Batch, error) {
	return s.batches.GetByID(ctx, id)
}

// ListBatches lists a product's batches
func (s *CatalogService) ListBatches(ctx context.Context, productID string) ([]*repository.Batch, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.batches.ListByProduct(ctx, productID)
}

// UpdateBatch updates a batch's quantity and expiry date. Quantity edits
// here are freshness bookkeeping only and do not move product stock.
func (s *CatalogService) UpdateBatch(ctx context.Context, batch *repository.Batch) error {
	if batch.Quantity < 0 {
		return errors.BadRequest("batch quantity must not be negative")
	}
	return s.batches.Update(ctx, batch)
}
