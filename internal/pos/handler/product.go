package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shoplite/shoplite-backend/internal/pos/repository"
	"github.com/shoplite/shoplite-backend/internal/pos/service"
	"github.com/shoplite/shoplite-backend/pkg/httputil"
	"github.com/shoplite/shoplite-backend/pkg/logger"
)

// ProductHandler handles product and batch endpoints
type ProductHandler struct {
	service *service.CatalogService
	logger  *logger.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(svc *service.CatalogService, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  log,
	}
}

// CreateProductRequest is the payload for creating a product
type CreateProductRequest struct {
	Name               string  `json:"name" validate:"required,min=1,max=200"`
	SKU                *string `json:"sku,omitempty"`
	Barcode            *string `json:"barcode,omitempty"`
	PriceCents         int     `json:"price_cents" validate:"gte=0"`
	Stock              int     `json:"stock" validate:"gte=0"`
	SafetyStock        int     `json:"safety_stock" validate:"gte=0"`
	AlertThresholdDays int     `json:"alert_threshold_days" validate:"gte=0"`
}

// List lists products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r, 20)

	products, total, err := h.service.ListProducts(r.Context(), page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, products, paginationMeta(page, perPage, total))
}

// Get gets a product with its batches
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, product)
}

// Lookup finds a product by scanned barcode or SKU
func (h *ProductHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")

	product, err := h.service.LookupProduct(r.Context(), code)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, product)
}

// Create creates a new product
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	product := &repository.Product{
		Name:               req.Name,
		SKU:                req.SKU,
		Barcode:            req.Barcode,
		PriceCents:         req.PriceCents,
		Stock:              req.Stock,
		SafetyStock:        req.SafetyStock,
		AlertThresholdDays: req.AlertThresholdDays,
	}
	if err := h.service.CreateProduct(r.Context(), product); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, product)
}

// Update updates product attributes
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req CreateProductRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	product := &repository.Product{
		ID:                 id,
		Name:               req.Name,
		SKU:                req.SKU,
		Barcode:            req.Barcode,
		PriceCents:         req.PriceCents,
		SafetyStock:        req.SafetyStock,
		AlertThresholdDays: req.AlertThresholdDays,
	}
	if err := h.service.UpdateProduct(r.Context(), product); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, product)
}

// Delete soft-deletes a product
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// ReceiveBatchRequest is the payload for receiving a batch
type ReceiveBatchRequest struct {
	Quantity   int        `json:"quantity" validate:"required,gt=0"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
	ReceivedAt *time.Time `json:"received_at,omitempty"`
}

// ReceiveBatch records a received batch and credits the product's stock
func (h *ProductHandler) ReceiveBatch(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")

	var req ReceiveBatchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	batch := &repository.Batch{
		ProductID:  productID,
		Quantity:   req.Quantity,
		ExpiryDate: req.ExpiryDate,
	}
	if req.ReceivedAt != nil {
		batch.ReceivedAt = *req.ReceivedAt
	}

	result, err := h.service.ReceiveBatch(r.Context(), batch)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, map[string]interface{}{
		"batch":      batch,
		"adjustment": result,
	})
}

// ListBatches lists a product's batches
func (h *ProductHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")

	batches, err := h.service.ListBatches(r.Context(), productID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, batches)
}

// UpdateBatch updates a batch's quantity and expiry date
func (h *ProductHandler) UpdateBatch(w http.ResponseWriter, r *http.Request) {
	batchID := chi.URLParam(r, "batchId")

	var req struct {
		Quantity   int        `json:"quantity" validate:"gte=0"`
		ExpiryDate *time.Time `json:"expiry_date,omitempty"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	batch, err := h.service.GetBatch(r.Context(), batchID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	batch.Quantity = req.Quantity
	batch.ExpiryDate = req.ExpiryDate
	if err := h.service.UpdateBatch(r.Context(), batch); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, batch)
}

// pagination reads page/per_page query params with bounds
func pagination(r *http.Request, defaultPerPage int) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = defaultPerPage
	}

	return page, perPage
}

func paginationMeta(page, perPage int, total int64) *httputil.Meta {
	totalPages := int(total) / perPage
	if int(total)%perPage > 0 {
		totalPages++
	}
	return &httputil.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}
