package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shoplite/shoplite-backend/internal/pos/service"
	"github.com/shoplite/shoplite-backend/pkg/httputil"
	"github.com/shoplite/shoplite-backend/pkg/logger"
)

// StockHandler handles stock ledger endpoints
type StockHandler struct {
	service *service.StockService
	logger  *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(svc *service.StockService, log *logger.Logger) *StockHandler {
	return &StockHandler{
		service: svc,
		logger:  log,
	}
}

// AdjustStockRequest is the payload for a manual stock adjustment
type AdjustStockRequest struct {
	Delta  int    `json:"delta" validate:"required"`
	Reason string `json:"reason" validate:"omitempty,max=200"`
}

// Adjust applies a signed delta to a product's stock
func (h *StockHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")

	var req AdjustStockRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.service.AdjustStock(r.Context(), productID, req.Delta, req.Reason)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// GetStock reads a product's current stock
func (h *StockHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")

	stock, err := h.service.GetStock(r.Context(), productID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{
		"product_id": productID,
		"stock":      stock,
	})
}

// ListMovements lists a product's adjustment audit trail
func (h *StockHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	page, perPage := pagination(r, 50)

	movements, total, err := h.service.ListMovements(r.Context(), productID, page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, movements, paginationMeta(page, perPage, total))
}
