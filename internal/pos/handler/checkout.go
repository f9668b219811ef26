package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shoplite/shoplite-backend/internal/pos/repository"
	"github.com/shoplite/shoplite-backend/internal/pos/service"
	"github.com/shoplite/shoplite-backend/pkg/httputil"
	"github.com/shoplite/shoplite-backend/pkg/logger"
)

// CheckoutHandler handles checkout endpoints
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *logger.Logger
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(svc *service.CheckoutService, log *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: svc,
		logger:  log,
	}
}

// CreateCheckoutRequest is the payload for creating a checkout request
type CreateCheckoutRequest struct {
	Lines      repository.CheckoutLines `json:"lines" validate:"required,min=1,dive"`
	PickupCode *string                  `json:"pickup_code,omitempty"`
}

// Create records a new pending checkout request
func (h *CheckoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCheckoutRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	checkout, err := h.service.Create(r.Context(), req.Lines, req.PickupCode)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, checkout)
}

// Get gets a checkout request by ID
func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	checkout, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, checkout)
}

// Process consumes a pending checkout request
func (h *CheckoutHandler) Process(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	terminalID := httputil.GetTerminalID(r.Context())
	h.logger.Info().
		Str("request_id", id).
		Str("terminal_id", terminalID).
		Msg("processing checkout")

	result, err := h.service.Process(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// Redeem processes a pending checkout request by pickup code
func (h *CheckoutHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PickupCode string `json:"pickup_code" validate:"required"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.service.Redeem(r.Context(), req.PickupCode)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}
