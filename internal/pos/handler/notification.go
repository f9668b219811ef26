package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shoplite/shoplite-backend/internal/pos/service"
	"github.com/shoplite/shoplite-backend/pkg/httputil"
	"github.com/shoplite/shoplite-backend/pkg/logger"
)

// NotificationHandler handles expiry notification endpoints
type NotificationHandler struct {
	reconciler *service.Reconciler
	logger     *logger.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(reconciler *service.Reconciler, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		reconciler: reconciler,
		logger:     log,
	}
}

// List lists notifications, newest first
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := pagination(r, 50)

	var read *bool
	if v := r.URL.Query().Get("read"); v != "" {
		b := v == "true"
		read = &b
	}

	notifications, total, err := h.reconciler.List(r.Context(), read, page, perPage)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, notifications, paginationMeta(page, perPage, total))
}

// UnreadCount returns the number of unread notifications
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.reconciler.UnreadCount(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]int64{"unread": count})
}

// MarkRead marks one notification as read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.reconciler.MarkRead(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// MarkAllRead marks unread notifications as read, bounded per call
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	marked, err := h.reconciler.MarkAllRead(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]int64{"marked": marked})
}

// Reconcile triggers one reconciliation pass and returns its summary
func (h *NotificationHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	summary, err := h.reconciler.Reconcile(r.Context(), time.Now().UTC())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}
