package service

import (
	"context"
	"time"

	"github.com/shoplite/shoplite-backend/internal/pos/events"
	"github.com/shoplite/shoplite-backend/internal/pos/expiry"
	"github.com/shoplite/shoplite-backend/internal/pos/repository"
	"github.com/shoplite/shoplite-backend/pkg/cache"
	"github.com/shoplite/shoplite-backend/pkg/logger"
)

// CatalogStore lists products eligible for expiry scanning.
type CatalogStore interface {
	GetAllActive(ctx context.Context) ([]*repository.Product, error)
}

// BatchStore lists the batches considered by an expiry scan.
type BatchStore interface {
	ListForScan(ctx context.Context, productID string) ([]*repository.Batch, error)
}

// NotificationStore is the notification persistence the reconciler needs.
type NotificationStore interface {
	GetByID(ctx context.Context, id string) (*repository.Notification, error)
	GetByKey(ctx context.Context, productID, batchID string) (*repository.Notification, error)
	Create(ctx context.Context, n *repository.Notification) (bool, error)
	UpdateSnapshot(ctx context.Context, n *repository.Notification) error
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, limit int) (int64, error)
	List(ctx context.Context, read *bool, page, perPage int) ([]*repository.Notification, int64, error)
	UnreadCount(ctx context.Context) (int64, error)
}

// Summary reports what one reconciliation pass did. Skipped counts batches
// that were examined but needed no write: zero quantity, no expiry date,
// outside the alert window, or an existing notification already up to date.
type Summary struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// Reconciler converges the notification table onto the current state of
// products and batches. A pass is idempotent: running it twice against the
// same data creates and updates nothing the second time. It only ever
// inserts or updates; notifications for conditions that have cleared are
// left in place for the user to dismiss.
type Reconciler struct {
	products         CatalogStore
	batches          BatchStore
	notifications    NotificationStore
	publisher        *events.POSEventPublisher
	cache            *cache.Cache
	defaultAlertDays int
	markAllReadCap   int
	logger           *logger.Logger
}

// NewReconciler creates a new notification reconciler
func NewReconciler(
	products CatalogStore,
	batches BatchStore,
	notifications NotificationStore,
	publisher *events.POSEventPublisher,
	c *cache.Cache,
	defaultAlertDays int,
	markAllReadCap int,
	log *logger.Logger,
) *Reconciler {
	if defaultAlertDays <= 0 {
		defaultAlertDays = 7
	}
	if markAllReadCap <= 0 {
		markAllReadCap = 50
	}
	return &Reconciler{
		products:         products,
		batches:          batches,
		notifications:    notifications,
		publisher:        publisher,
		cache:            c,
		defaultAlertDays: defaultAlertDays,
		markAllReadCap:   markAllReadCap,
		logger:           log,
	}
}

// Reconcile runs one reconciliation pass as of now. Per-batch failures are
// logged and counted as skipped so one bad row cannot starve the rest of
// the scan.
func (r *Reconciler) Reconcile(ctx context.Context, now time.Time) (*Summary, error) {
	start := time.Now()
	summary := &Summary{}

	products, err := r.products.GetAllActive(ctx)
	if err != nil {
		return nil, err
	}

	for _, product := range products {
		threshold := product.AlertThresholdDays
		if threshold <= 0 {
			threshold = r.defaultAlertDays
		}

		batches, err := r.batches.ListForScan(ctx, product.ID)
		if err != nil {
			r.logger.Error().Err(err).Str("product_id", product.ID).Msg("reconcile: failed to list batches")
			continue
		}

		for _, batch := range batches {
			if batch.Quantity <= 0 || batch.ExpiryDate == nil {
				summary.Skipped++
				continue
			}

			result := expiry.Classify(*batch.ExpiryDate, threshold, now)
			if result.Level == expiry.LevelOK {
				// Outside the alert window. An existing notification for
				// this pair is never downgraded or removed.
				summary.Skipped++
				continue
			}

			if err := r.reconcileBatch(ctx, product, batch, result, summary); err != nil {
				r.logger.Error().Err(err).
					Str("product_id", product.ID).
					Str("batch_id", batch.ID).
					Msg("reconcile: batch failed")
				summary.Skipped++
			}
		}
	}

	if summary.Created > 0 {
		r.cache.InvalidateUnreadCount(ctx)
	}

	r.logger.Info().
		Dur("duration", time.Since(start)).
		Int("created", summary.Created).
		Int("updated", summary.Updated).
		Int("skipped", summary.Skipped).
		Msg("reconciliation pass completed")

	return summary, nil
}

// reconcileBatch converges a single (product, batch) pair
func (r *Reconciler) reconcileBatch(ctx context.Context, product *repository.Product, batch *repository.Batch, result expiry.Result, summary *Summary) error {
	existing, err := r.notifications.GetByKey(ctx, product.ID, batch.ID)
	if err != nil {
		return err
	}

	if existing == nil {
		n := &repository.Notification{
			ProductID:     product.ID,
			ProductName:   product.Name,
			BatchID:       batch.ID,
			Quantity:      batch.Quantity,
			ExpiryDate:    *batch.ExpiryDate,
			DaysRemaining: result.DaysRemaining,
			Level:         string(result.Level),
		}
		created, err := r.notifications.Create(ctx, n)
		if err != nil {
			return err
		}
		if !created {
			// Lost a race with a concurrent pass; its write stands.
			summary.Skipped++
			return nil
		}
		summary.Created++
		r.publisher.PublishNotificationChanged(ctx, n, true)
		return nil
	}

	if unchanged(existing, product, batch, result) {
		summary.Skipped++
		return nil
	}

	// Refresh the snapshot in place. The read flag is untouched: a
	// notification the user already read stays read through level changes.
	existing.ProductName = product.Name
	existing.Quantity = batch.Quantity
	existing.ExpiryDate = *batch.ExpiryDate
	existing.DaysRemaining = result.DaysRemaining
	existing.Level = string(result.Level)
	if err := r.notifications.UpdateSnapshot(ctx, existing); err != nil {
		return err
	}
	summary.Updated++
	r.publisher.PublishNotificationChanged(ctx, existing, false)
	return nil
}

// unchanged reports whether the stored notification already reflects the
// batch's current state.
func unchanged(n *repository.Notification, product *repository.Product, batch *repository.Batch, result expiry.Result) bool {
	return n.Level == string(result.Level) &&
		n.DaysRemaining == result.DaysRemaining &&
		n.Quantity == batch.Quantity &&
		n.ProductName == product.Name &&
		sameDay(n.ExpiryDate, *batch.ExpiryDate)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// List lists notifications, optionally filtered by read state
func (r *Reconciler) List(ctx context.Context, read *bool, page, perPage int) ([]*repository.Notification, int64, error) {
	return r.notifications.List(ctx, read, page, perPage)
}

// MarkRead marks one notification as read
func (r *Reconciler) MarkRead(ctx context.Context, id string) error {
	if err := r.notifications.MarkRead(ctx, id); err != nil {
		return err
	}
	r.cache.InvalidateUnreadCount(ctx)
	return nil
}

// MarkAllRead marks unread notifications as read, oldest first, bounded by
// the configured cap per call. Returns how many were marked.
func (r *Reconciler) MarkAllRead(ctx context.Context) (int64, error) {
	marked, err := r.notifications.MarkAllRead(ctx, r.markAllReadCap)
	if err != nil {
		return 0, err
	}
	if marked > 0 {
		r.cache.InvalidateUnreadCount(ctx)
	}
	return marked, nil
}

// UnreadCount returns the unread-notification count, served from cache
// when fresh.
func (r *Reconciler) UnreadCount(ctx context.Context) (int64, error) {
	if n, ok := r.cache.GetUnreadCount(ctx); ok {
		return n, nil
	}

	n, err := r.notifications.UnreadCount(ctx)
	if err != nil {
		return 0, err
	}
	r.cache.SetUnreadCount(ctx, n)
	return n, nil
}
