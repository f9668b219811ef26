package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shoplite/shoplite-backend/pkg/database"
	"github.com/shoplite/shoplite-backend/pkg/errors"
)

// notificationNamespace seeds the deterministic notification key. The key
// is a function of (productID, batchID) only, so repeated scans can never
// produce two records for the same pair.
var notificationNamespace = uuid.MustParse("b3a9f1d2-4c6e-4b87-9a50-1e7d2f8c3a64")

// NotificationKey derives the deterministic notification ID for a
// (product, batch) pair.
func NotificationKey(productID, batchID string) string {
	return uuid.NewSHA1(notificationNamespace, []byte(productID+"/"+batchID)).String()
}

// Notification is one expiry notification. At most one exists per
// (product, batch) pair; once created it is updated in place. The read
// flag belongs to the mark-read operation alone: reconciliation updates
// never touch it.
type Notification struct {
	ID            string     `db:"id" json:"id"`
	ProductID     string     `db:"product_id" json:"product_id"`
	ProductName   string     `db:"product_name" json:"product_name"`
	BatchID       string     `db:"batch_id" json:"batch_id"`
	Quantity      int        `db:"quantity" json:"quantity"`
	ExpiryDate    time.Time  `db:"expiry_date" json:"expiry_date"`
	DaysRemaining int        `db:"days_remaining" json:"days_remaining"`
	Level         string     `db:"level" json:"level"`
	Read          bool       `db:"is_read" json:"read"`
	ReadAt        *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// NotificationRepository handles notification persistence
type NotificationRepository struct {
	db *database.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *database.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// GetByID gets a notification by ID
func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*Notification, error) {
	var n Notification
	query := `SELECT * FROM notifications WHERE id = $1`
	if err := r.db.GetContext(ctx, &n, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("notification")
		}
		return nil, err
	}
	return &n, nil
}

// GetByKey gets the notification for a (product, batch) pair, or nil when
// none exists yet.
func (r *NotificationRepository) GetByKey(ctx context.Context, productID, batchID string) (*Notification, error) {
	var n Notification
	query := `SELECT * FROM notifications WHERE id = $1`
	if err := r.db.GetContext(ctx, &n, query, NotificationKey(productID, batchID)); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

// Create inserts a fresh notification under its deterministic key.
// A concurrent scan may have inserted the same key already; the conflict
// is swallowed and reported through the created return value.
func (r *NotificationRepository) Create(ctx context.Context, n *Notification) (created bool, err error) {
	if n.ID == "" {
		n.ID = NotificationKey(n.ProductID, n.BatchID)
	}

	query := `
		INSERT INTO notifications (
			id, product_id, product_name, batch_id, quantity,
			expiry_date, days_remaining, level, is_read
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false)
		ON CONFLICT (id) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query,
		n.ID, n.ProductID, n.ProductName, n.BatchID, n.Quantity,
		n.ExpiryDate, n.DaysRemaining, n.Level,
	)
	if err != nil {
		return false, err
	}

	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// UpdateSnapshot refreshes the level and snapshot fields of an existing
// notification. The statement deliberately never names the read columns,
// so a concurrent mark-read always survives a re-notification.
func (r *NotificationRepository) UpdateSnapshot(ctx context.Context, n *Notification) error {
	query := `
		UPDATE notifications SET
			product_name = $2, quantity = $3, expiry_date = $4,
			days_remaining = $5, level = $6, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		n.ID, n.ProductName, n.Quantity, n.ExpiryDate, n.DaysRemaining, n.Level,
	)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("notification")
	}

	return nil
}

// MarkRead sets the read flag and timestamp. Idempotent: marking an
// already-read notification succeeds without changing its read timestamp.
func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	query := `
		UPDATE notifications
		SET is_read = true, read_at = COALESCE(read_at, NOW())
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("notification")
	}

	return nil
}

// MarkAllRead marks the oldest unread notifications as read, bounded by
// limit per call to keep latency predictable. Returns how many were marked.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, limit int) (int64, error) {
	query := `
		UPDATE notifications
		SET is_read = true, read_at = NOW()
		WHERE id IN (
			SELECT id FROM notifications
			WHERE is_read = false
			ORDER BY created_at ASC
			LIMIT $1
		)
	`

	result, err := r.db.ExecContext(ctx, query, limit)
	if err != nil {
		return 0, err
	}

	affected, _ := result.RowsAffected()
	return affected, nil
}

// List lists notifications newest first, optionally filtered by read state
func (r *NotificationRepository) List(ctx context.Context, read *bool, page, perPage int) ([]*Notification, int64, error) {
	var total int64
	args := []interface{}{}

	countQuery := `SELECT COUNT(*) FROM notifications`
	query := `SELECT * FROM notifications`

	if read != nil {
		countQuery += ` WHERE is_read = $1`
		query += ` WHERE is_read = $1`
		args = append(args, *read)
	}

	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY created_at DESC`
	if read != nil {
		query += ` LIMIT $2 OFFSET $3`
	} else {
		query += ` LIMIT $1 OFFSET $2`
	}
	offset := (page - 1) * perPage
	args = append(args, perPage, offset)

	var notifications []*Notification
	if err := r.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

// UnreadCount gets the count of unread notifications
func (r *NotificationRepository) UnreadCount(ctx context.Context) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM notifications WHERE is_read = false`
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, err
	}
	return count, nil
}
