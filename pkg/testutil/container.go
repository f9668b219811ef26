// Package testutil provides testing utilities for the shoplite backend:
// testcontainers for PostgreSQL, sqlmock helpers, and test fixtures.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance
type PostgresContainer struct {
	*postgres.PostgresContainer
	DSN string
}

// PostgresContainerConfig configures the test PostgreSQL container
type PostgresContainerConfig struct {
	Database string
	Username string
	Password string
	Image    string // Optional: defaults to postgres:15-alpine
}

// DefaultPostgresConfig returns sensible defaults for test containers
func DefaultPostgresConfig() PostgresContainerConfig {
	return PostgresContainerConfig{
		Database: "shoplite_test",
		Username: "test",
		Password: "test",
		Image:    "postgres:15-alpine",
	}
}

// NewPostgresContainer creates a new PostgreSQL test container
func NewPostgresContainer(ctx context.Context, cfg PostgresContainerConfig) (*PostgresContainer, error) {
	if cfg.Image == "" {
		cfg.Image = "postgres:15-alpine"
	}
	if cfg.Database == "" {
		cfg.Database = "shoplite_test"
	}
	if cfg.Username == "" {
		cfg.Username = "test"
	}
	if cfg.Password == "" {
		cfg.Password = "test"
	}

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(cfg.Image),
		postgres.WithDatabase(cfg.Database),
		postgres.WithUsername(cfg.Username),
		postgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &PostgresContainer{
		PostgresContainer: container,
		DSN:               dsn,
	}, nil
}

// Connect returns a sqlx.DB connection to the container
func (c *PostgresContainer) Connect(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", c.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	return db, nil
}

// Terminate stops and removes the container
func (c *PostgresContainer) Terminate(ctx context.Context) error {
	return c.PostgresContainer.Terminate(ctx)
}

// CreateSchema creates the POS tables
func (c *PostgresContainer) CreateSchema(ctx context.Context, db *sqlx.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS products (
			id UUID PRIMARY KEY,
			name VARCHAR(200) NOT NULL,
			sku VARCHAR(100),
			barcode VARCHAR(100),
			price_cents INTEGER NOT NULL DEFAULT 0,
			stock INTEGER NOT NULL DEFAULT 0
				CONSTRAINT products_stock_non_negative CHECK (stock >= 0),
			safety_stock INTEGER NOT NULL DEFAULT 0,
			alert_threshold_days INTEGER NOT NULL DEFAULT 7,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		);
		CREATE UNIQUE INDEX IF NOT EXISTS products_sku_unique
			ON products (sku) WHERE sku IS NOT NULL AND deleted_at IS NULL;
		CREATE UNIQUE INDEX IF NOT EXISTS products_barcode_unique
			ON products (barcode) WHERE barcode IS NOT NULL AND deleted_at IS NULL;

		CREATE TABLE IF NOT EXISTS stock_movements (
			id UUID PRIMARY KEY,
			product_id UUID NOT NULL REFERENCES products(id),
			delta INTEGER NOT NULL,
			applied INTEGER NOT NULL,
			reason VARCHAR(200) NOT NULL,
			resulting_stock INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS stock_movements_product_idx
			ON stock_movements (product_id, created_at DESC);

		CREATE TABLE IF NOT EXISTS batches (
			id UUID PRIMARY KEY,
			product_id UUID NOT NULL REFERENCES products(id),
			quantity INTEGER NOT NULL DEFAULT 0
				CONSTRAINT batches_quantity_non_negative CHECK (quantity >= 0),
			expiry_date TIMESTAMPTZ,
			received_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS batches_product_expiry_idx
			ON batches (product_id, expiry_date);

		CREATE TABLE IF NOT EXISTS checkout_requests (
			id UUID PRIMARY KEY,
			lines JSONB NOT NULL,
			total_cents INTEGER NOT NULL DEFAULT 0,
			status VARCHAR(20) NOT NULL DEFAULT 'pending'
				CONSTRAINT checkout_requests_status_valid CHECK
				(status IN ('pending', 'processing', 'completed', 'partial', 'failed')),
			pickup_code VARCHAR(50) UNIQUE,
			processed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS notifications (
			id UUID PRIMARY KEY,
			product_id UUID NOT NULL,
			product_name VARCHAR(200) NOT NULL,
			batch_id UUID NOT NULL,
			quantity INTEGER NOT NULL,
			expiry_date TIMESTAMPTZ NOT NULL,
			days_remaining INTEGER NOT NULL,
			level VARCHAR(10) NOT NULL,
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			read_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS notifications_unread_idx
			ON notifications (created_at) WHERE is_read = FALSE;
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// TruncateAll clears all POS tables between tests
func (c *PostgresContainer) TruncateAll(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		TRUNCATE notifications, checkout_requests, stock_movements, batches, products CASCADE
	`)
	return err
}
