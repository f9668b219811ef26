package database

import (
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"serialization failure", &pq.Error{Code: "40001"}, true},
		{"deadlock", &pq.Error{Code: "40P01"}, true},
		{"check violation", &pq.Error{Code: "23514"}, false},
		{"not a pq error", fmt.Errorf("connection refused"), false},
		{"nil", nil, false},
		// The transaction helper wraps errors surfacing at COMMIT
		{
			"wrapped commit failure",
			fmt.Errorf("failed to commit transaction: %w", &pq.Error{Code: "40001"}),
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestMapPQError_UnwrapsChain(t *testing.T) {
	err := fmt.Errorf("failed to commit transaction: %w", &pq.Error{Code: "40P01"})

	appErr := MapPQError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "CONFLICT", appErr.Code)
}

func TestMapPQError_NotPQ(t *testing.T) {
	assert.Nil(t, MapPQError(fmt.Errorf("connection refused")))
	assert.Nil(t, MapPQError(nil))
}

func TestMapPQError_CheckConstraints(t *testing.T) {
	stock := MapPQError(&pq.Error{Code: "23514", Constraint: "products_stock_non_negative"})
	require.NotNil(t, stock)
	assert.Equal(t, "VALIDATION_ERROR", stock.Code)
	assert.Contains(t, stock.Details, "stock")

	status := MapPQError(&pq.Error{Code: "23514", Constraint: "checkout_requests_status_valid"})
	require.NotNil(t, status)
	assert.Contains(t, status.Details, "status")
}
