package expiry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestClassify_Boundaries(t *testing.T) {
	today := date(2025, time.March, 10)

	tests := []struct {
		name      string
		expiry    time.Time
		threshold int
		wantLevel Level
		wantDays  int
	}{
		{"expires today is near", today, 7, LevelNear, 0},
		{"expired yesterday", today.AddDate(0, 0, -1), 7, LevelExpired, -1},
		{"exactly at threshold is near", today.AddDate(0, 0, 7), 7, LevelNear, 7},
		{"one past threshold is ok", today.AddDate(0, 0, 8), 7, LevelOK, 8},
		{"far future is ok", today.AddDate(0, 1, 0), 7, LevelOK, 31},
		{"long expired", today.AddDate(0, 0, -30), 7, LevelExpired, -30},
		{"zero threshold flags only today", today.AddDate(0, 0, 1), 0, LevelOK, 1},
		{"zero threshold expires today", today, 0, LevelNear, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.expiry, tt.threshold, today)
			assert.Equal(t, tt.wantLevel, got.Level)
			assert.Equal(t, tt.wantDays, got.DaysRemaining)
		})
	}
}

func TestClassify_IgnoresTimeOfDay(t *testing.T) {
	// 23:59 today vs 00:01 tomorrow is still one whole calendar day
	today := time.Date(2025, time.March, 10, 23, 59, 0, 0, time.UTC)
	expiry := time.Date(2025, time.March, 11, 0, 1, 0, 0, time.UTC)

	got := Classify(expiry, 7, today)
	assert.Equal(t, LevelNear, got.Level)
	assert.Equal(t, 1, got.DaysRemaining)
}

func TestClassify_Deterministic(t *testing.T) {
	today := date(2025, time.June, 1)
	expiry := date(2025, time.June, 5)

	first := Classify(expiry, 7, today)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(expiry, 7, today))
	}
}
