// Package expiry classifies perishable batches by days until expiry.
package expiry

import "time"

// Level is a batch freshness level.
type Level string

const (
	// LevelOK means the batch is outside its alert window. Never persisted.
	LevelOK Level = "ok"
	// LevelNear means expiry falls within the alert threshold, today included.
	LevelNear Level = "near"
	// LevelExpired means the expiry date is in the past.
	LevelExpired Level = "expired"
)

// Result is the outcome of classifying one batch.
type Result struct {
	Level         Level
	DaysRemaining int
}

// Classify maps an expiry date to a freshness level given the product's
// alert threshold. Granularity is whole calendar days; time of day is
// ignored on both sides. The threshold boundary is inclusive: a batch
// expiring exactly thresholdDays from today is near, not ok.
func Classify(expiryDate time.Time, thresholdDays int, today time.Time) Result {
	days := daysBetween(today, expiryDate)

	switch {
	case days < 0:
		return Result{Level: LevelExpired, DaysRemaining: days}
	case days <= thresholdDays:
		return Result{Level: LevelNear, DaysRemaining: days}
	default:
		return Result{Level: LevelOK, DaysRemaining: days}
	}
}

// daysBetween returns the number of whole calendar days from a to b,
// negative when b precedes a.
func daysBetween(a, b time.Time) int {
	a = truncateToDay(a)
	b = truncateToDay(b)
	return int(b.Sub(a).Hours() / 24)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
