package service

import (
	"context"
	"time"

	"github.com/shoplite/shoplite-backend/pkg/logger"
)

// ReconcileScheduler runs reconciliation passes periodically. Scheduling
// is opt-in: deployments that trigger reconciliation externally (cron, an
// admin endpoint) leave it disabled.
type ReconcileScheduler struct {
	reconciler *Reconciler
	interval   time.Duration
	logger     *logger.Logger
	cancel     context.CancelFunc
}

// NewReconcileScheduler creates a new reconcile scheduler
func NewReconcileScheduler(reconciler *Reconciler, interval time.Duration, log *logger.Logger) *ReconcileScheduler {
	return &ReconcileScheduler{
		reconciler: reconciler,
		interval:   interval,
		logger:     log,
	}
}

// Start starts the scheduler in a background goroutine. An initial pass
// runs immediately, then one per interval until the context is cancelled.
func (s *ReconcileScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	go func() {
		s.logger.Info().Dur("interval", s.interval).Msg("reconcile scheduler started")

		s.runOnce(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("reconcile scheduler stopped")
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()
}

// Stop stops the scheduler goroutine
func (s *ReconcileScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *ReconcileScheduler) runOnce(ctx context.Context) {
	if _, err := s.reconciler.Reconcile(ctx, time.Now().UTC()); err != nil {
		s.logger.Error().Err(err).Msg("scheduled reconciliation failed")
	}
}
