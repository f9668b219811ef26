package events

import (
	"context"

	"github.com/shoplite/shoplite-backend/internal/pos/repository"
	"github.com/shoplite/shoplite-backend/pkg/logger"
	"github.com/shoplite/shoplite-backend/pkg/messaging"
)

// POSEventPublisher publishes POS-related events. All methods are nil-safe
// so services can run without a broker wired (tests, local tooling).
type POSEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewPOSEventPublisher creates a new POS event publisher
func NewPOSEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*POSEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangePOSEvents, "pos-service", log)
	if err != nil {
		return nil, err
	}

	return &POSEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishStockAdjusted publishes a stock adjusted event
func (p *POSEventPublisher) PublishStockAdjusted(ctx context.Context, adj *repository.AdjustResult, reason string) {
	if p == nil {
		return
	}

	data := messaging.StockAdjustedEvent{
		ProductID: adj.ProductID,
		Delta:     adj.Delta,
		Applied:   adj.Applied,
		NewStock:  adj.NewStock,
		Floored:   adj.Floored,
		Reason:    reason,
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockAdjusted, data); err != nil {
		p.logger.Error().Err(err).Str("product_id", adj.ProductID).Msg("failed to publish stock adjusted event")
	}
}

// PublishCheckoutFinished publishes a checkout terminal-state event
func (p *POSEventPublisher) PublishCheckoutFinished(ctx context.Context, requestID, status string, lineCount int, committed []int) {
	if p == nil {
		return
	}

	eventType := messaging.EventCheckoutCompleted
	if status == repository.CheckoutStatusPartial {
		eventType = messaging.EventCheckoutPartial
	}

	data := messaging.CheckoutCompletedEvent{
		RequestID:      requestID,
		Status:         status,
		LineCount:      lineCount,
		CommittedLines: committed,
	}

	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("request_id", requestID).Msg("failed to publish checkout event")
	}
}

// PublishNotificationChanged publishes a notification created or updated event
func (p *POSEventPublisher) PublishNotificationChanged(ctx context.Context, n *repository.Notification, created bool) {
	if p == nil {
		return
	}

	eventType := messaging.EventNotificationUpdated
	if created {
		eventType = messaging.EventNotificationCreated
	}

	data := messaging.NotificationChangedEvent{
		NotificationID: n.ID,
		ProductID:      n.ProductID,
		BatchID:        n.BatchID,
		Level:          n.Level,
		DaysRemaining:  n.DaysRemaining,
	}

	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("notification_id", n.ID).Msg("failed to publish notification event")
	}
}
