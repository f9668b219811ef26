package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Stock events
	EventStockAdjusted = "pos.stock.adjusted"

	// Checkout events
	EventCheckoutCompleted = "pos.checkout.completed"
	EventCheckoutPartial   = "pos.checkout.partial"

	// Notification events
	EventNotificationCreated = "pos.notification.created"
	EventNotificationUpdated = "pos.notification.updated"
)

// Exchange names
const (
	ExchangePOSEvents = "pos.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return uuid.New().String()
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// StockAdjustedEvent is published after every successful stock adjustment.
// Collaborators subscribe to this instead of relying on ambient UI refresh
// events.
type StockAdjustedEvent struct {
	ProductID string `json:"product_id"`
	Delta     int    `json:"delta"`
	Applied   int    `json:"applied"`
	NewStock  int    `json:"new_stock"`
	Floored   bool   `json:"floored"`
	Reason    string `json:"reason"`
}

// CheckoutCompletedEvent is published when a checkout request reaches a
// terminal state.
type CheckoutCompletedEvent struct {
	RequestID      string `json:"request_id"`
	Status         string `json:"status"`
	LineCount      int    `json:"line_count"`
	CommittedLines []int  `json:"committed_lines,omitempty"`
}

// NotificationChangedEvent is published when reconciliation creates or
// updates an expiry notification.
type NotificationChangedEvent struct {
	NotificationID string `json:"notification_id"`
	ProductID      string `json:"product_id"`
	BatchID        string `json:"batch_id"`
	Level          string `json:"level"`
	DaysRemaining  int    `json:"days_remaining"`
}
