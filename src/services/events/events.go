package events

import (
	"encoding/json"
	"errors"
	"time"
)

const (
	// Event types, also used as AMQP routing keys
	OrderCreated = "order.created"
	OrderDeleted = "order.deleted"

	// Event status enums for the order_events collection
	EventStatusPending   = "pending"   // Stored, not yet handed to the broker
	EventStatusCompleted = "completed" // Published (or recorded when no broker is configured)
	EventStatusFailed    = "failed"    // Broker rejected the event
)

// RoutingKeys lists every event type the service publishes.
var RoutingKeys = []string{OrderCreated, OrderDeleted}

var ErrEventLogDisabled = errors.New("order event log is not configured")

// Event is any payload that can be published.
type Event interface {
	Validate() error
}

type LineItem struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type OrderCreatedEvent struct {
	OrderID     int64      `json:"order_id"`
	CustomerID  int64      `json:"customer_id"`
	TotalAmount string     `json:"total_amount"`
	OrderDate   time.Time  `json:"order_date"`
	Items       []LineItem `json:"order_items"`
	Version     int        `json:"version"`
	TimeStamp   time.Time  `json:"timestamp"`
}

func (e *OrderCreatedEvent) Validate() error {
	if e.OrderID <= 0 || e.TotalAmount == "" {
		return errors.New("missing required fields in OrderCreatedEvent")
	}
	return nil
}

type OrderDeletedEvent struct {
	OrderID   int64     `json:"order_id"`
	Version   int       `json:"version"`
	TimeStamp time.Time `json:"timestamp"`
}

func (e *OrderDeletedEvent) Validate() error {
	if e.OrderID <= 0 {
		return errors.New("missing required fields in OrderDeletedEvent")
	}
	return nil
}

// EventRecord is one entry of the order event log.
type EventRecord struct {
	ID          string          `bson:"_id,omitempty" json:"id"`
	OrderID     int64           `bson:"orderId" json:"order_id"`
	EventType   string          `bson:"eventType" json:"event_type"`
	EventData   json.RawMessage `bson:"eventData" json:"event_data"`
	Status      string          `bson:"status" json:"status"`
	CreatedAt   time.Time       `bson:"createdAt" json:"created_at"`
	CompletedAt *time.Time      `bson:"completedAt,omitempty" json:"completed_at,omitempty"`
}
