package events

import (
	"context"
	"encoding/json"
	"fmt"

	"go-order-service/src/infrastructure/log"
	"go-order-service/src/infrastructure/metrics"
)

// Broker delivers a serialised event under a routing key.
type Broker interface {
	Publish(topic string, body []byte) error
}

// EventStore persists the order event log.
type EventStore interface {
	StoreEventAsPending(ctx context.Context, orderID int64, eventType string, eventData []byte) (string, error)
	MarkEventAsCompleted(ctx context.Context, eventID string) error
	MarkEventAsFailed(ctx context.Context, eventID string) error
	GetEventsByOrderID(ctx context.Context, orderID int64) ([]EventRecord, error)
}

// Publisher announces committed order changes. Publishing is best effort: failures are
// logged and recorded, never returned, because the change they describe is already durable.
type Publisher interface {
	Publish(ctx context.Context, eventType string, orderID int64, event Event)
}

type publisher struct {
	broker  Broker
	store   EventStore
	logger  log.Logger
	metrics *metrics.Metrics
}

// NewPublisher returns a publisher over the configured backends. Either backend may be nil;
// with neither configured the returned publisher does nothing.
func NewPublisher(broker Broker, store EventStore, logger log.Logger, m *metrics.Metrics) Publisher {
	if broker == nil && store == nil {
		return NopPublisher{}
	}
	return &publisher{broker: broker, store: store, logger: logger, metrics: m}
}

func (p *publisher) Publish(ctx context.Context, eventType string, orderID int64, event Event) {
	if err := event.Validate(); err != nil {
		p.logger.Exception(ctx, fmt.Sprintf("Invalid %s event for order %d", eventType, orderID), err)
		p.metrics.ObserveEventPublished(eventType, EventStatusFailed)
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Exception(ctx, fmt.Sprintf("failed to marshal %s event for order %d", eventType, orderID), err)
		p.metrics.ObserveEventPublished(eventType, EventStatusFailed)
		return
	}

	var eventID string
	if p.store != nil {
		eventID, err = p.store.StoreEventAsPending(ctx, orderID, eventType, body)
		if err != nil {
			p.logger.Exception(ctx, fmt.Sprintf("failed to record %s event for order %d", eventType, orderID), err)
			eventID = ""
		}
	}

	status := EventStatusCompleted
	if p.broker != nil {
		if err := p.broker.Publish(eventType, body); err != nil {
			status = EventStatusFailed
			p.logger.Exception(ctx, fmt.Sprintf("failed to publish %s event for order %d", eventType, orderID), err)
		}
	}
	p.metrics.ObserveEventPublished(eventType, status)

	if eventID == "" {
		return
	}
	if status == EventStatusCompleted {
		err = p.store.MarkEventAsCompleted(ctx, eventID)
	} else {
		err = p.store.MarkEventAsFailed(ctx, eventID)
	}
	if err != nil {
		p.logger.Warn(ctx, fmt.Sprintf("Failed to mark event %s as %s: %v", eventID, status, err))
		return
	}

	p.logger.Info(ctx, fmt.Sprintf("%s event %s for order %d", eventType, status, orderID))
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, int64, Event) {}
