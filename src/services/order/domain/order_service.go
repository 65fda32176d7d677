package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-order-service/src/infrastructure/log"
	"go-order-service/src/infrastructure/metrics"
	"go-order-service/src/services/events"
)

type OrderService interface {
	ListOrders(ctx context.Context) ([]Order, error)
	GetOrder(ctx context.Context, orderID int64) (Order, error)
	CreateOrder(ctx context.Context, req CreateOrderRequest) (Order, error)
	DeleteOrder(ctx context.Context, orderID int64) error
	GetOrderEvents(ctx context.Context, orderID int64) ([]events.EventRecord, error)
}

// OrderRepository is the relational store behind the service. Implementations return
// *NotFoundError and *StorageError kinds.
type OrderRepository interface {
	ListOrders(ctx context.Context) ([]Order, error)
	GetOrderByID(ctx context.Context, orderID int64) (Order, error)
	CreateOrder(ctx context.Context, draft OrderDraft) (Order, error)
	DeleteOrder(ctx context.Context, orderID int64) error
}

type orderService struct {
	logger     log.Logger
	repository OrderRepository
	publisher  events.Publisher
	eventStore events.EventStore
	metrics    *metrics.Metrics
}

// NewOrderService wires the service. eventStore may be nil when the event log is not configured.
func NewOrderService(
	logger log.Logger,
	repository OrderRepository,
	publisher events.Publisher,
	eventStore events.EventStore,
	m *metrics.Metrics,
) OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &orderService{
		logger:     logger,
		repository: repository,
		publisher:  publisher,
		eventStore: eventStore,
		metrics:    m,
	}
}

func (s *orderService) ListOrders(ctx context.Context) ([]Order, error) {
	start := time.Now()
	orders, err := s.repository.ListOrders(ctx)
	s.observe("list", start, err)
	if err != nil {
		s.logger.Exception(ctx, "failed to list orders", err)
		return nil, err
	}
	return orders, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID int64) (Order, error) {
	start := time.Now()
	order, err := s.repository.GetOrderByID(ctx, orderID)
	s.observe("get", start, err)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Exception(ctx, fmt.Sprintf("failed to get order %d", orderID), err)
		}
		return Order{}, err
	}
	return order, nil
}

// CreateOrder computes the order total, stores the order with its items in one transaction
// and announces it with an order.created event once committed.
func (s *orderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (Order, error) {
	draft := NewOrderDraft(req)

	start := time.Now()
	order, err := s.repository.CreateOrder(ctx, draft)
	s.observe("create", start, err)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Warn(ctx, fmt.Sprintf("Order rejected, customer %d not found", req.CustomerID))
		} else {
			s.logger.Exception(ctx, fmt.Sprintf("failed to create order for customer %d", req.CustomerID), err)
		}
		return Order{}, err
	}

	s.logger.InfoWithExtra(ctx, fmt.Sprintf("Order %d created", order.ID), map[string]any{
		"customerId":  order.CustomerID,
		"totalAmount": order.TotalAmount.String(),
		"itemCount":   len(draft.Items),
	})

	items := make([]events.LineItem, 0, len(draft.Items))
	for _, item := range draft.Items {
		items = append(items, events.LineItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.String(),
		})
	}
	s.publisher.Publish(ctx, events.OrderCreated, order.ID, &events.OrderCreatedEvent{
		OrderID:     order.ID,
		CustomerID:  order.CustomerID,
		TotalAmount: order.TotalAmount.String(),
		OrderDate:   order.OrderDate,
		Items:       items,
		Version:     1,
		TimeStamp:   time.Now().UTC(),
	})

	return order, nil
}

func (s *orderService) DeleteOrder(ctx context.Context, orderID int64) error {
	start := time.Now()
	err := s.repository.DeleteOrder(ctx, orderID)
	s.observe("delete", start, err)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Exception(ctx, fmt.Sprintf("failed to delete order %d", orderID), err)
		}
		return err
	}

	s.logger.Info(ctx, fmt.Sprintf("Order %d deleted", orderID))
	s.publisher.Publish(ctx, events.OrderDeleted, orderID, &events.OrderDeletedEvent{
		OrderID:   orderID,
		Version:   1,
		TimeStamp: time.Now().UTC(),
	})
	return nil
}

// GetOrderEvents returns the recorded lifecycle events of an order, oldest first.
func (s *orderService) GetOrderEvents(ctx context.Context, orderID int64) ([]events.EventRecord, error) {
	if s.eventStore == nil {
		return nil, events.ErrEventLogDisabled
	}
	records, err := s.eventStore.GetEventsByOrderID(ctx, orderID)
	if err != nil {
		s.logger.Exception(ctx, fmt.Sprintf("failed to load events for order %d", orderID), err)
		return nil, &StorageError{Op: "get order events", Err: err}
	}
	return records, nil
}

func (s *orderService) observe(operation string, start time.Time, err error) {
	outcome := metrics.OutcomeCommitted
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = metrics.OutcomeNotFound
	case err != nil:
		outcome = metrics.OutcomeFailed
	}
	s.metrics.ObserveTransaction(operation, outcome, time.Since(start))
}
