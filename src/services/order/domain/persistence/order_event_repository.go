package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-order-service/src/services/events"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const orderEventsCollection = "order_events"

// orderEventDocument is the storage model of one event log entry.
type orderEventDocument struct {
	ID          string     `bson:"_id"`
	OrderID     int64      `bson:"orderId"`
	EventType   string     `bson:"eventType"`
	EventData   []byte     `bson:"eventData"`
	Status      string     `bson:"status"`
	CreatedAt   time.Time  `bson:"createdAt"`
	CompletedAt *time.Time `bson:"completedAt,omitempty"`
}

// OrderEventRepository keeps the order event log in MongoDB.
type OrderEventRepository struct {
	collection *mongo.Collection
}

func NewOrderEventRepository(db *mongo.Database) *OrderEventRepository {
	return &OrderEventRepository{
		collection: db.Collection(orderEventsCollection),
	}
}

// StoreEventAsPending stores an event with pending status before it is published
func (r *OrderEventRepository) StoreEventAsPending(ctx context.Context, orderID int64, eventType string, eventData []byte) (string, error) {
	if !json.Valid(eventData) {
		return "", errors.New("invalid JSON event data")
	}

	doc := orderEventDocument{
		ID:        primitive.NewObjectID().Hex(),
		OrderID:   orderID,
		EventType: eventType,
		EventData: eventData,
		Status:    events.EventStatusPending,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("failed to store %s event for order %d: %w", eventType, orderID, err)
	}
	return doc.ID, nil
}

func (r *OrderEventRepository) MarkEventAsCompleted(ctx context.Context, eventID string) error {
	return r.setStatus(ctx, eventID, bson.M{
		"status":      events.EventStatusCompleted,
		"completedAt": time.Now().UTC(),
	})
}

func (r *OrderEventRepository) MarkEventAsFailed(ctx context.Context, eventID string) error {
	return r.setStatus(ctx, eventID, bson.M{"status": events.EventStatusFailed})
}

func (r *OrderEventRepository) setStatus(ctx context.Context, eventID string, fields bson.M) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": eventID}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update event %s: %w", eventID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("event %s not found", eventID)
	}
	return nil
}

// GetEventsByOrderID returns the events of one order, oldest first.
func (r *OrderEventRepository) GetEventsByOrderID(ctx context.Context, orderID int64) ([]events.EventRecord, error) {
	opts := options.Find().SetSort(bson.D{bson.E{Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"orderId": orderID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query events for order %d: %w", orderID, err)
	}
	defer cursor.Close(ctx)

	records := make([]events.EventRecord, 0)
	for cursor.Next(ctx) {
		var doc orderEventDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode event for order %d: %w", orderID, err)
		}
		records = append(records, events.EventRecord{
			ID:          doc.ID,
			OrderID:     doc.OrderID,
			EventType:   doc.EventType,
			EventData:   json.RawMessage(doc.EventData),
			Status:      doc.Status,
			CreatedAt:   doc.CreatedAt,
			CompletedAt: doc.CompletedAt,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events for order %d: %w", orderID, err)
	}
	return records, nil
}
