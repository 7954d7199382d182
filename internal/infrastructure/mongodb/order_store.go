package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Bare3-dev/FoodHub-sub001/internal/domain"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/errors"
)

const ordersCollection = "orders"

// OrderStore implements domain.OrderStore for MongoDB
type OrderStore struct {
	collection *mongo.Collection
}

// NewOrderStore creates the store
func NewOrderStore(db *mongo.Database) *OrderStore {
	return &OrderStore{
		collection: db.Collection(ordersCollection),
	}
}

// FindByID returns an order by its identifier
func (s *OrderStore) FindByID(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	err := s.collection.FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.ErrNotFoundWithID("order", orderID)
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}

	return &order, nil
}

// MarkPaid sets payment status paid, status confirmed and the confirmed
// timestamp
func (s *OrderStore) MarkPaid(ctx context.Context, orderID string, confirmedAt time.Time) error {
	return s.update(ctx, orderID, bson.M{
		"paymentStatus": domain.OrderPaymentPaid,
		"status":        domain.OrderStatusConfirmed,
		"confirmedAt":   confirmedAt,
	})
}

// MarkPaymentFailed sets payment status failed and cancels the order
func (s *OrderStore) MarkPaymentFailed(ctx context.Context, orderID string, reason string) error {
	return s.update(ctx, orderID, bson.M{
		"paymentStatus":      domain.OrderPaymentFailed,
		"status":             domain.OrderStatusCancelled,
		"cancellationReason": reason,
	})
}

// MarkRefunded sets payment status refunded with the refund amount
func (s *OrderStore) MarkRefunded(ctx context.Context, orderID string, amount float64, refundedAt time.Time) error {
	return s.update(ctx, orderID, bson.M{
		"paymentStatus": domain.OrderPaymentRefunded,
		"refundAmount":  amount,
		"refundedAt":    refundedAt,
	})
}

// UpdateStatus sets the order status
func (s *OrderStore) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	return s.update(ctx, orderID, bson.M{"status": status})
}

func (s *OrderStore) update(ctx context.Context, orderID string, fields bson.M) error {
	fields["updatedAt"] = time.Now()

	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": orderID}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	if result.MatchedCount == 0 {
		return errors.ErrNotFoundWithID("order", orderID)
	}

	return nil
}
