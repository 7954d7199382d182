package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Bare3-dev/FoodHub-sub001/internal/domain"
)

const paymentsCollection = "payments"

// PaymentStore implements domain.PaymentStore for MongoDB. Every
// transition is a FindOneAndUpdate filtered on the current status, so a
// duplicate terminal webhook matches nothing and reports applied=false.
type PaymentStore struct {
	collection *mongo.Collection
}

// NewPaymentStore creates the store
func NewPaymentStore(db *mongo.Database) *PaymentStore {
	return &PaymentStore{
		collection: db.Collection(paymentsCollection),
	}
}

// FindByTransactionID resolves a payment by gateway transaction id;
// returns nil when no payment exists
func (s *PaymentStore) FindByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	var payment domain.Payment
	err := s.collection.FindOne(ctx, bson.M{"transactionId": transactionID}).Decode(&payment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}

	return &payment, nil
}

// Complete transitions pending -> completed with the gateway amount
func (s *PaymentStore) Complete(ctx context.Context, paymentID string, amount float64) (bool, error) {
	return s.transition(ctx,
		bson.M{"_id": paymentID, "status": domain.PaymentStatePending},
		bson.M{"$set": bson.M{
			"status":    domain.PaymentStateCompleted,
			"amount":    amount,
			"updatedAt": time.Now(),
		}},
	)
}

// Fail transitions pending -> failed with the error message
func (s *PaymentStore) Fail(ctx context.Context, paymentID string, errorMessage string) (bool, error) {
	return s.transition(ctx,
		bson.M{"_id": paymentID, "status": domain.PaymentStatePending},
		bson.M{"$set": bson.M{
			"status":       domain.PaymentStateFailed,
			"errorMessage": errorMessage,
			"updatedAt":    time.Now(),
		}},
	)
}

// Refund transitions completed -> refunded with the refund amount
func (s *PaymentStore) Refund(ctx context.Context, paymentID string, amount float64, refundedAt time.Time) (bool, error) {
	return s.transition(ctx,
		bson.M{"_id": paymentID, "status": domain.PaymentStateCompleted},
		bson.M{"$set": bson.M{
			"status":       domain.PaymentStateRefunded,
			"refundAmount": amount,
			"refundedAt":   refundedAt,
			"updatedAt":    time.Now(),
		}},
	)
}

func (s *PaymentStore) transition(ctx context.Context, filter, update bson.M) (bool, error) {
	err := s.collection.FindOneAndUpdate(ctx, filter, update).Err()
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// Already in a terminal state; transition did not apply
			return false, nil
		}
		return false, fmt.Errorf("failed to apply payment transition: %w", err)
	}

	return true, nil
}
