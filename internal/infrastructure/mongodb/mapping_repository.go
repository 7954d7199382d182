package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Bare3-dev/FoodHub-sub001/internal/domain"
)

const mappingsCollection = "pos_order_mappings"

// MappingRepository implements domain.MappingRepository for MongoDB.
// Mappings are never deleted: they are the audit trail correlating
// platform orders with gateway orders.
type MappingRepository struct {
	collection *mongo.Collection
}

// NewMappingRepository creates the repository and ensures its indexes
func NewMappingRepository(ctx context.Context, db *mongo.Database) (*MappingRepository, error) {
	repo := &MappingRepository{
		collection: db.Collection(mappingsCollection),
	}

	_, err := repo.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "foodhubOrderId", Value: 1},
				{Key: "posType", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("idx_foodhubOrder_posType"),
		},
		{
			Keys: bson.D{
				{Key: "posOrderId", Value: 1},
				{Key: "posType", Value: 1},
			},
			Options: options.Index().SetName("idx_posOrder_posType"),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create mapping indexes: %w", err)
	}

	return repo, nil
}

// Upsert creates the mapping if absent, refreshing pos order id and status
// if present. Safe to call again on retried pushes.
func (r *MappingRepository) Upsert(ctx context.Context, mapping *domain.OrderMapping) error {
	now := time.Now()

	filter := bson.M{
		"foodhubOrderId": mapping.FoodhubOrderID,
		"posType":        mapping.POSType,
	}
	update := bson.M{
		"$set": bson.M{
			"posOrderId": mapping.POSOrderID,
			"syncStatus": mapping.SyncStatus,
			"updatedAt":  now,
		},
		"$setOnInsert": bson.M{
			"_id":            uuid.New().String(),
			"foodhubOrderId": mapping.FoodhubOrderID,
			"posType":        mapping.POSType,
			"createdAt":      now,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert order mapping: %w", err)
	}

	return nil
}

// FindByFoodhubOrder looks up the mapping by platform order id
func (r *MappingRepository) FindByFoodhubOrder(ctx context.Context, foodhubOrderID string, posType domain.POSType) (*domain.OrderMapping, error) {
	filter := bson.M{"foodhubOrderId": foodhubOrderID, "posType": posType}
	return r.findOne(ctx, filter)
}

// FindByPOSOrder looks up the mapping by gateway order id
func (r *MappingRepository) FindByPOSOrder(ctx context.Context, posOrderID string, posType domain.POSType) (*domain.OrderMapping, error) {
	filter := bson.M{"posOrderId": posOrderID, "posType": posType}
	return r.findOne(ctx, filter)
}

func (r *MappingRepository) findOne(ctx context.Context, filter bson.M) (*domain.OrderMapping, error) {
	var mapping domain.OrderMapping
	err := r.collection.FindOne(ctx, filter).Decode(&mapping)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find order mapping: %w", err)
	}
	return &mapping, nil
}
