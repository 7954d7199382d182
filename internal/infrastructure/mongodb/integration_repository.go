package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Bare3-dev/FoodHub-sub001/internal/domain"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/errors"
)

const integrationsCollection = "pos_integrations"

// IntegrationRepository implements domain.IntegrationRepository for MongoDB
type IntegrationRepository struct {
	collection *mongo.Collection
}

// NewIntegrationRepository creates the repository and ensures its indexes
func NewIntegrationRepository(ctx context.Context, db *mongo.Database) (*IntegrationRepository, error) {
	repo := &IntegrationRepository{
		collection: db.Collection(integrationsCollection),
	}

	_, err := repo.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "restaurantId", Value: 1},
			{Key: "posType", Value: 1},
		},
		Options: options.Index().SetUnique(true).SetName("idx_restaurant_posType"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create integration indexes: %w", err)
	}

	return repo, nil
}

// FindByRestaurantAndType returns the integration for one (restaurant, gateway) pair
func (r *IntegrationRepository) FindByRestaurantAndType(ctx context.Context, restaurantID string, posType domain.POSType) (*domain.POSIntegration, error) {
	filter := bson.M{"restaurantId": restaurantID, "posType": posType}

	var integration domain.POSIntegration
	err := r.collection.FindOne(ctx, filter).Decode(&integration)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.ErrIntegrationInactive(restaurantID, string(posType))
		}
		return nil, fmt.Errorf("failed to find integration: %w", err)
	}

	return &integration, nil
}

// FindByID returns an integration by its identifier
func (r *IntegrationRepository) FindByID(ctx context.Context, id string) (*domain.POSIntegration, error) {
	var integration domain.POSIntegration
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&integration)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errors.ErrNotFoundWithID("integration", id)
		}
		return nil, fmt.Errorf("failed to find integration: %w", err)
	}

	return &integration, nil
}

// FindActiveByType returns all active integrations for one gateway family
func (r *IntegrationRepository) FindActiveByType(ctx context.Context, posType domain.POSType) ([]*domain.POSIntegration, error) {
	filter := bson.M{"posType": posType, "isActive": true}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find active integrations: %w", err)
	}
	defer cursor.Close(ctx)

	var integrations []*domain.POSIntegration
	if err := cursor.All(ctx, &integrations); err != nil {
		return nil, fmt.Errorf("failed to decode integrations: %w", err)
	}

	return integrations, nil
}
