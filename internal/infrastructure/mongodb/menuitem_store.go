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

const menuItemsCollection = "menu_items"

// MenuItemStore implements domain.MenuItemStore for MongoDB
type MenuItemStore struct {
	collection *mongo.Collection
}

// NewMenuItemStore creates the store and ensures its indexes
func NewMenuItemStore(ctx context.Context, db *mongo.Database) (*MenuItemStore, error) {
	store := &MenuItemStore{
		collection: db.Collection(menuItemsCollection),
	}

	_, err := store.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "restaurantId", Value: 1},
			{Key: "posType", Value: 1},
			{Key: "gatewayItemId", Value: 1},
		},
		Options: options.Index().SetUnique(true).SetName("idx_restaurant_posType_gatewayItem"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create menu item indexes: %w", err)
	}

	return store, nil
}

// FindByGatewayItem returns the menu item keyed by gateway item id,
// or nil when absent
func (s *MenuItemStore) FindByGatewayItem(ctx context.Context, restaurantID string, posType domain.POSType, gatewayItemID string) (*domain.MenuItem, error) {
	filter := bson.M{
		"restaurantId":  restaurantID,
		"posType":       posType,
		"gatewayItemId": gatewayItemID,
	}

	var item domain.MenuItem
	err := s.collection.FindOne(ctx, filter).Decode(&item)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find menu item: %w", err)
	}

	return &item, nil
}

// Create inserts a new menu item
func (s *MenuItemStore) Create(ctx context.Context, item *domain.MenuItem) error {
	now := time.Now()
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := s.collection.InsertOne(ctx, item)
	if err != nil {
		return fmt.Errorf("failed to create menu item: %w", err)
	}

	return nil
}

// Update overwrites the mutable fields of an existing menu item
func (s *MenuItemStore) Update(ctx context.Context, item *domain.MenuItem) error {
	update := bson.M{
		"$set": bson.M{
			"name":        item.Name,
			"description": item.Description,
			"price":       item.Price,
			"category":    item.Category,
			"available":   item.Available,
			"updatedAt":   time.Now(),
		},
	}

	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": item.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update menu item: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("menu item not found: %s", item.ID)
	}

	return nil
}

// UpdateStock overwrites stock quantity and availability for a matched
// gateway item; matched is false when the item is unknown
func (s *MenuItemStore) UpdateStock(ctx context.Context, restaurantID string, posType domain.POSType, gatewayItemID string, quantity int, available bool) (bool, error) {
	filter := bson.M{
		"restaurantId":  restaurantID,
		"posType":       posType,
		"gatewayItemId": gatewayItemID,
	}
	update := bson.M{
		"$set": bson.M{
			"stockQuantity": quantity,
			"available":     available,
			"updatedAt":     time.Now(),
		},
	}

	result, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to update stock: %w", err)
	}

	return result.MatchedCount > 0, nil
}
