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

const syncLogsCollection = "pos_sync_logs"

// SyncLogRepository implements domain.SyncLogRepository for MongoDB.
// The collection is append-only; nothing here mutates or deletes entries.
type SyncLogRepository struct {
	collection *mongo.Collection
}

// NewSyncLogRepository creates the repository and ensures its indexes
func NewSyncLogRepository(ctx context.Context, db *mongo.Database) (*SyncLogRepository, error) {
	repo := &SyncLogRepository{
		collection: db.Collection(syncLogsCollection),
	}

	_, err := repo.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "integrationId", Value: 1},
			{Key: "syncedAt", Value: -1},
		},
		Options: options.Index().SetName("idx_integration_syncedAt"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sync log indexes: %w", err)
	}

	return repo, nil
}

// Append inserts one sync log entry
func (r *SyncLogRepository) Append(ctx context.Context, entry *domain.SyncLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.SyncedAt.IsZero() {
		entry.SyncedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to append sync log entry: %w", err)
	}

	return nil
}

// FindByIntegration returns entries for one integration, newest first
func (r *SyncLogRepository) FindByIntegration(ctx context.Context, integrationID string, limit, offset int) ([]*domain.SyncLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	filter := bson.M{"integrationId": integrationID}
	opts := options.Find().
		SetSort(bson.D{{Key: "syncedAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find sync logs: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*domain.SyncLogEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode sync logs: %w", err)
	}

	return entries, nil
}
