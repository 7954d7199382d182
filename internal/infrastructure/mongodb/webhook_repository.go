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

const (
	webhookLogsCollection  = "webhook_logs"
	webhookStatsCollection = "webhook_statistics"
)

// WebhookLogRepository implements domain.WebhookLogRepository for MongoDB
type WebhookLogRepository struct {
	collection *mongo.Collection
}

// NewWebhookLogRepository creates the repository and ensures its indexes
func NewWebhookLogRepository(ctx context.Context, db *mongo.Database) (*WebhookLogRepository, error) {
	repo := &WebhookLogRepository{
		collection: db.Collection(webhookLogsCollection),
	}

	_, err := repo.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "service", Value: 1},
			{Key: "createdAt", Value: -1},
		},
		Options: options.Index().SetName("idx_service_createdAt"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook log indexes: %w", err)
	}

	return repo, nil
}

// Append inserts one webhook log entry
func (r *WebhookLogRepository) Append(ctx context.Context, entry *domain.WebhookLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to append webhook log entry: %w", err)
	}

	return nil
}

// WebhookStatsRepository implements domain.WebhookStatsRepository for
// MongoDB. Counters are atomic $inc updates; the running average is folded
// in with an aggregation-pipeline update so concurrent webhooks never lose
// a sample.
type WebhookStatsRepository struct {
	collection *mongo.Collection
}

// NewWebhookStatsRepository creates the repository and ensures its indexes
func NewWebhookStatsRepository(ctx context.Context, db *mongo.Database) (*WebhookStatsRepository, error) {
	repo := &WebhookStatsRepository{
		collection: db.Collection(webhookStatsCollection),
	}

	_, err := repo.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "service", Value: 1},
			{Key: "eventType", Value: 1},
		},
		Options: options.Index().SetUnique(true).SetName("idx_service_eventType"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook stats indexes: %w", err)
	}

	return repo, nil
}

// RecordReceived increments total_received for (service, eventType)
func (r *WebhookStatsRepository) RecordReceived(ctx context.Context, service, eventType string) error {
	filter := bson.M{"service": service, "eventType": eventType}
	update := bson.M{
		"$inc": bson.M{"totalReceived": 1},
		"$set": bson.M{"updatedAt": time.Now()},
		"$setOnInsert": bson.M{
			"service":   service,
			"eventType": eventType,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to record webhook received: %w", err)
	}

	return nil
}

// RecordOutcome increments the success or failure counter and folds the
// response time into the running average:
// newAvg = (avg*processed + sample) / (processed + 1)
func (r *WebhookStatsRepository) RecordOutcome(ctx context.Context, service, eventType string, success bool, responseTime time.Duration) error {
	counterField := "failedProcessed"
	if success {
		counterField = "successfulProcessed"
	}

	sampleMs := float64(responseTime.Milliseconds())
	processed := bson.M{"$add": bson.A{
		bson.M{"$ifNull": bson.A{"$successfulProcessed", 0}},
		bson.M{"$ifNull": bson.A{"$failedProcessed", 0}},
	}}

	pipeline := bson.A{
		bson.M{"$set": bson.M{
			"averageResponseTimeMs": bson.M{
				"$divide": bson.A{
					bson.M{"$add": bson.A{
						bson.M{"$multiply": bson.A{
							bson.M{"$ifNull": bson.A{"$averageResponseTimeMs", 0}},
							processed,
						}},
						sampleMs,
					}},
					bson.M{"$add": bson.A{processed, 1}},
				},
			},
			counterField: bson.M{"$add": bson.A{
				bson.M{"$ifNull": bson.A{"$" + counterField, 0}},
				1,
			}},
			"service":   service,
			"eventType": eventType,
			"updatedAt": time.Now(),
		}},
	}

	filter := bson.M{"service": service, "eventType": eventType}
	_, err := r.collection.UpdateOne(ctx, filter, pipeline, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to record webhook outcome: %w", err)
	}

	return nil
}

// FindAll returns all statistics rows
func (r *WebhookStatsRepository) FindAll(ctx context.Context) ([]*domain.WebhookStats, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to find webhook statistics: %w", err)
	}
	defer cursor.Close(ctx)

	var stats []*domain.WebhookStats
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, fmt.Errorf("failed to decode webhook statistics: %w", err)
	}

	return stats, nil
}
