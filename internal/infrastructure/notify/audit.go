package notify

import (
	"context"

	"github.com/Bare3-dev/FoodHub-sub001/pkg/kafka"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/logging"
)

// EventPublisher is the slice of the Kafka producer the audit logger needs
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event *kafka.Event) error
}

// KafkaAuditLogger implements domain.AuditLogger: every entry goes to the
// structured log, and to the audit topic as a fire-and-forget publish.
// Audit delivery is best effort; a broker outage never blocks processing.
type KafkaAuditLogger struct {
	producer EventPublisher
	logger   *logging.Logger
}

// NewKafkaAuditLogger creates the audit logger
func NewKafkaAuditLogger(producer EventPublisher, logger *logging.Logger) *KafkaAuditLogger {
	return &KafkaAuditLogger{
		producer: producer,
		logger:   logger.WithComponent("audit"),
	}
}

// Log records a routine audit event
func (a *KafkaAuditLogger) Log(ctx context.Context, action, resource, resourceID string, details map[string]any) {
	a.record(ctx, "info", action, resource, resourceID, details)
}

// Critical records an audit event that requires operator attention
func (a *KafkaAuditLogger) Critical(ctx context.Context, action, resource, resourceID string, details map[string]any) {
	a.record(ctx, "critical", action, resource, resourceID, details)
}

func (a *KafkaAuditLogger) record(ctx context.Context, severity, action, resource, resourceID string, details map[string]any) {
	a.logger.Audit(ctx, action, resource, resourceID, details)

	event, err := kafka.NewEvent("audit."+action, eventSource, resourceID, map[string]any{
		"severity":   severity,
		"action":     action,
		"resource":   resource,
		"resourceId": resourceID,
		"details":    details,
	})
	if err != nil {
		a.logger.WithError(err).Warn("Failed to build audit event", "action", action)
		return
	}

	if err := a.producer.PublishEvent(ctx, kafka.Topics.AuditEvents, event); err != nil {
		a.logger.WithError(err).Warn("Failed to publish audit event", "action", action)
	}
}
