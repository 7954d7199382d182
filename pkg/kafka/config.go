package kafka

import (
	"time"
)

// Config holds Kafka configuration
type Config struct {
	Brokers  []string
	ClientID string

	// Producer settings
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int // 0: no ack, 1: leader ack, -1: all replicas ack
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Brokers:  []string{"localhost:9092"},
		ClientID: "foodhub-pos-sync",

		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: -1, // All replicas
	}
}

// Topics contains the Kafka topic names used by the platform
var Topics = struct {
	SyncEvents         string
	NotificationEvents string
	LoyaltyEvents      string
	AuditEvents        string
}{
	SyncEvents:         "foodhub.pos.sync.events",
	NotificationEvents: "foodhub.notifications.events",
	LoyaltyEvents:      "foodhub.loyalty.events",
	AuditEvents:        "foodhub.audit.events",
}

// TopicConfig holds configuration for a Kafka topic
type TopicConfig struct {
	Name              string
	Partitions        int
	ReplicationFactor int
	RetentionMs       int64
}

// DefaultTopicConfigs returns default configurations for the platform topics
func DefaultTopicConfigs() []TopicConfig {
	const week = 7 * 24 * 60 * 60 * 1000

	return []TopicConfig{
		{Name: Topics.SyncEvents, Partitions: 6, ReplicationFactor: 3, RetentionMs: week},
		{Name: Topics.NotificationEvents, Partitions: 6, ReplicationFactor: 3, RetentionMs: week},
		{Name: Topics.LoyaltyEvents, Partitions: 6, ReplicationFactor: 3, RetentionMs: week},
		{Name: Topics.AuditEvents, Partitions: 6, ReplicationFactor: 3, RetentionMs: 90 * 24 * 60 * 60 * 1000}, // 90 days for audit
	}
}
