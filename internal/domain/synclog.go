package domain

import "time"

// SyncType categorizes a sync log entry
type SyncType string

const (
	SyncTypeOrder     SyncType = "order"
	SyncTypeMenu      SyncType = "menu"
	SyncTypeInventory SyncType = "inventory"
)

// SyncOutcome is the recorded result of a sync operation
type SyncOutcome string

const (
	SyncOutcomeSuccess SyncOutcome = "success"
	SyncOutcomeFailed  SyncOutcome = "failed"
	SyncOutcomePending SyncOutcome = "pending"
)

// SyncLogEntry is an append-only audit record of one sync operation.
// Entries are never mutated or deleted by this service.
type SyncLogEntry struct {
	ID            string         `bson:"_id" json:"id"`
	IntegrationID string         `bson:"integrationId" json:"integrationId"`
	SyncType      SyncType       `bson:"syncType" json:"syncType"`
	Status        SyncOutcome    `bson:"status" json:"status"`
	Details       map[string]any `bson:"details,omitempty" json:"details,omitempty"`
	SyncedAt      time.Time      `bson:"syncedAt" json:"syncedAt"`
}
