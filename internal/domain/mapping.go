package domain

import "time"

// SyncStatus is the state of an order-ID mapping
type SyncStatus string

const (
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusPending SyncStatus = "pending"
	SyncStatusFailed  SyncStatus = "failed"
)

// OrderMapping correlates a platform order with a gateway order. It is the
// single source of truth for that correlation: at most one mapping exists
// per (foodhubOrderId, posType), created on the first successful outbound
// push and never deleted.
type OrderMapping struct {
	ID             string     `bson:"_id" json:"id"`
	FoodhubOrderID string     `bson:"foodhubOrderId" json:"foodhubOrderId"`
	POSOrderID     string     `bson:"posOrderId" json:"posOrderId"`
	POSType        POSType    `bson:"posType" json:"posType"`
	SyncStatus     SyncStatus `bson:"syncStatus" json:"syncStatus"`
	CreatedAt      time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time  `bson:"updatedAt" json:"updatedAt"`
}
