package domain

import (
	"context"
	"time"
)

// IntegrationRepository reads POS integration configuration.
// The sync subsystem never writes integrations.
type IntegrationRepository interface {
	FindByRestaurantAndType(ctx context.Context, restaurantID string, posType POSType) (*POSIntegration, error)
	FindByID(ctx context.Context, id string) (*POSIntegration, error)
	FindActiveByType(ctx context.Context, posType POSType) ([]*POSIntegration, error)
}

// MappingRepository persists order-ID mappings
type MappingRepository interface {
	// Upsert creates the mapping if absent and refreshes pos order id and
	// status if present. The (foodhubOrderId, posType) pair is unique.
	Upsert(ctx context.Context, mapping *OrderMapping) error

	FindByFoodhubOrder(ctx context.Context, foodhubOrderID string, posType POSType) (*OrderMapping, error)
	FindByPOSOrder(ctx context.Context, posOrderID string, posType POSType) (*OrderMapping, error)
}

// SyncLogRepository appends and reads sync log entries
type SyncLogRepository interface {
	Append(ctx context.Context, entry *SyncLogEntry) error
	FindByIntegration(ctx context.Context, integrationID string, limit, offset int) ([]*SyncLogEntry, error)
}

// WebhookLogRepository appends webhook log entries
type WebhookLogRepository interface {
	Append(ctx context.Context, entry *WebhookLogEntry) error
}

// WebhookStatsRepository maintains the per (service, event type) counters
type WebhookStatsRepository interface {
	// RecordReceived increments total_received
	RecordReceived(ctx context.Context, service, eventType string) error

	// RecordOutcome increments the success or failure counter and folds
	// responseTime into the running average
	RecordOutcome(ctx context.Context, service, eventType string, success bool, responseTime time.Duration) error

	FindAll(ctx context.Context) ([]*WebhookStats, error)
}

// OrderStore applies the conditional order-state transitions the webhook
// processor performs. Full order persistence lives in the order service.
type OrderStore interface {
	FindByID(ctx context.Context, orderID string) (*Order, error)

	// MarkPaid sets payment status paid, status confirmed and the confirmed
	// timestamp
	MarkPaid(ctx context.Context, orderID string, confirmedAt time.Time) error

	// MarkPaymentFailed sets payment status failed, status cancelled with
	// the given reason
	MarkPaymentFailed(ctx context.Context, orderID string, reason string) error

	// MarkRefunded sets payment status refunded with the refund amount
	MarkRefunded(ctx context.Context, orderID string, amount float64, refundedAt time.Time) error

	// UpdateStatus sets the order status
	UpdateStatus(ctx context.Context, orderID string, status OrderStatus) error
}

// PaymentStore resolves payments and applies idempotent transitions. Each
// transition is a compare-and-swap on the payment's current status; Applied
// is false when the payment was already in a terminal state, in which case
// side effects must not fire again.
type PaymentStore interface {
	FindByTransactionID(ctx context.Context, transactionID string) (*Payment, error)

	// Complete transitions pending -> completed with the gateway amount
	Complete(ctx context.Context, paymentID string, amount float64) (applied bool, err error)

	// Fail transitions pending -> failed with the error message
	Fail(ctx context.Context, paymentID string, errorMessage string) (applied bool, err error)

	// Refund transitions completed -> refunded with the refund amount
	Refund(ctx context.Context, paymentID string, amount float64, refundedAt time.Time) (applied bool, err error)
}

// MenuItemStore persists the menu items written by catalog/inventory sync
type MenuItemStore interface {
	FindByGatewayItem(ctx context.Context, restaurantID string, posType POSType, gatewayItemID string) (*MenuItem, error)
	Create(ctx context.Context, item *MenuItem) error
	Update(ctx context.Context, item *MenuItem) error
	UpdateStock(ctx context.Context, restaurantID string, posType POSType, gatewayItemID string, quantity int, available bool) (matched bool, err error)
}
