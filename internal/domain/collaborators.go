package domain

import "context"

// NotificationSender delivers user-facing notifications and operational
// alerts. Formatting and delivery are out of scope; production wiring
// publishes to the notification topic.
type NotificationSender interface {
	SendPaymentConfirmation(ctx context.Context, order *Order) error
	SendPaymentFailure(ctx context.Context, order *Order, reason string) error
	SendRefundNotice(ctx context.Context, order *Order, amount float64) error

	// SendSyncAlert raises an operational alert for on-call visibility
	SendSyncAlert(ctx context.Context, subject string, details map[string]any) error
}

// LoyaltyService posts loyalty points for completed payments
type LoyaltyService interface {
	PostPoints(ctx context.Context, order *Order) error
}

// AuditLogger records security/audit events. The sync layer treats it as a
// black box.
type AuditLogger interface {
	Log(ctx context.Context, action, resource, resourceID string, details map[string]any)
	Critical(ctx context.Context, action, resource, resourceID string, details map[string]any)
}
