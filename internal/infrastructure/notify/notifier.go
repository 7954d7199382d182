package notify

import (
	"context"

	"github.com/Bare3-dev/FoodHub-sub001/internal/domain"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/kafka"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/logging"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/outbox"
)

const eventSource = "pos-sync-service"

// EventNotifier implements domain.NotificationSender by writing events
// through the transactional outbox; the notification service consumes them
// from the notification topic and handles formatting and delivery.
type EventNotifier struct {
	outbox outbox.Repository
	logger *logging.Logger
}

// NewEventNotifier creates the outbox-backed notification sender
func NewEventNotifier(repo outbox.Repository, logger *logging.Logger) *EventNotifier {
	return &EventNotifier{
		outbox: repo,
		logger: logger.WithComponent("notifier"),
	}
}

type orderNotificationPayload struct {
	OrderID      string  `json:"orderId"`
	RestaurantID string  `json:"restaurantId"`
	CustomerName string  `json:"customerName,omitempty"`
	Phone        string  `json:"phone,omitempty"`
	Email        string  `json:"email,omitempty"`
	Total        float64 `json:"total,omitempty"`
	Amount       float64 `json:"amount,omitempty"`
	Reason       string  `json:"reason,omitempty"`
}

// SendPaymentConfirmation queues a payment confirmation for the order's
// customer
func (n *EventNotifier) SendPaymentConfirmation(ctx context.Context, order *domain.Order) error {
	return n.enqueue(ctx, "notification.payment.confirmed", order.ID, &orderNotificationPayload{
		OrderID:      order.ID,
		RestaurantID: order.RestaurantID,
		CustomerName: order.Customer.Name,
		Phone:        order.Customer.Phone,
		Email:        order.Customer.Email,
		Total:        order.Total,
	})
}

// SendPaymentFailure queues a payment failure notice
func (n *EventNotifier) SendPaymentFailure(ctx context.Context, order *domain.Order, reason string) error {
	return n.enqueue(ctx, "notification.payment.failed", order.ID, &orderNotificationPayload{
		OrderID:      order.ID,
		RestaurantID: order.RestaurantID,
		CustomerName: order.Customer.Name,
		Phone:        order.Customer.Phone,
		Email:        order.Customer.Email,
		Reason:       reason,
	})
}

// SendRefundNotice queues a refund notice with the refunded amount
func (n *EventNotifier) SendRefundNotice(ctx context.Context, order *domain.Order, amount float64) error {
	return n.enqueue(ctx, "notification.payment.refunded", order.ID, &orderNotificationPayload{
		OrderID:      order.ID,
		RestaurantID: order.RestaurantID,
		CustomerName: order.Customer.Name,
		Phone:        order.Customer.Phone,
		Email:        order.Customer.Email,
		Amount:       amount,
	})
}

// SendSyncAlert queues an operational alert for on-call visibility
func (n *EventNotifier) SendSyncAlert(ctx context.Context, subject string, details map[string]any) error {
	event, err := kafka.NewEvent("notification.sync.alert", eventSource, subject, map[string]any{
		"subject": subject,
		"details": details,
	})
	if err != nil {
		return err
	}

	outboxEvent, err := outbox.NewOutboxEvent(subject, "sync-alert", kafka.Topics.NotificationEvents, event)
	if err != nil {
		return err
	}

	return n.outbox.Save(ctx, outboxEvent)
}

func (n *EventNotifier) enqueue(ctx context.Context, eventType, orderID string, payload *orderNotificationPayload) error {
	event, err := kafka.NewEvent(eventType, eventSource, orderID, payload)
	if err != nil {
		return err
	}

	outboxEvent, err := outbox.NewOutboxEvent(orderID, "order", kafka.Topics.NotificationEvents, event)
	if err != nil {
		return err
	}

	if err := n.outbox.Save(ctx, outboxEvent); err != nil {
		return err
	}

	n.logger.Debug("Notification queued", "eventType", eventType, "orderId", orderID)
	return nil
}
