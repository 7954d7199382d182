package notify

import (
	"context"

	"github.com/Bare3-dev/FoodHub-sub001/internal/domain"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/kafka"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/logging"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/outbox"
)

// EventLoyaltyService implements domain.LoyaltyService by queueing point
// postings on the loyalty topic through the transactional outbox. The
// loyalty service owns the earning rules; this side only reports the spend.
type EventLoyaltyService struct {
	outbox outbox.Repository
	logger *logging.Logger
}

// NewEventLoyaltyService creates the outbox-backed loyalty publisher
func NewEventLoyaltyService(repo outbox.Repository, logger *logging.Logger) *EventLoyaltyService {
	return &EventLoyaltyService{
		outbox: repo,
		logger: logger.WithComponent("loyalty"),
	}
}

type loyaltyPayload struct {
	OrderID      string  `json:"orderId"`
	RestaurantID string  `json:"restaurantId"`
	CustomerName string  `json:"customerName,omitempty"`
	Email        string  `json:"email,omitempty"`
	Phone        string  `json:"phone,omitempty"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency,omitempty"`
}

// PostPoints queues a loyalty point posting for a completed payment
func (l *EventLoyaltyService) PostPoints(ctx context.Context, order *domain.Order) error {
	event, err := kafka.NewEvent("loyalty.points.earn", eventSource, order.ID, &loyaltyPayload{
		OrderID:      order.ID,
		RestaurantID: order.RestaurantID,
		CustomerName: order.Customer.Name,
		Email:        order.Customer.Email,
		Phone:        order.Customer.Phone,
		Amount:       order.Total,
		Currency:     order.Currency,
	})
	if err != nil {
		return err
	}

	outboxEvent, err := outbox.NewOutboxEvent(order.ID, "order", kafka.Topics.LoyaltyEvents, event)
	if err != nil {
		return err
	}

	if err := l.outbox.Save(ctx, outboxEvent); err != nil {
		return err
	}

	l.logger.Debug("Loyalty points queued", "orderId", order.ID, "amount", order.Total)
	return nil
}
