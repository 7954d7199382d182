package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Bare3-dev/FoodHub-sub001/internal/domain"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/errors"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/logging"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/metrics"
)

const webhookService = "pos-sync-service"

// PaymentWebhookResult describes the outcome of one payment webhook call
type PaymentWebhookResult struct {
	// Skipped is true when the transaction id resolved to no payment; the
	// webhook is acknowledged without side effects
	Skipped bool `json:"skipped"`

	// Applied is true when the payment transition happened on this call.
	// Duplicate deliveries report false.
	Applied bool `json:"applied"`

	Status domain.PaymentEventStatus `json:"status,omitempty"`
}

// WebhookService processes inbound payment-gateway and POS webhooks.
//
// Payment processing is idempotent end to end: the payment transition is a
// status-filtered compare-and-swap, and side effects (order update,
// notification, loyalty, audit) fire only on the call that won the swap.
type WebhookService struct {
	verifiers    *domain.VerifierRegistry
	payments     domain.PaymentStore
	orders       domain.OrderStore
	webhookLogs  domain.WebhookLogRepository
	webhookStats domain.WebhookStatsRepository
	notifier     domain.NotificationSender
	loyalty      domain.LoyaltyService
	audit        domain.AuditLogger
	syncService  *SyncService
	logger       *logging.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

// NewWebhookService wires the webhook processor
func NewWebhookService(
	verifiers *domain.VerifierRegistry,
	payments domain.PaymentStore,
	orders domain.OrderStore,
	webhookLogs domain.WebhookLogRepository,
	webhookStats domain.WebhookStatsRepository,
	notifier domain.NotificationSender,
	loyalty domain.LoyaltyService,
	audit domain.AuditLogger,
	syncService *SyncService,
	logger *logging.Logger,
	m *metrics.Metrics,
) *WebhookService {
	return &WebhookService{
		verifiers:    verifiers,
		payments:     payments,
		orders:       orders,
		webhookLogs:  webhookLogs,
		webhookStats: webhookStats,
		notifier:     notifier,
		loyalty:      loyalty,
		audit:        audit,
		syncService:  syncService,
		logger:       logger.WithComponent("webhook-service"),
		metrics:      m,
		now:          time.Now,
	}
}

// Stats returns all webhook counters
func (s *WebhookService) Stats(ctx context.Context) ([]*domain.WebhookStats, error) {
	return s.webhookStats.FindAll(ctx)
}

// ProcessPaymentWebhook runs the full payment webhook pipeline: verify the
// signature, log the sanitized payload, parse the event, resolve the
// payment and apply the status transition. A webhook whose transaction id
// matches no payment is acknowledged and skipped.
func (s *WebhookService) ProcessPaymentWebhook(ctx context.Context, provider domain.PaymentProvider, body []byte, signature, clientIP, userAgent string) (*PaymentWebhookResult, error) {
	start := s.now()
	eventType := "payment." + string(provider)

	verifier, registered := s.verifiers.Get(provider)
	verified := registered && verifier.Verify(body, signature)

	entry := &domain.WebhookLogEntry{
		Service:           webhookService,
		EventType:         eventType,
		Payload:           SanitizePayload(body),
		IP:                clientIP,
		UserAgent:         userAgent,
		SignatureVerified: verified,
	}
	defer func() {
		entry.ResponseTimeMs = time.Since(start).Milliseconds()
		if err := s.webhookLogs.Append(ctx, entry); err != nil {
			s.logger.WithError(err).Error("Failed to append webhook log entry", "provider", provider)
		}
	}()

	if err := s.webhookStats.RecordReceived(ctx, webhookService, eventType); err != nil {
		s.logger.WithError(err).Warn("Failed to record webhook received", "provider", provider)
	}

	if !verified {
		s.metrics.RecordWebhookRejected(string(provider))
		s.logger.WebhookReceived(ctx, string(provider), eventType, false, time.Since(start))
		err := errors.ErrSignatureInvalid(string(provider))
		entry.ErrorMessage = err.Message
		s.recordOutcome(ctx, eventType, false, start)
		return nil, err
	}

	var event domain.PaymentEvent
	if err := json.Unmarshal(body, &event); err != nil || event.TransactionID == "" || event.Status == "" {
		appErr := errors.ErrMalformedPayload("transaction_id, status")
		entry.ErrorMessage = appErr.Message
		s.recordOutcome(ctx, eventType, false, start)
		s.metrics.RecordWebhook(string(provider), eventType, false, time.Since(start))
		return nil, appErr
	}

	payment, err := s.payments.FindByTransactionID(ctx, event.TransactionID)
	if err != nil {
		return nil, s.processingFailed(ctx, provider, eventType, entry, start, err)
	}
	if payment == nil {
		// Transaction belongs to another service or arrived before the
		// payment record; acknowledge without side effects.
		s.logger.Warn("Payment webhook for unknown transaction; skipping",
			"provider", provider, "transactionId", event.TransactionID)
		entry.Success = true
		s.metrics.RecordWebhook(string(provider), eventType, true, time.Since(start))
		return &PaymentWebhookResult{Skipped: true, Status: event.Status}, nil
	}

	applied, err := s.applyPaymentEvent(ctx, provider, payment, &event)
	if err != nil {
		return nil, s.processingFailed(ctx, provider, eventType, entry, start, err)
	}

	entry.Success = true
	s.recordOutcome(ctx, eventType, true, start)
	s.metrics.RecordWebhook(string(provider), eventType, true, time.Since(start))
	s.logger.WebhookReceived(ctx, string(provider), eventType, true, time.Since(start))

	return &PaymentWebhookResult{Applied: applied, Status: event.Status}, nil
}

// applyPaymentEvent performs the compare-and-swap transition for the event
// status and, when this call won the swap, the follow-up side effects
func (s *WebhookService) applyPaymentEvent(ctx context.Context, provider domain.PaymentProvider, payment *domain.Payment, event *domain.PaymentEvent) (bool, error) {
	switch event.Status {
	case domain.PaymentEventSuccess:
		applied, err := s.payments.Complete(ctx, payment.ID, event.Amount)
		if err != nil {
			return false, err
		}
		if !applied {
			s.realignOrder(ctx, payment)
			return false, nil
		}
		if err := s.orders.MarkPaid(ctx, payment.OrderID, s.now()); err != nil {
			return true, err
		}
		s.afterPaymentCompleted(ctx, provider, payment, event)
		return true, nil

	case domain.PaymentEventFailed:
		applied, err := s.payments.Fail(ctx, payment.ID, event.ErrorMessage)
		if err != nil {
			return false, err
		}
		if !applied {
			s.realignOrder(ctx, payment)
			return false, nil
		}
		if err := s.orders.MarkPaymentFailed(ctx, payment.OrderID, event.ErrorMessage); err != nil {
			return true, err
		}
		s.afterPaymentFailed(ctx, provider, payment, event)
		return true, nil

	case domain.PaymentEventRefunded:
		refundedAt := s.now()
		applied, err := s.payments.Refund(ctx, payment.ID, event.Amount, refundedAt)
		if err != nil {
			return false, err
		}
		if !applied {
			s.realignOrder(ctx, payment)
			return false, nil
		}
		if err := s.orders.MarkRefunded(ctx, payment.OrderID, event.Amount, refundedAt); err != nil {
			return true, err
		}
		s.afterPaymentRefunded(ctx, provider, payment, event)
		return true, nil

	default:
		s.logger.Warn("Payment webhook with unhandled status; no transition applied",
			"provider", provider, "transactionId", event.TransactionID, "status", event.Status)
		return false, nil
	}
}

func (s *WebhookService) afterPaymentCompleted(ctx context.Context, provider domain.PaymentProvider, payment *domain.Payment, event *domain.PaymentEvent) {
	order := s.resolveOrder(ctx, payment.OrderID)
	if order != nil {
		if err := s.notifier.SendPaymentConfirmation(ctx, order); err != nil {
			s.logger.WithError(err).Warn("Failed to send payment confirmation", "orderId", order.ID)
		}
		if err := s.loyalty.PostPoints(ctx, order); err != nil {
			s.logger.WithError(err).Warn("Failed to post loyalty points", "orderId", order.ID)
		}
	}

	s.audit.Log(ctx, "payment.completed", "payment", payment.ID, map[string]any{
		"provider":      string(provider),
		"transactionId": event.TransactionID,
		"orderId":       payment.OrderID,
		"amount":        event.Amount,
	})
}

func (s *WebhookService) afterPaymentFailed(ctx context.Context, provider domain.PaymentProvider, payment *domain.Payment, event *domain.PaymentEvent) {
	order := s.resolveOrder(ctx, payment.OrderID)
	if order != nil {
		if err := s.notifier.SendPaymentFailure(ctx, order, event.ErrorMessage); err != nil {
			s.logger.WithError(err).Warn("Failed to send payment failure notice", "orderId", order.ID)
		}
	}

	s.audit.Log(ctx, "payment.failed", "payment", payment.ID, map[string]any{
		"provider":      string(provider),
		"transactionId": event.TransactionID,
		"orderId":       payment.OrderID,
		"reason":        event.ErrorMessage,
	})
}

func (s *WebhookService) afterPaymentRefunded(ctx context.Context, provider domain.PaymentProvider, payment *domain.Payment, event *domain.PaymentEvent) {
	order := s.resolveOrder(ctx, payment.OrderID)
	if order != nil {
		if err := s.notifier.SendRefundNotice(ctx, order, event.Amount); err != nil {
			s.logger.WithError(err).Warn("Failed to send refund notice", "orderId", order.ID)
		}
	}

	s.audit.Log(ctx, "payment.refunded", "payment", payment.ID, map[string]any{
		"provider":      string(provider),
		"transactionId": event.TransactionID,
		"orderId":       payment.OrderID,
		"amount":        event.Amount,
	})
}

// realignOrder runs when a redelivered webhook loses the swap: if a crash
// between the payment transition and the order update left the order
// behind the payment's terminal state, the order state is re-applied here.
// Notifications are not resent; they belong to the call that won the swap.
func (s *WebhookService) realignOrder(ctx context.Context, payment *domain.Payment) {
	order := s.resolveOrder(ctx, payment.OrderID)
	if order == nil {
		return
	}

	var err error
	switch payment.Status {
	case domain.PaymentStateCompleted:
		if order.PaymentStatus != domain.OrderPaymentPaid {
			err = s.orders.MarkPaid(ctx, order.ID, s.now())
		}
	case domain.PaymentStateFailed:
		if order.PaymentStatus != domain.OrderPaymentFailed {
			err = s.orders.MarkPaymentFailed(ctx, order.ID, payment.ErrorMessage)
		}
	case domain.PaymentStateRefunded:
		if order.PaymentStatus != domain.OrderPaymentRefunded {
			refundedAt := s.now()
			if payment.RefundedAt != nil {
				refundedAt = *payment.RefundedAt
			}
			err = s.orders.MarkRefunded(ctx, order.ID, payment.RefundAmount, refundedAt)
		}
	}
	if err != nil {
		s.logger.WithError(err).Warn("Failed to realign order with terminal payment",
			"orderId", order.ID, "paymentId", payment.ID)
	}
}

func (s *WebhookService) resolveOrder(ctx context.Context, orderID string) *domain.Order {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		s.logger.WithError(err).Warn("Payment references an unknown order", "orderId", orderID)
		return nil
	}
	return order
}

func (s *WebhookService) processingFailed(ctx context.Context, provider domain.PaymentProvider, eventType string, entry *domain.WebhookLogEntry, start time.Time, err error) error {
	entry.ErrorMessage = err.Error()
	s.recordOutcome(ctx, eventType, false, start)
	s.metrics.RecordWebhook(string(provider), eventType, false, time.Since(start))

	if alertErr := s.notifier.SendSyncAlert(ctx, "payment webhook processing failed", map[string]any{
		"provider": string(provider),
		"error":    err.Error(),
	}); alertErr != nil {
		s.logger.WithError(alertErr).Warn("Failed to send sync alert", "provider", provider)
	}

	return err
}

func (s *WebhookService) recordOutcome(ctx context.Context, eventType string, success bool, start time.Time) {
	if err := s.webhookStats.RecordOutcome(ctx, webhookService, eventType, success, time.Since(start)); err != nil {
		s.logger.WithError(err).Warn("Failed to record webhook outcome", "eventType", eventType)
	}
}

// POSWebhookResult describes the outcome of one POS order-status webhook
type POSWebhookResult struct {
	OrderID string             `json:"orderId"`
	Status  domain.OrderStatus `json:"status"`
}

// posStatusEvent is the shared shape of POS order-status webhooks
type posStatusEvent struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// ProcessPOSWebhook verifies an inbound POS order-status webhook through
// the gateway adapter, resolves the order mapping and applies the
// translated status to the platform order.
func (s *WebhookService) ProcessPOSWebhook(ctx context.Context, posType domain.POSType, restaurantID, signature string, body []byte) (*POSWebhookResult, error) {
	integration, err := s.syncService.ActiveIntegration(ctx, restaurantID, posType)
	if err != nil {
		return nil, err
	}

	verified, err := s.syncService.VerifyPOSWebhook(integration, posType, signature, body)
	if err != nil {
		return nil, err
	}
	if !verified {
		s.metrics.RecordWebhookRejected(string(posType))
		return nil, errors.ErrSignatureInvalid(string(posType))
	}

	var event posStatusEvent
	if err := json.Unmarshal(body, &event); err != nil || event.OrderID == "" || event.Status == "" {
		return nil, errors.ErrMalformedPayload("order_id, status")
	}

	orderID, status, err := s.syncService.ApplyGatewayOrderStatus(ctx, integration, event.OrderID, event.Status)
	if err != nil {
		return nil, err
	}

	return &POSWebhookResult{OrderID: orderID, Status: status}, nil
}
