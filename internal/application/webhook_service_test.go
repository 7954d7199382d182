package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bare3-dev/FoodHub-sub001/internal/domain"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/errors"
)

// stubVerifier accepts exactly one signature value
type stubVerifier struct {
	provider domain.PaymentProvider
	accept   string
}

func (v *stubVerifier) Provider() domain.PaymentProvider { return v.provider }
func (v *stubVerifier) Verify(_ []byte, signature string) bool {
	return signature == v.accept
}

type webhookFixture struct {
	service  *WebhookService
	payments *memPayments
	orders   *memOrders
	logs     *memWebhookLogs
	stats    *memWebhookStats
	notifier *recNotifier
	loyalty  *recLoyalty
	audit    *recAudit
	mappings *memMappings
	gateway  *fakeGateway
}

func newWebhookFixture(t *testing.T, payments ...*domain.Payment) *webhookFixture {
	t.Helper()

	logger := newTestLogger()
	m := newTestMetrics()

	verifierRegistry := domain.NewVerifierRegistry()
	verifierRegistry.Register(&stubVerifier{provider: domain.ProviderStripe, accept: "good"})

	order := &domain.Order{
		ID:            "O-1",
		RestaurantID:  "rest-1",
		OrderNumber:   "1001",
		Customer:      domain.Customer{Name: "Ada", Email: "ada@example.com"},
		Total:         42.5,
		Currency:      "USD",
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.OrderPaymentPending,
	}

	f := &webhookFixture{
		payments: newMemPayments(payments...),
		orders:   newMemOrders(order),
		logs:     &memWebhookLogs{},
		stats:    newMemWebhookStats(),
		notifier: &recNotifier{},
		loyalty:  &recLoyalty{},
		audit:    &recAudit{},
		mappings: &memMappings{},
		gateway:  &fakeGateway{posType: domain.POSTypeSquare},
	}

	gatewayRegistry := domain.NewGatewayRegistry()
	gatewayRegistry.Register(f.gateway)

	integrations := &memIntegrations{integrations: []*domain.POSIntegration{{
		ID:           "int-1",
		RestaurantID: "rest-1",
		POSType:      domain.POSTypeSquare,
		IsActive:     true,
	}}}

	syncService := NewSyncService(gatewayRegistry, integrations, f.mappings,
		&memSyncLogs{}, newMemMenuItems(), f.orders, logger, m)

	f.service = NewWebhookService(verifierRegistry, f.payments, f.orders, f.logs,
		f.stats, f.notifier, f.loyalty, f.audit, syncService, logger, m)
	return f
}

func pendingPayment() *domain.Payment {
	return &domain.Payment{
		ID:            "pay-1",
		OrderID:       "O-1",
		TransactionID: "TX-1",
		Provider:      "stripe",
		Amount:        42.5,
		Status:        domain.PaymentStatePending,
	}
}

func TestPaymentWebhookSuccess(t *testing.T) {
	f := newWebhookFixture(t, pendingPayment())
	ctx := context.Background()
	body := []byte(`{"transaction_id":"TX-1","status":"success","amount":42.5}`)

	result, err := f.service.ProcessPaymentWebhook(ctx, domain.ProviderStripe, body, "good", "10.0.0.1", "stripe-agent")
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.False(t, result.Skipped)

	assert.Equal(t, domain.PaymentStateCompleted, f.payments.status("pay-1"))

	order := f.orders.get("O-1")
	assert.Equal(t, domain.OrderPaymentPaid, order.PaymentStatus)
	assert.Equal(t, domain.OrderStatusConfirmed, order.Status)
	require.NotNil(t, order.ConfirmedAt)

	assert.Equal(t, []string{"O-1"}, f.notifier.confirmations)
	assert.Equal(t, []string{"O-1"}, f.loyalty.orders)
	assert.Contains(t, f.audit.actions, "payment.completed")

	received, succeeded, failed := f.stats.counters("pos-sync-service", "payment.stripe")
	assert.Equal(t, int64(1), received)
	assert.Equal(t, int64(1), succeeded)
	assert.Equal(t, int64(0), failed)

	entries := f.logs.all()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Success)
	assert.True(t, entries[0].SignatureVerified)
	assert.Equal(t, "payment.stripe", entries[0].EventType)
	assert.Equal(t, "10.0.0.1", entries[0].IP)
}

func TestPaymentWebhookDuplicateDelivery(t *testing.T) {
	f := newWebhookFixture(t, pendingPayment())
	ctx := context.Background()
	body := []byte(`{"transaction_id":"TX-1","status":"success","amount":42.5}`)

	first, err := f.service.ProcessPaymentWebhook(ctx, domain.ProviderStripe, body, "good", "", "")
	require.NoError(t, err)
	assert.True(t, first.Applied)

	second, err := f.service.ProcessPaymentWebhook(ctx, domain.ProviderStripe, body, "good", "", "")
	require.NoError(t, err)
	assert.False(t, second.Applied)

	// Side effects fired exactly once
	assert.Len(t, f.notifier.confirmations, 1)
	assert.Len(t, f.loyalty.orders, 1)

	// Both deliveries count as received and successful
	received, succeeded, _ := f.stats.counters("pos-sync-service", "payment.stripe")
	assert.Equal(t, int64(2), received)
	assert.Equal(t, int64(2), succeeded)
}

func TestPaymentWebhookInvalidSignature(t *testing.T) {
	f := newWebhookFixture(t, pendingPayment())
	body := []byte(`{"transaction_id":"TX-1","status":"success"}`)

	_, err := f.service.ProcessPaymentWebhook(context.Background(), domain.ProviderStripe, body, "tampered", "", "")
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeSignatureInvalid, appErr.Code)

	// The payment never transitioned
	assert.Equal(t, domain.PaymentStatePending, f.payments.status("pay-1"))
	assert.Empty(t, f.notifier.confirmations)

	// The rejected call still counts as received and failed
	received, succeeded, failed := f.stats.counters("pos-sync-service", "payment.stripe")
	assert.Equal(t, int64(1), received)
	assert.Equal(t, int64(0), succeeded)
	assert.Equal(t, int64(1), failed)

	entries := f.logs.all()
	require.Len(t, entries, 1)
	assert.False(t, entries[0].SignatureVerified)
	assert.False(t, entries[0].Success)
}

func TestPaymentWebhookMalformedPayload(t *testing.T) {
	f := newWebhookFixture(t, pendingPayment())

	for _, body := range [][]byte{
		[]byte(`{"status":"success"}`),
		[]byte(`{"transaction_id":"TX-1"}`),
		[]byte(`not json`),
	} {
		_, err := f.service.ProcessPaymentWebhook(context.Background(), domain.ProviderStripe, body, "good", "", "")
		require.Error(t, err)

		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeMalformedPayload, appErr.Code)
	}

	received, _, failed := f.stats.counters("pos-sync-service", "payment.stripe")
	assert.Equal(t, int64(3), received)
	assert.Equal(t, int64(3), failed)
}

func TestPaymentWebhookUnknownTransactionSkips(t *testing.T) {
	f := newWebhookFixture(t, pendingPayment())
	body := []byte(`{"transaction_id":"TX-OTHER","status":"success"}`)

	result, err := f.service.ProcessPaymentWebhook(context.Background(), domain.ProviderStripe, body, "good", "", "")
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.False(t, result.Applied)

	// Acknowledged without side effects; only the received counter moves
	assert.Empty(t, f.notifier.confirmations)
	assert.Empty(t, f.audit.actions)
	received, succeeded, failed := f.stats.counters("pos-sync-service", "payment.stripe")
	assert.Equal(t, int64(1), received)
	assert.Equal(t, int64(0), succeeded)
	assert.Equal(t, int64(0), failed)

	entries := f.logs.all()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Success)
}

func TestPaymentWebhookFailedEvent(t *testing.T) {
	f := newWebhookFixture(t, pendingPayment())
	body := []byte(`{"transaction_id":"TX-1","status":"failed","error_message":"card declined"}`)

	result, err := f.service.ProcessPaymentWebhook(context.Background(), domain.ProviderStripe, body, "good", "", "")
	require.NoError(t, err)
	assert.True(t, result.Applied)

	assert.Equal(t, domain.PaymentStateFailed, f.payments.status("pay-1"))

	order := f.orders.get("O-1")
	assert.Equal(t, domain.OrderPaymentFailed, order.PaymentStatus)
	assert.Equal(t, domain.OrderStatusCancelled, order.Status)
	assert.Equal(t, "card declined", order.CancellationReason)

	assert.Equal(t, []string{"O-1"}, f.notifier.failures)
	assert.Empty(t, f.loyalty.orders)
	assert.Contains(t, f.audit.actions, "payment.failed")
}

func TestPaymentWebhookRefundEvent(t *testing.T) {
	completed := pendingPayment()
	completed.Status = domain.PaymentStateCompleted
	f := newWebhookFixture(t, completed)
	body := []byte(`{"transaction_id":"TX-1","status":"refunded","amount":42.5}`)

	result, err := f.service.ProcessPaymentWebhook(context.Background(), domain.ProviderStripe, body, "good", "", "")
	require.NoError(t, err)
	assert.True(t, result.Applied)

	assert.Equal(t, domain.PaymentStateRefunded, f.payments.status("pay-1"))

	order := f.orders.get("O-1")
	assert.Equal(t, domain.OrderPaymentRefunded, order.PaymentStatus)
	assert.Equal(t, 42.5, order.RefundAmount)

	assert.Equal(t, []string{"O-1"}, f.notifier.refunds)
	assert.Contains(t, f.audit.actions, "payment.refunded")
}

func TestPaymentWebhookRefundRequiresCompleted(t *testing.T) {
	f := newWebhookFixture(t, pendingPayment())
	body := []byte(`{"transaction_id":"TX-1","status":"refunded","amount":42.5}`)

	result, err := f.service.ProcessPaymentWebhook(context.Background(), domain.ProviderStripe, body, "good", "", "")
	require.NoError(t, err)
	assert.False(t, result.Applied)

	// A refund for a payment that never completed changes nothing
	assert.Equal(t, domain.PaymentStatePending, f.payments.status("pay-1"))
	assert.Empty(t, f.notifier.refunds)
}

// A crash between the payment transition and the order update leaves the
// payment terminal but the order behind; the redelivered webhook repairs
// the order without resending notifications.
func TestPaymentWebhookRedeliveryRealignsOrder(t *testing.T) {
	completed := pendingPayment()
	completed.Status = domain.PaymentStateCompleted
	f := newWebhookFixture(t, completed)
	body := []byte(`{"transaction_id":"TX-1","status":"success","amount":42.5}`)

	result, err := f.service.ProcessPaymentWebhook(context.Background(), domain.ProviderStripe, body, "good", "", "")
	require.NoError(t, err)
	assert.False(t, result.Applied)

	order := f.orders.get("O-1")
	assert.Equal(t, domain.OrderPaymentPaid, order.PaymentStatus)
	assert.Equal(t, domain.OrderStatusConfirmed, order.Status)

	// Repair is state-only
	assert.Empty(t, f.notifier.confirmations)
	assert.Empty(t, f.loyalty.orders)
}

func TestPaymentWebhookUnhandledStatus(t *testing.T) {
	f := newWebhookFixture(t, pendingPayment())
	body := []byte(`{"transaction_id":"TX-1","status":"disputed"}`)

	result, err := f.service.ProcessPaymentWebhook(context.Background(), domain.ProviderStripe, body, "good", "", "")
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, domain.PaymentStatePending, f.payments.status("pay-1"))
}

func TestPaymentWebhookUnregisteredProvider(t *testing.T) {
	f := newWebhookFixture(t, pendingPayment())
	body := []byte(`{"transaction_id":"TX-1","status":"success"}`)

	// No verifier registered for paypal in this fixture: fail closed
	_, err := f.service.ProcessPaymentWebhook(context.Background(), domain.ProviderPayPal, body, "good", "", "")
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeSignatureInvalid, appErr.Code)
}

func TestPOSWebhookAppliesOrderStatus(t *testing.T) {
	f := newWebhookFixture(t)
	ctx := context.Background()

	require.NoError(t, f.mappings.Upsert(ctx, &domain.OrderMapping{
		FoodhubOrderID: "O-1",
		POSOrderID:     "SQ-9",
		POSType:        domain.POSTypeSquare,
		SyncStatus:     domain.SyncStatusSynced,
	}))

	body := []byte(`{"order_id":"SQ-9","status":"COMPLETED"}`)
	result, err := f.service.ProcessPOSWebhook(ctx, domain.POSTypeSquare, "rest-1", "sig", body)
	require.NoError(t, err)

	assert.Equal(t, "O-1", result.OrderID)
	assert.Equal(t, domain.OrderStatusCompleted, result.Status)
	assert.Equal(t, domain.OrderStatusCompleted, f.orders.get("O-1").Status)
}

func TestPOSWebhookRejectsBadSignature(t *testing.T) {
	f := newWebhookFixture(t)
	f.gateway.verifyWebhookFn = func(*domain.POSIntegration, string, []byte) bool { return false }

	_, err := f.service.ProcessPOSWebhook(context.Background(), domain.POSTypeSquare, "rest-1", "bad", []byte(`{}`))
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeSignatureInvalid, appErr.Code)
}

func TestPOSWebhookUnknownMapping(t *testing.T) {
	f := newWebhookFixture(t)

	body := []byte(`{"order_id":"SQ-UNKNOWN","status":"COMPLETED"}`)
	_, err := f.service.ProcessPOSWebhook(context.Background(), domain.POSTypeSquare, "rest-1", "sig", body)
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeNotFound, appErr.Code)
}

func TestPOSWebhookMalformedPayload(t *testing.T) {
	f := newWebhookFixture(t)

	_, err := f.service.ProcessPOSWebhook(context.Background(), domain.POSTypeSquare, "rest-1", "sig", []byte(`{"status":"COMPLETED"}`))
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeMalformedPayload, appErr.Code)
}

func TestPOSWebhookInactiveIntegration(t *testing.T) {
	f := newWebhookFixture(t)

	_, err := f.service.ProcessPOSWebhook(context.Background(), domain.POSTypeSquare, "rest-unknown", "sig", []byte(`{}`))
	require.Error(t, err)
}

func TestStats(t *testing.T) {
	f := newWebhookFixture(t, pendingPayment())
	ctx := context.Background()

	body := []byte(`{"transaction_id":"TX-1","status":"success"}`)
	_, err := f.service.ProcessPaymentWebhook(ctx, domain.ProviderStripe, body, "good", "", "")
	require.NoError(t, err)

	stats, err := f.service.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "payment.stripe", stats[0].EventType)
	assert.Equal(t, int64(1), stats[0].TotalReceived)
}
