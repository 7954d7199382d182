package application

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Bare3-dev/FoodHub-sub001/internal/domain"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/errors"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/logging"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/metrics"
)

func newTestLogger() *logging.Logger {
	config := logging.DefaultConfig("application-test")
	config.Output = io.Discard
	return logging.New(config)
}

func newTestMetrics() *metrics.Metrics {
	return metrics.New(metrics.DefaultConfig("application-test"))
}

// memPayments is an in-memory PaymentStore with the same compare-and-swap
// semantics as the mongo implementation
type memPayments struct {
	mu       sync.Mutex
	payments map[string]*domain.Payment
}

func newMemPayments(payments ...*domain.Payment) *memPayments {
	m := &memPayments{payments: make(map[string]*domain.Payment)}
	for _, p := range payments {
		m.payments[p.ID] = p
	}
	return m
}

func (m *memPayments) FindByTransactionID(_ context.Context, transactionID string) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.TransactionID == transactionID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memPayments) Complete(_ context.Context, paymentID string, amount float64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[paymentID]
	if !ok || p.Status != domain.PaymentStatePending {
		return false, nil
	}
	p.Status = domain.PaymentStateCompleted
	p.Amount = amount
	return true, nil
}

func (m *memPayments) Fail(_ context.Context, paymentID string, errorMessage string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[paymentID]
	if !ok || p.Status != domain.PaymentStatePending {
		return false, nil
	}
	p.Status = domain.PaymentStateFailed
	p.ErrorMessage = errorMessage
	return true, nil
}

func (m *memPayments) Refund(_ context.Context, paymentID string, amount float64, refundedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[paymentID]
	if !ok || p.Status != domain.PaymentStateCompleted {
		return false, nil
	}
	p.Status = domain.PaymentStateRefunded
	p.RefundAmount = amount
	p.RefundedAt = &refundedAt
	return true, nil
}

func (m *memPayments) status(paymentID string) domain.PaymentState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payments[paymentID].Status
}

// memOrders is an in-memory OrderStore
type memOrders struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newMemOrders(orders ...*domain.Order) *memOrders {
	m := &memOrders{orders: make(map[string]*domain.Order)}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *memOrders) FindByID(_ context.Context, orderID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, errors.ErrNotFoundWithID("order", orderID)
	}
	copied := *o
	return &copied, nil
}

func (m *memOrders) MarkPaid(_ context.Context, orderID string, confirmedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return errors.ErrNotFoundWithID("order", orderID)
	}
	o.PaymentStatus = domain.OrderPaymentPaid
	o.Status = domain.OrderStatusConfirmed
	o.ConfirmedAt = &confirmedAt
	return nil
}

func (m *memOrders) MarkPaymentFailed(_ context.Context, orderID string, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return errors.ErrNotFoundWithID("order", orderID)
	}
	o.PaymentStatus = domain.OrderPaymentFailed
	o.Status = domain.OrderStatusCancelled
	o.CancellationReason = reason
	return nil
}

func (m *memOrders) MarkRefunded(_ context.Context, orderID string, amount float64, refundedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return errors.ErrNotFoundWithID("order", orderID)
	}
	o.PaymentStatus = domain.OrderPaymentRefunded
	o.RefundAmount = amount
	o.RefundedAt = &refundedAt
	return nil
}

func (m *memOrders) UpdateStatus(_ context.Context, orderID string, status domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return errors.ErrNotFoundWithID("order", orderID)
	}
	o.Status = status
	return nil
}

func (m *memOrders) get(orderID string) *domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[orderID]
}

// memWebhookLogs collects appended webhook log entries
type memWebhookLogs struct {
	mu      sync.Mutex
	entries []*domain.WebhookLogEntry
}

func (m *memWebhookLogs) Append(_ context.Context, entry *domain.WebhookLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *entry
	m.entries = append(m.entries, &copied)
	return nil
}

func (m *memWebhookLogs) all() []*domain.WebhookLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.WebhookLogEntry{}, m.entries...)
}

// memWebhookStats keeps per (service, event type) counters in memory
type memWebhookStats struct {
	mu    sync.Mutex
	stats map[string]*domain.WebhookStats
}

func newMemWebhookStats() *memWebhookStats {
	return &memWebhookStats{stats: make(map[string]*domain.WebhookStats)}
}

func (m *memWebhookStats) entry(service, eventType string) *domain.WebhookStats {
	key := service + "|" + eventType
	s, ok := m.stats[key]
	if !ok {
		s = &domain.WebhookStats{Service: service, EventType: eventType}
		m.stats[key] = s
	}
	return s
}

func (m *memWebhookStats) RecordReceived(_ context.Context, service, eventType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entry(service, eventType).TotalReceived++
	return nil
}

func (m *memWebhookStats) RecordOutcome(_ context.Context, service, eventType string, success bool, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.entry(service, eventType)
	if success {
		s.SuccessfulProcessed++
	} else {
		s.FailedProcessed++
	}
	return nil
}

func (m *memWebhookStats) FindAll(_ context.Context) ([]*domain.WebhookStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.WebhookStats, 0, len(m.stats))
	for _, s := range m.stats {
		copied := *s
		out = append(out, &copied)
	}
	return out, nil
}

func (m *memWebhookStats) counters(service, eventType string) (received, succeeded, failed int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.entry(service, eventType)
	return s.TotalReceived, s.SuccessfulProcessed, s.FailedProcessed
}

// recNotifier records every outbound notification
type recNotifier struct {
	mu            sync.Mutex
	confirmations []string
	failures      []string
	refunds       []string
	alerts        []string
}

func (r *recNotifier) SendPaymentConfirmation(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.confirmations = append(r.confirmations, order.ID)
	return nil
}

func (r *recNotifier) SendPaymentFailure(_ context.Context, order *domain.Order, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, order.ID)
	return nil
}

func (r *recNotifier) SendRefundNotice(_ context.Context, order *domain.Order, _ float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refunds = append(r.refunds, order.ID)
	return nil
}

func (r *recNotifier) SendSyncAlert(_ context.Context, subject string, _ map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, subject)
	return nil
}

// recLoyalty records loyalty postings
type recLoyalty struct {
	mu     sync.Mutex
	orders []string
}

func (r *recLoyalty) PostPoints(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, order.ID)
	return nil
}

// recAudit records audit actions
type recAudit struct {
	mu      sync.Mutex
	actions []string
}

func (r *recAudit) Log(_ context.Context, action, _, _ string, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, action)
}

func (r *recAudit) Critical(_ context.Context, action, _, _ string, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, "critical:"+action)
}

// memIntegrations is an in-memory IntegrationRepository
type memIntegrations struct {
	integrations []*domain.POSIntegration
}

func (m *memIntegrations) FindByRestaurantAndType(_ context.Context, restaurantID string, posType domain.POSType) (*domain.POSIntegration, error) {
	for _, i := range m.integrations {
		if i.RestaurantID == restaurantID && i.POSType == posType {
			return i, nil
		}
	}
	return nil, errors.ErrNotFoundWithID("integration", fmt.Sprintf("%s/%s", restaurantID, posType))
}

func (m *memIntegrations) FindByID(_ context.Context, id string) (*domain.POSIntegration, error) {
	for _, i := range m.integrations {
		if i.ID == id {
			return i, nil
		}
	}
	return nil, errors.ErrNotFoundWithID("integration", id)
}

func (m *memIntegrations) FindActiveByType(_ context.Context, posType domain.POSType) ([]*domain.POSIntegration, error) {
	var out []*domain.POSIntegration
	for _, i := range m.integrations {
		if i.POSType == posType && i.IsActive {
			out = append(out, i)
		}
	}
	return out, nil
}

// memMappings is an in-memory MappingRepository with upsert semantics on
// the (foodhubOrderId, posType) pair
type memMappings struct {
	mu       sync.Mutex
	mappings []*domain.OrderMapping
}

func (m *memMappings) Upsert(_ context.Context, mapping *domain.OrderMapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.mappings {
		if existing.FoodhubOrderID == mapping.FoodhubOrderID && existing.POSType == mapping.POSType {
			existing.POSOrderID = mapping.POSOrderID
			existing.SyncStatus = mapping.SyncStatus
			return nil
		}
	}
	copied := *mapping
	m.mappings = append(m.mappings, &copied)
	return nil
}

func (m *memMappings) FindByFoodhubOrder(_ context.Context, foodhubOrderID string, posType domain.POSType) (*domain.OrderMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mapping := range m.mappings {
		if mapping.FoodhubOrderID == foodhubOrderID && mapping.POSType == posType {
			copied := *mapping
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memMappings) FindByPOSOrder(_ context.Context, posOrderID string, posType domain.POSType) (*domain.OrderMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mapping := range m.mappings {
		if mapping.POSOrderID == posOrderID && mapping.POSType == posType {
			copied := *mapping
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memMappings) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.mappings)
}

// memSyncLogs collects appended sync log entries
type memSyncLogs struct {
	mu      sync.Mutex
	entries []*domain.SyncLogEntry
}

func (m *memSyncLogs) Append(_ context.Context, entry *domain.SyncLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *entry
	m.entries = append(m.entries, &copied)
	return nil
}

func (m *memSyncLogs) FindByIntegration(_ context.Context, integrationID string, limit, offset int) ([]*domain.SyncLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.SyncLogEntry
	for _, e := range m.entries {
		if e.IntegrationID == integrationID {
			out = append(out, e)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memSyncLogs) all() []*domain.SyncLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.SyncLogEntry{}, m.entries...)
}

// memMenuItems is an in-memory MenuItemStore
type memMenuItems struct {
	mu    sync.Mutex
	items map[string]*domain.MenuItem
	seq   int
}

func newMemMenuItems() *memMenuItems {
	return &memMenuItems{items: make(map[string]*domain.MenuItem)}
}

func menuKey(restaurantID string, posType domain.POSType, gatewayItemID string) string {
	return fmt.Sprintf("%s|%s|%s", restaurantID, posType, gatewayItemID)
}

func (m *memMenuItems) FindByGatewayItem(_ context.Context, restaurantID string, posType domain.POSType, gatewayItemID string) (*domain.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[menuKey(restaurantID, posType, gatewayItemID)]
	if !ok {
		return nil, nil
	}
	copied := *item
	return &copied, nil
}

func (m *memMenuItems) Create(_ context.Context, item *domain.MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	copied := *item
	copied.ID = fmt.Sprintf("menu-%d", m.seq)
	m.items[menuKey(item.RestaurantID, item.POSType, item.GatewayItemID)] = &copied
	return nil
}

func (m *memMenuItems) Update(_ context.Context, item *domain.MenuItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *item
	m.items[menuKey(item.RestaurantID, item.POSType, item.GatewayItemID)] = &copied
	return nil
}

func (m *memMenuItems) UpdateStock(_ context.Context, restaurantID string, posType domain.POSType, gatewayItemID string, quantity int, available bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[menuKey(restaurantID, posType, gatewayItemID)]
	if !ok {
		return false, nil
	}
	item.StockQuantity = quantity
	item.Available = available
	return true, nil
}

func (m *memMenuItems) get(restaurantID string, posType domain.POSType, gatewayItemID string) *domain.MenuItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[menuKey(restaurantID, posType, gatewayItemID)]
}

// fakeGateway is a scriptable POSGateway
type fakeGateway struct {
	posType domain.POSType

	createOrderFn    func(ctx context.Context, integration *domain.POSIntegration, order *domain.Order) (string, error)
	fetchCatalogFn   func(ctx context.Context, integration *domain.POSIntegration) ([]domain.CatalogItem, error)
	fetchInventoryFn func(ctx context.Context, integration *domain.POSIntegration) ([]domain.StockLevel, error)
	testConnectionFn func(ctx context.Context, integration *domain.POSIntegration) error
	verifyWebhookFn  func(integration *domain.POSIntegration, signature string, body []byte) bool

	mu               sync.Mutex
	createOrderCalls int
}

func (g *fakeGateway) Type() domain.POSType { return g.posType }

func (g *fakeGateway) CreateOrder(ctx context.Context, integration *domain.POSIntegration, order *domain.Order) (string, error) {
	g.mu.Lock()
	g.createOrderCalls++
	g.mu.Unlock()
	if g.createOrderFn != nil {
		return g.createOrderFn(ctx, integration, order)
	}
	return "POS-" + order.ID, nil
}

func (g *fakeGateway) FetchCatalog(ctx context.Context, integration *domain.POSIntegration) ([]domain.CatalogItem, error) {
	if g.fetchCatalogFn != nil {
		return g.fetchCatalogFn(ctx, integration)
	}
	return nil, nil
}

func (g *fakeGateway) FetchInventory(ctx context.Context, integration *domain.POSIntegration) ([]domain.StockLevel, error) {
	if g.fetchInventoryFn != nil {
		return g.fetchInventoryFn(ctx, integration)
	}
	return nil, nil
}

func (g *fakeGateway) TestConnection(ctx context.Context, integration *domain.POSIntegration) error {
	if g.testConnectionFn != nil {
		return g.testConnectionFn(ctx, integration)
	}
	return nil
}

func (g *fakeGateway) VerifyWebhook(integration *domain.POSIntegration, signature string, body []byte) bool {
	if g.verifyWebhookFn != nil {
		return g.verifyWebhookFn(integration, signature, body)
	}
	return true
}

func (g *fakeGateway) MapOrderStatus(gatewayStatus string) domain.OrderStatus {
	switch gatewayStatus {
	case "COMPLETED":
		return domain.OrderStatusCompleted
	case "CANCELED":
		return domain.OrderStatusCancelled
	case "READY":
		return domain.OrderStatusReady
	default:
		return domain.OrderStatusPending
	}
}
