package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bare3-dev/FoodHub-sub001/internal/domain"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/errors"
)

type syncFixture struct {
	service   *SyncService
	gateway   *fakeGateway
	mappings  *memMappings
	syncLogs  *memSyncLogs
	menuItems *memMenuItems
	orders    *memOrders
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()

	f := &syncFixture{
		gateway:   &fakeGateway{posType: domain.POSTypeSquare},
		mappings:  &memMappings{},
		syncLogs:  &memSyncLogs{},
		menuItems: newMemMenuItems(),
		orders: newMemOrders(&domain.Order{
			ID:           "O-1",
			RestaurantID: "rest-1",
			OrderNumber:  "1001",
			Total:        23.49,
			Currency:     "USD",
			Status:       domain.OrderStatusPending,
		}),
	}

	registry := domain.NewGatewayRegistry()
	registry.Register(f.gateway)

	integrations := &memIntegrations{integrations: []*domain.POSIntegration{
		{ID: "int-1", RestaurantID: "rest-1", POSType: domain.POSTypeSquare, IsActive: true},
		{ID: "int-2", RestaurantID: "rest-2", POSType: domain.POSTypeSquare, IsActive: false},
	}}

	f.service = NewSyncService(registry, integrations, f.mappings, f.syncLogs,
		f.menuItems, f.orders, newTestLogger(), newTestMetrics())
	return f
}

func (f *syncFixture) integration() *domain.POSIntegration {
	return &domain.POSIntegration{
		ID:           "int-1",
		RestaurantID: "rest-1",
		POSType:      domain.POSTypeSquare,
		IsActive:     true,
	}
}

func TestActiveIntegration(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	integration, err := f.service.ActiveIntegration(ctx, "rest-1", domain.POSTypeSquare)
	require.NoError(t, err)
	assert.Equal(t, "int-1", integration.ID)

	_, err = f.service.ActiveIntegration(ctx, "rest-2", domain.POSTypeSquare)
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeIntegrationInactive, appErr.Code)

	_, err = f.service.ActiveIntegration(ctx, "rest-unknown", domain.POSTypeSquare)
	require.Error(t, err)
}

func TestPushOrderRecordsMapping(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	order, err := f.service.Order(ctx, "O-1")
	require.NoError(t, err)

	posOrderID, err := f.service.PushOrder(ctx, order, domain.POSTypeSquare)
	require.NoError(t, err)
	assert.Equal(t, "POS-O-1", posOrderID)

	mapping, err := f.mappings.FindByFoodhubOrder(ctx, "O-1", domain.POSTypeSquare)
	require.NoError(t, err)
	require.NotNil(t, mapping)
	assert.Equal(t, "POS-O-1", mapping.POSOrderID)
	assert.Equal(t, domain.SyncStatusSynced, mapping.SyncStatus)

	entries := f.syncLogs.all()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.SyncTypeOrder, entries[0].SyncType)
	assert.Equal(t, domain.SyncOutcomeSuccess, entries[0].Status)
}

func TestPushOrderIsIdempotent(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	order, err := f.service.Order(ctx, "O-1")
	require.NoError(t, err)

	_, err = f.service.PushOrder(ctx, order, domain.POSTypeSquare)
	require.NoError(t, err)
	_, err = f.service.PushOrder(ctx, order, domain.POSTypeSquare)
	require.NoError(t, err)

	// The retry overwrote the same mapping instead of creating a second one
	assert.Equal(t, 1, f.mappings.count())
	assert.Equal(t, 2, f.gateway.createOrderCalls)
}

func TestPushOrderGatewayFailure(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()
	f.gateway.createOrderFn = func(context.Context, *domain.POSIntegration, *domain.Order) (string, error) {
		return "", errors.ErrGatewayUnavailable("square", assert.AnError)
	}

	order, err := f.service.Order(ctx, "O-1")
	require.NoError(t, err)

	_, err = f.service.PushOrder(ctx, order, domain.POSTypeSquare)
	require.Error(t, err)
	assert.True(t, errors.IsRetryable(err))

	assert.Equal(t, 0, f.mappings.count())

	entries := f.syncLogs.all()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.SyncOutcomeFailed, entries[0].Status)
}

func TestApplyGatewayOrderStatus(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	require.NoError(t, f.mappings.Upsert(ctx, &domain.OrderMapping{
		FoodhubOrderID: "O-1",
		POSOrderID:     "SQ-9",
		POSType:        domain.POSTypeSquare,
		SyncStatus:     domain.SyncStatusSynced,
	}))

	orderID, status, err := f.service.ApplyGatewayOrderStatus(ctx, f.integration(), "SQ-9", "READY")
	require.NoError(t, err)
	assert.Equal(t, "O-1", orderID)
	assert.Equal(t, domain.OrderStatusReady, status)
	assert.Equal(t, domain.OrderStatusReady, f.orders.get("O-1").Status)

	// Unmapped gateway statuses fall back to pending
	_, status, err = f.service.ApplyGatewayOrderStatus(ctx, f.integration(), "SQ-9", "SOMETHING_NEW")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, status)

	// One sync log entry per status application
	entries := f.syncLogs.all()
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, domain.SyncTypeOrder, entry.SyncType)
		assert.Equal(t, domain.SyncOutcomeSuccess, entry.Status)
		assert.Equal(t, "updateOrderStatus", entry.Details["operation"])
	}
}

func TestApplyGatewayOrderStatusUnknownMapping(t *testing.T) {
	f := newSyncFixture(t)

	_, _, err := f.service.ApplyGatewayOrderStatus(context.Background(), f.integration(), "SQ-NONE", "READY")
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeNotFound, appErr.Code)

	entries := f.syncLogs.all()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.SyncOutcomeFailed, entries[0].Status)
}

func TestSyncMenuCreatesAndUpdates(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	f.gateway.fetchCatalogFn = func(context.Context, *domain.POSIntegration) ([]domain.CatalogItem, error) {
		return []domain.CatalogItem{
			{GatewayItemID: "ITEM-1", Name: "Burger", Price: 9.99, Category: "mains", Available: true},
			{GatewayItemID: "ITEM-2", Name: "Fries", Price: 3.5, Available: true},
		}, nil
	}

	result, err := f.service.SyncMenu(ctx, f.integration())
	require.NoError(t, err)
	assert.Equal(t, 2, result.CreatedCount)
	assert.Equal(t, 0, result.UpdatedCount)
	assert.Empty(t, result.Errors)

	// Second sync with a price change updates in place
	f.gateway.fetchCatalogFn = func(context.Context, *domain.POSIntegration) ([]domain.CatalogItem, error) {
		return []domain.CatalogItem{
			{GatewayItemID: "ITEM-1", Name: "Burger", Price: 11.49, Category: "mains", Available: false},
		}, nil
	}

	result, err = f.service.SyncMenu(ctx, f.integration())
	require.NoError(t, err)
	assert.Equal(t, 0, result.CreatedCount)
	assert.Equal(t, 1, result.UpdatedCount)

	item := f.menuItems.get("rest-1", domain.POSTypeSquare, "ITEM-1")
	require.NotNil(t, item)
	assert.Equal(t, 11.49, item.Price)
	assert.False(t, item.Available)

	entries := f.syncLogs.all()
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, domain.SyncTypeMenu, entry.SyncType)
		assert.Equal(t, domain.SyncOutcomeSuccess, entry.Status)
	}
}

func TestSyncMenuFetchFailure(t *testing.T) {
	f := newSyncFixture(t)
	f.gateway.fetchCatalogFn = func(context.Context, *domain.POSIntegration) ([]domain.CatalogItem, error) {
		return nil, errors.ErrGatewayUnavailable("square", assert.AnError)
	}

	_, err := f.service.SyncMenu(context.Background(), f.integration())
	require.Error(t, err)

	entries := f.syncLogs.all()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.SyncOutcomeFailed, entries[0].Status)
}

func TestSyncInventoryMatchesAndSkips(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	require.NoError(t, f.menuItems.Create(ctx, &domain.MenuItem{
		RestaurantID:  "rest-1",
		GatewayItemID: "ITEM-1",
		POSType:       domain.POSTypeSquare,
		Name:          "Burger",
		Available:     true,
	}))

	f.gateway.fetchInventoryFn = func(context.Context, *domain.POSIntegration) ([]domain.StockLevel, error) {
		return []domain.StockLevel{
			{GatewayItemID: "ITEM-1", Quantity: 0, Available: false},
			{GatewayItemID: "ITEM-UNKNOWN", Quantity: 7, Available: true},
		}, nil
	}

	result, err := f.service.SyncInventory(ctx, f.integration())
	require.NoError(t, err)
	assert.Equal(t, 1, result.UpdatedCount)
	assert.Equal(t, 1, result.SkippedCount)

	item := f.menuItems.get("rest-1", domain.POSTypeSquare, "ITEM-1")
	assert.Equal(t, 0, item.StockQuantity)
	assert.False(t, item.Available)

	entries := f.syncLogs.all()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.SyncTypeInventory, entries[0].SyncType)
	assert.Equal(t, domain.SyncOutcomeSuccess, entries[0].Status)
}

func TestTestConnectionLogsOutcome(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	require.NoError(t, f.service.TestConnection(ctx, f.integration()))

	f.gateway.testConnectionFn = func(context.Context, *domain.POSIntegration) error {
		return errors.ErrGatewayStatus("square", 401)
	}
	require.Error(t, f.service.TestConnection(ctx, f.integration()))

	entries := f.syncLogs.all()
	require.Len(t, entries, 2)
	assert.Equal(t, domain.SyncOutcomeSuccess, entries[0].Status)
	assert.Equal(t, domain.SyncOutcomeFailed, entries[1].Status)
}

func TestSyncLogsPaging(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, f.service.TestConnection(ctx, f.integration()))
	}

	page, err := f.service.SyncLogs(ctx, "int-1", 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	page, err = f.service.SyncLogs(ctx, "int-1", 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

// Full round trip: push the order out, then apply the gateway's terminal
// status back through the webhook path.
func TestOrderSyncRoundTrip(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	order, err := f.service.Order(ctx, "O-1")
	require.NoError(t, err)

	posOrderID, err := f.service.PushOrder(ctx, order, domain.POSTypeSquare)
	require.NoError(t, err)

	orderID, status, err := f.service.ApplyGatewayOrderStatus(ctx, f.integration(), posOrderID, "COMPLETED")
	require.NoError(t, err)
	assert.Equal(t, "O-1", orderID)
	assert.Equal(t, domain.OrderStatusCompleted, status)
	assert.Equal(t, domain.OrderStatusCompleted, f.orders.get("O-1").Status)

	// Push and status application each left one log entry
	assert.Len(t, f.syncLogs.all(), 2)
}
