package gateways

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bare3-dev/FoodHub-sub001/internal/domain"
)

func localIntegration(baseURL string) *domain.POSIntegration {
	return &domain.POSIntegration{
		ID:           "int-3",
		RestaurantID: "rest-1",
		POSType:      domain.POSTypeLocal,
		Config: domain.IntegrationConfig{
			BaseURL:       baseURL,
			APIKey:        "local-key",
			WebhookSecret: "local-secret",
		},
		IsActive: true,
	}
}

func TestLocalCreateOrder(t *testing.T) {
	var captured localCreateOrderRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/orders", r.URL.Path)
		require.Equal(t, "Bearer local-key", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"pos_order_id": "LOC-7", "status": "new",
		})
	}))
	defer server.Close()

	gw := NewLocalGateway()
	posOrderID, err := gw.CreateOrder(context.Background(), localIntegration(server.URL), testOrder())
	require.NoError(t, err)
	assert.Equal(t, "LOC-7", posOrderID)

	assert.Equal(t, "O123", captured.OrderID)
	assert.Equal(t, "Ada", captured.CustomerInfo.Name)
	require.Len(t, captured.OrderItems, 2)
	assert.InDelta(t, 23.49, captured.OrderTotal, 0.001)
	assert.Equal(t, "no onions", captured.SpecialInstructions)
}

func TestLocalFetchCatalogAndInventory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/menu":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"menu_items": []map[string]any{
					{"item_id": "L-1", "item_name": "Karahi", "price": 15.0, "category": "mains", "is_available": true},
				},
			})
		case "/inventory":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"inventory": []map[string]any{
					{"item_id": "L-1", "quantity": 3, "in_stock": true},
					{"item_id": "L-2", "quantity": 0, "in_stock": false},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	gw := NewLocalGateway()
	integration := localIntegration(server.URL)

	items, err := gw.FetchCatalog(context.Background(), integration)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "L-1", items[0].GatewayItemID)
	assert.Equal(t, "Karahi", items[0].Name)

	levels, err := gw.FetchInventory(context.Background(), integration)
	require.NoError(t, err)
	require.Len(t, levels, 2)
	assert.Equal(t, 3, levels[0].Quantity)
	assert.True(t, levels[0].Available)
	assert.False(t, levels[1].Available)
}

func TestLocalMapOrderStatus(t *testing.T) {
	gw := NewLocalGateway()

	assert.Equal(t, domain.OrderStatusPending, gw.MapOrderStatus("new"))
	assert.Equal(t, domain.OrderStatusPending, gw.MapOrderStatus("pending"))
	assert.Equal(t, domain.OrderStatusConfirmed, gw.MapOrderStatus("accepted"))
	assert.Equal(t, domain.OrderStatusPreparing, gw.MapOrderStatus("preparing"))
	assert.Equal(t, domain.OrderStatusReady, gw.MapOrderStatus("ready"))
	assert.Equal(t, domain.OrderStatusCompleted, gw.MapOrderStatus("completed"))
	assert.Equal(t, domain.OrderStatusCancelled, gw.MapOrderStatus("cancelled"))
	assert.Equal(t, domain.OrderStatusPending, gw.MapOrderStatus("weird"))
}
