package gateways

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bare3-dev/FoodHub-sub001/internal/domain"
)

func toastIntegration(baseURL string) *domain.POSIntegration {
	return &domain.POSIntegration{
		ID:           "int-2",
		RestaurantID: "rest-1",
		POSType:      domain.POSTypeToast,
		Config: domain.IntegrationConfig{
			BaseURL:       baseURL,
			AccessToken:   "toast-token",
			WebhookSecret: "toast-secret",
		},
		IsActive: true,
	}
}

func TestToastCreateOrder(t *testing.T) {
	var captured toastCreateOrderRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/orders", r.URL.Path)
		require.Equal(t, "Bearer toast-token", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"orderId": "TST-42", "status": "RECEIVED",
		})
	}))
	defer server.Close()

	gw := NewToastGateway()
	posOrderID, err := gw.CreateOrder(context.Background(), toastIntegration(server.URL), testOrder())
	require.NoError(t, err)
	assert.Equal(t, "TST-42", posOrderID)

	assert.Equal(t, "1001", captured.OrderNumber)
	assert.Equal(t, "Ada", captured.Customer.Name)
	require.Len(t, captured.Items, 2)
	assert.Equal(t, "Burger", captured.Items[0].Name)
	assert.Equal(t, 2, captured.Items[0].Quantity)
	assert.InDelta(t, 9.99, captured.Items[0].Price, 0.001)
	assert.InDelta(t, 23.49, captured.Total, 0.001)
	assert.Equal(t, "no onions", captured.Notes)
}

func TestToastFetchCatalog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/menu", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"id": "T-1", "name": "Pasta", "description": "fresh", "price": 12.5, "category": "mains", "available": true},
			},
		})
	}))
	defer server.Close()

	gw := NewToastGateway()
	items, err := gw.FetchCatalog(context.Background(), toastIntegration(server.URL))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "T-1", items[0].GatewayItemID)
	assert.Equal(t, "Pasta", items[0].Name)
	assert.InDelta(t, 12.5, items[0].Price, 0.001)
}

func TestToastVerifyWebhook(t *testing.T) {
	gw := NewToastGateway()
	integration := toastIntegration("http://unused")
	body := []byte(`{"orderId":"TST-42","status":"FULFILLED"}`)

	mac := hmac.New(sha256.New, []byte("toast-secret"))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, gw.VerifyWebhook(integration, signature, body))
	assert.False(t, gw.VerifyWebhook(integration, signature, []byte(`{}`)))

	noSecret := toastIntegration("http://unused")
	noSecret.Config.WebhookSecret = ""
	assert.False(t, gw.VerifyWebhook(noSecret, signature, body))
}

func TestToastMapOrderStatus(t *testing.T) {
	gw := NewToastGateway()

	assert.Equal(t, domain.OrderStatusPending, gw.MapOrderStatus("RECEIVED"))
	assert.Equal(t, domain.OrderStatusConfirmed, gw.MapOrderStatus("APPROVED"))
	assert.Equal(t, domain.OrderStatusPreparing, gw.MapOrderStatus("IN_PREPARATION"))
	assert.Equal(t, domain.OrderStatusReady, gw.MapOrderStatus("READY_FOR_PICKUP"))
	assert.Equal(t, domain.OrderStatusCompleted, gw.MapOrderStatus("FULFILLED"))
	assert.Equal(t, domain.OrderStatusCancelled, gw.MapOrderStatus("VOIDED"))
	assert.Equal(t, domain.OrderStatusPending, gw.MapOrderStatus("UNKNOWN_STATE"))
}
