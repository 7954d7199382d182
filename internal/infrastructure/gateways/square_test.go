package gateways

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bare3-dev/FoodHub-sub001/internal/domain"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/errors"
)

func squareIntegration(baseURL string) *domain.POSIntegration {
	return &domain.POSIntegration{
		ID:           "int-1",
		RestaurantID: "rest-1",
		POSType:      domain.POSTypeSquare,
		Config: domain.IntegrationConfig{
			BaseURL:       baseURL,
			AccessToken:   "sq-token",
			WebhookSecret: "sq-secret",
		},
		IsActive: true,
	}
}

func testOrder() *domain.Order {
	return &domain.Order{
		ID:           "O123",
		RestaurantID: "rest-1",
		OrderNumber:  "1001",
		Customer:     domain.Customer{Name: "Ada", Phone: "555-1111", Email: "ada@example.com"},
		Items: []domain.OrderItem{
			{Name: "Burger", Quantity: 2, Price: 9.99},
			{Name: "Fries", Quantity: 1, Price: 3.505},
		},
		Total:    23.49,
		Currency: "USD",
		Notes:    "no onions",
	}
}

func TestSquareCreateOrder(t *testing.T) {
	var captured squareCreateOrderRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v2/orders", r.URL.Path)
		require.Equal(t, "Bearer sq-token", r.Header.Get("Authorization"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"order": map[string]any{"id": "SQ-999", "state": "OPEN"},
		})
	}))
	defer server.Close()

	gw := NewSquareGateway()
	posOrderID, err := gw.CreateOrder(context.Background(), squareIntegration(server.URL), testOrder())
	require.NoError(t, err)
	assert.Equal(t, "SQ-999", posOrderID)

	require.Len(t, captured.Order.LineItems, 2)
	assert.Equal(t, "O123", captured.Order.ReferenceID)
	assert.Equal(t, "Burger", captured.Order.LineItems[0].Name)
	assert.Equal(t, "2", captured.Order.LineItems[0].Quantity)
	// Prices travel in minor units, rounded
	assert.Equal(t, int64(999), captured.Order.LineItems[0].BasePriceMoney.Amount)
	assert.Equal(t, int64(351), captured.Order.LineItems[1].BasePriceMoney.Amount)
	assert.Equal(t, "USD", captured.Order.LineItems[0].BasePriceMoney.Currency)
}

func TestSquareCreateOrderGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	gw := NewSquareGateway()
	_, err := gw.CreateOrder(context.Background(), squareIntegration(server.URL), testOrder())
	require.Error(t, err)
	assert.True(t, errors.IsRetryable(err))
}

func TestSquareCreateOrderMissingOrderID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"order": map[string]any{}})
	}))
	defer server.Close()

	gw := NewSquareGateway()
	_, err := gw.CreateOrder(context.Background(), squareIntegration(server.URL), testOrder())
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeMalformedPayload, appErr.Code)
}

func TestSquareCreateOrderUnreachable(t *testing.T) {
	gw := NewSquareGateway()
	_, err := gw.CreateOrder(context.Background(), squareIntegration("http://127.0.0.1:1"), testOrder())
	require.Error(t, err)

	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.CodeGatewayUnavailable, appErr.Code)
	assert.True(t, appErr.Retryable)
}

func TestSquareFetchCatalog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/catalog", r.URL.Path)
		require.Equal(t, "Bearer sq-token", r.Header.Get("Authorization"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"objects": []map[string]any{
				{
					"id": "ITEM-1",
					"item_data": map[string]any{
						"name":          "Burger",
						"description":   "classic",
						"category_name": "mains",
						"variations": []map[string]any{
							{"item_variation_data": map[string]any{
								"price_money": map[string]any{"amount": 999, "currency": "USD"},
							}},
						},
					},
				},
				{
					"id":         "ITEM-2",
					"item_data":  map[string]any{"name": "Retired"},
					"is_deleted": true,
				},
			},
		})
	}))
	defer server.Close()

	gw := NewSquareGateway()
	items, err := gw.FetchCatalog(context.Background(), squareIntegration(server.URL))
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "ITEM-1", items[0].GatewayItemID)
	assert.Equal(t, "Burger", items[0].Name)
	assert.InDelta(t, 9.99, items[0].Price, 0.001)
	assert.True(t, items[0].Available)
	assert.False(t, items[1].Available)
}

func TestSquareFetchInventory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/inventory", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"counts": []map[string]any{
				{"catalog_object_id": "ITEM-1", "quantity": "12", "state": "IN_STOCK"},
				{"catalog_object_id": "ITEM-2", "quantity": "0", "state": "IN_STOCK"},
			},
		})
	}))
	defer server.Close()

	gw := NewSquareGateway()
	levels, err := gw.FetchInventory(context.Background(), squareIntegration(server.URL))
	require.NoError(t, err)
	require.Len(t, levels, 2)

	assert.Equal(t, 12, levels[0].Quantity)
	assert.True(t, levels[0].Available)
	assert.False(t, levels[1].Available)
}

func TestSquareTestConnection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sq-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	gw := NewSquareGateway()
	require.NoError(t, gw.TestConnection(context.Background(), squareIntegration(server.URL)))

	bad := squareIntegration(server.URL)
	bad.Config.AccessToken = "wrong"
	require.Error(t, gw.TestConnection(context.Background(), bad))
}

func TestSquareVerifyWebhook(t *testing.T) {
	gw := NewSquareGateway()
	integration := squareIntegration("http://unused")
	body := []byte(`{"order_id":"SQ-999","status":"COMPLETED"}`)

	mac := hmac.New(sha256.New, []byte("sq-secret"))
	mac.Write(body)
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	assert.True(t, gw.VerifyWebhook(integration, signature, body))

	// Single byte mutation breaks the signature
	mutated := append([]byte{}, body...)
	mutated[0] ^= 0x01
	assert.False(t, gw.VerifyWebhook(integration, signature, mutated))

	// Missing secret fails closed
	noSecret := squareIntegration("http://unused")
	noSecret.Config.WebhookSecret = ""
	assert.False(t, gw.VerifyWebhook(noSecret, signature, body))
}

func TestSquareMapOrderStatus(t *testing.T) {
	gw := NewSquareGateway()

	assert.Equal(t, domain.OrderStatusPending, gw.MapOrderStatus("OPEN"))
	assert.Equal(t, domain.OrderStatusPending, gw.MapOrderStatus("DRAFT"))
	assert.Equal(t, domain.OrderStatusCompleted, gw.MapOrderStatus("COMPLETED"))
	assert.Equal(t, domain.OrderStatusCancelled, gw.MapOrderStatus("CANCELED"))

	// Unmapped statuses fall back to pending, never error
	assert.Equal(t, domain.OrderStatusPending, gw.MapOrderStatus("SOMETHING_NEW"))
	assert.Equal(t, domain.OrderStatusPending, gw.MapOrderStatus(""))
}
