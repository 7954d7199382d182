package gateways

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Bare3-dev/FoodHub-sub001/internal/domain"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/errors"
)

var toastTracer = otel.Tracer("pos-sync-service/gateways/toast")

// ToastGateway implements the POSGateway interface for restaurant-POS
// style gateways
type ToastGateway struct {
	httpClient *http.Client
}

// NewToastGateway creates a new Toast gateway adapter
func NewToastGateway() *ToastGateway {
	return &ToastGateway{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Type returns the gateway family
func (g *ToastGateway) Type() domain.POSType {
	return domain.POSTypeToast
}

type toastCustomer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type toastItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Notes    string  `json:"notes,omitempty"`
}

type toastCreateOrderRequest struct {
	OrderNumber string        `json:"orderNumber"`
	Customer    toastCustomer `json:"customer"`
	Items       []toastItem   `json:"items"`
	Total       float64       `json:"total"`
	Notes       string        `json:"notes,omitempty"`
}

type toastCreateOrderResponse struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// CreateOrder pushes an order to the gateway and returns its order ID
func (g *ToastGateway) CreateOrder(ctx context.Context, integration *domain.POSIntegration, order *domain.Order) (string, error) {
	ctx, span := toastTracer.Start(ctx, "toast.CreateOrder",
		trace.WithAttributes(
			attribute.String("pos.type", "toast"),
			attribute.String("order.id", order.ID),
			attribute.String("restaurant.id", integration.RestaurantID),
		),
	)
	defer span.End()

	items := make([]toastItem, len(order.Items))
	for i, item := range order.Items {
		items[i] = toastItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
			Notes:    item.Notes,
		}
	}

	payload := toastCreateOrderRequest{
		OrderNumber: order.OrderNumber,
		Customer: toastCustomer{
			Name:  order.Customer.Name,
			Phone: order.Customer.Phone,
			Email: order.Customer.Email,
		},
		Items: items,
		Total: order.Total,
		Notes: order.Notes,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal toast order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, integration.Config.BaseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+integration.Config.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return "", errors.ErrGatewayUnavailable("toast", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		err := errors.ErrGatewayStatus("toast", resp.StatusCode).
			WithDetail("body", string(respBody))
		span.RecordError(err)
		return "", err
	}

	var response toastCreateOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to decode toast response: %w", err)
	}

	if response.OrderID == "" {
		return "", errors.ErrMalformedPayload("orderId")
	}

	span.SetAttributes(attribute.String("pos.order_id", response.OrderID))
	return response.OrderID, nil
}

type toastMenuResponse struct {
	Items []struct {
		ID          string  `json:"id"`
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		Category    string  `json:"category"`
		Available   bool    `json:"available"`
	} `json:"items"`
}

// FetchCatalog retrieves the gateway's menu
func (g *ToastGateway) FetchCatalog(ctx context.Context, integration *domain.POSIntegration) ([]domain.CatalogItem, error) {
	ctx, span := toastTracer.Start(ctx, "toast.FetchCatalog")
	defer span.End()

	var response toastMenuResponse
	if err := g.getJSON(ctx, integration, "/menu", &response); err != nil {
		span.RecordError(err)
		return nil, err
	}

	items := make([]domain.CatalogItem, len(response.Items))
	for i, item := range response.Items {
		items[i] = domain.CatalogItem{
			GatewayItemID: item.ID,
			Name:          item.Name,
			Description:   item.Description,
			Price:         item.Price,
			Category:      item.Category,
			Available:     item.Available,
		}
	}

	span.SetAttributes(attribute.Int("catalog.items", len(items)))
	return items, nil
}

type toastInventoryResponse struct {
	Items []struct {
		ID        string `json:"id"`
		Quantity  int    `json:"quantity"`
		Available bool   `json:"available"`
	} `json:"items"`
}

// FetchInventory retrieves stock levels from the gateway
func (g *ToastGateway) FetchInventory(ctx context.Context, integration *domain.POSIntegration) ([]domain.StockLevel, error) {
	ctx, span := toastTracer.Start(ctx, "toast.FetchInventory")
	defer span.End()

	var response toastInventoryResponse
	if err := g.getJSON(ctx, integration, "/inventory", &response); err != nil {
		span.RecordError(err)
		return nil, err
	}

	levels := make([]domain.StockLevel, len(response.Items))
	for i, item := range response.Items {
		levels[i] = domain.StockLevel{
			GatewayItemID: item.ID,
			Quantity:      item.Quantity,
			Available:     item.Available,
		}
	}

	return levels, nil
}

// TestConnection performs a lightweight authenticated probe
func (g *ToastGateway) TestConnection(ctx context.Context, integration *domain.POSIntegration) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, integration.Config.BaseURL+"/menu", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+integration.Config.AccessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return errors.ErrGatewayUnavailable("toast", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.ErrGatewayStatus("toast", resp.StatusCode)
	}

	return nil
}

// VerifyWebhook validates an inbound webhook signature
// (HMAC-SHA256 of the raw body, hex-encoded)
func (g *ToastGateway) VerifyWebhook(integration *domain.POSIntegration, signature string, body []byte) bool {
	secret := integration.Config.WebhookSecret
	if secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expected))
}

// MapOrderStatus translates the gateway's status vocabulary
func (g *ToastGateway) MapOrderStatus(gatewayStatus string) domain.OrderStatus {
	switch gatewayStatus {
	case "RECEIVED":
		return domain.OrderStatusPending
	case "APPROVED":
		return domain.OrderStatusConfirmed
	case "IN_PREPARATION":
		return domain.OrderStatusPreparing
	case "READY_FOR_PICKUP":
		return domain.OrderStatusReady
	case "FULFILLED":
		return domain.OrderStatusCompleted
	case "VOIDED":
		return domain.OrderStatusCancelled
	default:
		return domain.OrderStatusPending
	}
}

func (g *ToastGateway) getJSON(ctx context.Context, integration *domain.POSIntegration, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, integration.Config.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+integration.Config.AccessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return errors.ErrGatewayUnavailable("toast", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.ErrGatewayStatus("toast", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode toast response: %w", err)
	}

	return nil
}
