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

var localTracer = otel.Tracer("pos-sync-service/gateways/local")

// LocalGateway implements the POSGateway interface for generic/local POS
// systems. Auth uses the integration's API key as a bearer token.
type LocalGateway struct {
	httpClient *http.Client
}

// NewLocalGateway creates a new local gateway adapter
func NewLocalGateway() *LocalGateway {
	return &LocalGateway{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Type returns the gateway family
func (g *LocalGateway) Type() domain.POSType {
	return domain.POSTypeLocal
}

type localCustomerInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type localOrderItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Notes    string  `json:"notes,omitempty"`
}

type localCreateOrderRequest struct {
	OrderID             string            `json:"order_id"`
	CustomerInfo        localCustomerInfo `json:"customer_info"`
	OrderItems          []localOrderItem  `json:"order_items"`
	OrderTotal          float64           `json:"order_total"`
	SpecialInstructions string            `json:"special_instructions,omitempty"`
}

type localCreateOrderResponse struct {
	POSOrderID string `json:"pos_order_id"`
	Status     string `json:"status"`
}

// CreateOrder pushes an order to the local POS and returns its order ID
func (g *LocalGateway) CreateOrder(ctx context.Context, integration *domain.POSIntegration, order *domain.Order) (string, error) {
	ctx, span := localTracer.Start(ctx, "local.CreateOrder",
		trace.WithAttributes(
			attribute.String("pos.type", "local"),
			attribute.String("order.id", order.ID),
			attribute.String("restaurant.id", integration.RestaurantID),
		),
	)
	defer span.End()

	items := make([]localOrderItem, len(order.Items))
	for i, item := range order.Items {
		items[i] = localOrderItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
			Notes:    item.Notes,
		}
	}

	payload := localCreateOrderRequest{
		OrderID: order.ID,
		CustomerInfo: localCustomerInfo{
			Name:  order.Customer.Name,
			Phone: order.Customer.Phone,
			Email: order.Customer.Email,
		},
		OrderItems:          items,
		OrderTotal:          order.Total,
		SpecialInstructions: order.Notes,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal local order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, integration.Config.BaseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+integration.Config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return "", errors.ErrGatewayUnavailable("local", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		err := errors.ErrGatewayStatus("local", resp.StatusCode).
			WithDetail("body", string(respBody))
		span.RecordError(err)
		return "", err
	}

	var response localCreateOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to decode local POS response: %w", err)
	}

	if response.POSOrderID == "" {
		return "", errors.ErrMalformedPayload("pos_order_id")
	}

	span.SetAttributes(attribute.String("pos.order_id", response.POSOrderID))
	return response.POSOrderID, nil
}

type localMenuResponse struct {
	MenuItems []struct {
		ItemID      string  `json:"item_id"`
		ItemName    string  `json:"item_name"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		Category    string  `json:"category"`
		IsAvailable bool    `json:"is_available"`
	} `json:"menu_items"`
}

// FetchCatalog retrieves the POS menu
func (g *LocalGateway) FetchCatalog(ctx context.Context, integration *domain.POSIntegration) ([]domain.CatalogItem, error) {
	ctx, span := localTracer.Start(ctx, "local.FetchCatalog")
	defer span.End()

	var response localMenuResponse
	if err := g.getJSON(ctx, integration, "/menu", &response); err != nil {
		span.RecordError(err)
		return nil, err
	}

	items := make([]domain.CatalogItem, len(response.MenuItems))
	for i, item := range response.MenuItems {
		items[i] = domain.CatalogItem{
			GatewayItemID: item.ItemID,
			Name:          item.ItemName,
			Description:   item.Description,
			Price:         item.Price,
			Category:      item.Category,
			Available:     item.IsAvailable,
		}
	}

	span.SetAttributes(attribute.Int("catalog.items", len(items)))
	return items, nil
}

type localInventoryResponse struct {
	Inventory []struct {
		ItemID   string `json:"item_id"`
		Quantity int    `json:"quantity"`
		InStock  bool   `json:"in_stock"`
	} `json:"inventory"`
}

// FetchInventory retrieves stock levels from the POS
func (g *LocalGateway) FetchInventory(ctx context.Context, integration *domain.POSIntegration) ([]domain.StockLevel, error) {
	ctx, span := localTracer.Start(ctx, "local.FetchInventory")
	defer span.End()

	var response localInventoryResponse
	if err := g.getJSON(ctx, integration, "/inventory", &response); err != nil {
		span.RecordError(err)
		return nil, err
	}

	levels := make([]domain.StockLevel, len(response.Inventory))
	for i, item := range response.Inventory {
		levels[i] = domain.StockLevel{
			GatewayItemID: item.ItemID,
			Quantity:      item.Quantity,
			Available:     item.InStock,
		}
	}

	return levels, nil
}

// TestConnection performs a lightweight authenticated probe
func (g *LocalGateway) TestConnection(ctx context.Context, integration *domain.POSIntegration) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, integration.Config.BaseURL+"/menu", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+integration.Config.APIKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return errors.ErrGatewayUnavailable("local", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.ErrGatewayStatus("local", resp.StatusCode)
	}

	return nil
}

// VerifyWebhook validates an inbound webhook signature
// (HMAC-SHA256 of the raw body, hex-encoded)
func (g *LocalGateway) VerifyWebhook(integration *domain.POSIntegration, signature string, body []byte) bool {
	secret := integration.Config.WebhookSecret
	if secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expected))
}

// MapOrderStatus translates the POS status vocabulary
func (g *LocalGateway) MapOrderStatus(gatewayStatus string) domain.OrderStatus {
	switch gatewayStatus {
	case "new", "pending":
		return domain.OrderStatusPending
	case "accepted":
		return domain.OrderStatusConfirmed
	case "preparing":
		return domain.OrderStatusPreparing
	case "ready":
		return domain.OrderStatusReady
	case "completed":
		return domain.OrderStatusCompleted
	case "cancelled":
		return domain.OrderStatusCancelled
	default:
		return domain.OrderStatusPending
	}
}

func (g *LocalGateway) getJSON(ctx context.Context, integration *domain.POSIntegration, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, integration.Config.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+integration.Config.APIKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return errors.ErrGatewayUnavailable("local", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.ErrGatewayStatus("local", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode local POS response: %w", err)
	}

	return nil
}
