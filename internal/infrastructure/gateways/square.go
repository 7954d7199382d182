package gateways

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Bare3-dev/FoodHub-sub001/internal/domain"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/errors"
)

var squareTracer = otel.Tracer("pos-sync-service/gateways/square")

// SquareGateway implements the POSGateway interface for Square-style
// gateways. Prices go over the wire in minor units.
type SquareGateway struct {
	httpClient *http.Client
}

// NewSquareGateway creates a new Square gateway adapter
func NewSquareGateway() *SquareGateway {
	return &SquareGateway{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Type returns the gateway family
func (g *SquareGateway) Type() domain.POSType {
	return domain.POSTypeSquare
}

type squareMoney struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type squareLineItem struct {
	Name           string      `json:"name"`
	Quantity       string      `json:"quantity"`
	BasePriceMoney squareMoney `json:"base_price_money"`
}

type squareFulfillment struct {
	Type  string `json:"type"`
	State string `json:"state"`
}

type squareOrder struct {
	ReferenceID  string              `json:"reference_id"`
	LineItems    []squareLineItem    `json:"line_items"`
	Fulfillments []squareFulfillment `json:"fulfillments"`
}

type squareCreateOrderRequest struct {
	Order squareOrder `json:"order"`
}

type squareCreateOrderResponse struct {
	Order struct {
		ID    string `json:"id"`
		State string `json:"state"`
	} `json:"order"`
}

// CreateOrder pushes an order to Square and returns its order ID
func (g *SquareGateway) CreateOrder(ctx context.Context, integration *domain.POSIntegration, order *domain.Order) (string, error) {
	ctx, span := squareTracer.Start(ctx, "square.CreateOrder",
		trace.WithAttributes(
			attribute.String("pos.type", "square"),
			attribute.String("order.id", order.ID),
			attribute.String("restaurant.id", integration.RestaurantID),
		),
	)
	defer span.End()

	currency := order.Currency
	if currency == "" {
		currency = "USD"
	}

	lineItems := make([]squareLineItem, len(order.Items))
	for i, item := range order.Items {
		lineItems[i] = squareLineItem{
			Name:     item.Name,
			Quantity: fmt.Sprintf("%d", item.Quantity),
			BasePriceMoney: squareMoney{
				Amount:   toMinorUnits(item.Price),
				Currency: currency,
			},
		}
	}

	payload := squareCreateOrderRequest{
		Order: squareOrder{
			ReferenceID: order.ID,
			LineItems:   lineItems,
			Fulfillments: []squareFulfillment{
				{Type: "PICKUP", State: "PROPOSED"},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal square order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, integration.Config.BaseURL+"/v2/orders", bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+integration.Config.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return "", errors.ErrGatewayUnavailable("square", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		err := errors.ErrGatewayStatus("square", resp.StatusCode).
			WithDetail("body", string(respBody))
		span.RecordError(err)
		return "", err
	}

	var response squareCreateOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to decode square response: %w", err)
	}

	if response.Order.ID == "" {
		return "", errors.ErrMalformedPayload("order.id")
	}

	span.SetAttributes(attribute.String("pos.order_id", response.Order.ID))
	return response.Order.ID, nil
}

type squareCatalogResponse struct {
	Objects []struct {
		ID       string `json:"id"`
		ItemData struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			Category    string `json:"category_name"`
			Variations  []struct {
				ItemVariationData struct {
					PriceMoney squareMoney `json:"price_money"`
				} `json:"item_variation_data"`
			} `json:"variations"`
		} `json:"item_data"`
		IsDeleted bool `json:"is_deleted"`
	} `json:"objects"`
}

// FetchCatalog retrieves the gateway's catalog
func (g *SquareGateway) FetchCatalog(ctx context.Context, integration *domain.POSIntegration) ([]domain.CatalogItem, error) {
	ctx, span := squareTracer.Start(ctx, "square.FetchCatalog")
	defer span.End()

	var response squareCatalogResponse
	if err := g.getJSON(ctx, integration, "/catalog", &response); err != nil {
		span.RecordError(err)
		return nil, err
	}

	items := make([]domain.CatalogItem, 0, len(response.Objects))
	for _, obj := range response.Objects {
		var price float64
		if len(obj.ItemData.Variations) > 0 {
			price = fromMinorUnits(obj.ItemData.Variations[0].ItemVariationData.PriceMoney.Amount)
		}
		items = append(items, domain.CatalogItem{
			GatewayItemID: obj.ID,
			Name:          obj.ItemData.Name,
			Description:   obj.ItemData.Description,
			Price:         price,
			Category:      obj.ItemData.Category,
			Available:     !obj.IsDeleted,
		})
	}

	span.SetAttributes(attribute.Int("catalog.items", len(items)))
	return items, nil
}

type squareInventoryResponse struct {
	Counts []struct {
		CatalogObjectID string `json:"catalog_object_id"`
		Quantity        string `json:"quantity"`
		State           string `json:"state"`
	} `json:"counts"`
}

// FetchInventory retrieves stock levels from Square
func (g *SquareGateway) FetchInventory(ctx context.Context, integration *domain.POSIntegration) ([]domain.StockLevel, error) {
	ctx, span := squareTracer.Start(ctx, "square.FetchInventory")
	defer span.End()

	var response squareInventoryResponse
	if err := g.getJSON(ctx, integration, "/inventory", &response); err != nil {
		span.RecordError(err)
		return nil, err
	}

	levels := make([]domain.StockLevel, 0, len(response.Counts))
	for _, count := range response.Counts {
		var qty int
		fmt.Sscanf(count.Quantity, "%d", &qty)
		levels = append(levels, domain.StockLevel{
			GatewayItemID: count.CatalogObjectID,
			Quantity:      qty,
			Available:     count.State == "IN_STOCK" && qty > 0,
		})
	}

	return levels, nil
}

// TestConnection performs a lightweight authenticated probe
func (g *SquareGateway) TestConnection(ctx context.Context, integration *domain.POSIntegration) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, integration.Config.BaseURL+"/catalog", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+integration.Config.AccessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return errors.ErrGatewayUnavailable("square", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.ErrGatewayStatus("square", resp.StatusCode)
	}

	return nil
}

// VerifyWebhook validates an inbound Square webhook signature
// (HMAC-SHA256 of the raw body, base64-encoded)
func (g *SquareGateway) VerifyWebhook(integration *domain.POSIntegration, signature string, body []byte) bool {
	secret := integration.Config.WebhookSecret
	if secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expected))
}

// MapOrderStatus translates Square's status vocabulary
func (g *SquareGateway) MapOrderStatus(gatewayStatus string) domain.OrderStatus {
	switch gatewayStatus {
	case "OPEN", "DRAFT":
		return domain.OrderStatusPending
	case "COMPLETED":
		return domain.OrderStatusCompleted
	case "CANCELED":
		return domain.OrderStatusCancelled
	default:
		return domain.OrderStatusPending
	}
}

func (g *SquareGateway) getJSON(ctx context.Context, integration *domain.POSIntegration, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, integration.Config.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+integration.Config.AccessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return errors.ErrGatewayUnavailable("square", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.ErrGatewayStatus("square", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode square response: %w", err)
	}

	return nil
}

func toMinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}

func fromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}
