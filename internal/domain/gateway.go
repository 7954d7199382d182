package domain

import (
	"context"

	"github.com/Bare3-dev/FoodHub-sub001/pkg/errors"
)

// POSGateway is the closed capability set every gateway family implements.
// Adapters are stateless aside from the integration configuration passed
// into every call.
type POSGateway interface {
	// Type returns the gateway family this adapter speaks for
	Type() POSType

	// CreateOrder pushes an order to the gateway and returns the gateway's
	// order identifier
	CreateOrder(ctx context.Context, integration *POSIntegration, order *Order) (string, error)

	// FetchCatalog retrieves the gateway's menu/catalog
	FetchCatalog(ctx context.Context, integration *POSIntegration) ([]CatalogItem, error)

	// FetchInventory retrieves the gateway's current stock levels
	FetchInventory(ctx context.Context, integration *POSIntegration) ([]StockLevel, error)

	// TestConnection performs a lightweight authenticated probe
	TestConnection(ctx context.Context, integration *POSIntegration) error

	// VerifyWebhook validates an inbound POS webhook signature
	VerifyWebhook(integration *POSIntegration, signature string, body []byte) bool

	// MapOrderStatus translates the gateway's status vocabulary into the
	// platform's. Unmapped values fall back to pending, never an error.
	MapOrderStatus(gatewayStatus string) OrderStatus
}

// GatewayRegistry resolves a gateway adapter by POS type
type GatewayRegistry struct {
	gateways map[POSType]POSGateway
}

// NewGatewayRegistry creates an empty gateway registry
func NewGatewayRegistry() *GatewayRegistry {
	return &GatewayRegistry{
		gateways: make(map[POSType]POSGateway),
	}
}

// Register adds a gateway adapter to the registry
func (r *GatewayRegistry) Register(gw POSGateway) {
	r.gateways[gw.Type()] = gw
}

// Get returns the adapter for posType, or an UNSUPPORTED_GATEWAY
// configuration error
func (r *GatewayRegistry) Get(posType POSType) (POSGateway, error) {
	gw, ok := r.gateways[posType]
	if !ok {
		return nil, errors.ErrUnsupportedGateway(string(posType))
	}
	return gw, nil
}

// Types returns the registered gateway types
func (r *GatewayRegistry) Types() []POSType {
	types := make([]POSType, 0, len(r.gateways))
	for t := range r.gateways {
		types = append(types, t)
	}
	return types
}
