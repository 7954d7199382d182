package application

import (
	"context"
	"time"

	"github.com/Bare3-dev/FoodHub-sub001/internal/domain"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/errors"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/logging"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/metrics"
)

// MenuSyncResult reports the outcome of a catalog sync
type MenuSyncResult struct {
	CreatedCount int      `json:"createdCount"`
	UpdatedCount int      `json:"updatedCount"`
	Errors       []string `json:"errors,omitempty"`
}

// InventorySyncResult reports the outcome of an inventory sync
type InventorySyncResult struct {
	UpdatedCount int      `json:"updatedCount"`
	SkippedCount int      `json:"skippedCount"`
	Errors       []string `json:"errors,omitempty"`
}

// SyncService is the gateway-agnostic facade over the POS adapters. Every
// operation appends exactly one sync log entry before returning.
type SyncService struct {
	registry     *domain.GatewayRegistry
	integrations domain.IntegrationRepository
	mappings     domain.MappingRepository
	syncLogs     domain.SyncLogRepository
	menuItems    domain.MenuItemStore
	orders       domain.OrderStore
	logger       *logging.Logger
	metrics      *metrics.Metrics
}

// NewSyncService wires the sync facade
func NewSyncService(
	registry *domain.GatewayRegistry,
	integrations domain.IntegrationRepository,
	mappings domain.MappingRepository,
	syncLogs domain.SyncLogRepository,
	menuItems domain.MenuItemStore,
	orders domain.OrderStore,
	logger *logging.Logger,
	m *metrics.Metrics,
) *SyncService {
	return &SyncService{
		registry:     registry,
		integrations: integrations,
		mappings:     mappings,
		syncLogs:     syncLogs,
		menuItems:    menuItems,
		orders:       orders,
		logger:       logger.WithComponent("sync-service"),
		metrics:      m,
	}
}

// ActiveIntegration resolves the active integration for a restaurant and
// gateway; missing or disabled integrations are configuration errors.
func (s *SyncService) ActiveIntegration(ctx context.Context, restaurantID string, posType domain.POSType) (*domain.POSIntegration, error) {
	integration, err := s.integrations.FindByRestaurantAndType(ctx, restaurantID, posType)
	if err != nil {
		return nil, err
	}
	if !integration.IsActive {
		return nil, errors.ErrIntegrationInactive(restaurantID, string(posType))
	}
	return integration, nil
}

// Integration resolves an integration by id
func (s *SyncService) Integration(ctx context.Context, id string) (*domain.POSIntegration, error) {
	return s.integrations.FindByID(ctx, id)
}

// Order resolves a platform order by id
func (s *SyncService) Order(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.FindByID(ctx, orderID)
}

// SyncLogs returns the sync log page for one integration
func (s *SyncService) SyncLogs(ctx context.Context, integrationID string, limit, offset int) ([]*domain.SyncLogEntry, error) {
	return s.syncLogs.FindByIntegration(ctx, integrationID, limit, offset)
}

// PushOrder formats and posts an order to the gateway, then records the
// order-ID mapping. Safe to retry: the mapping write is an upsert.
func (s *SyncService) PushOrder(ctx context.Context, order *domain.Order, posType domain.POSType) (string, error) {
	integration, err := s.ActiveIntegration(ctx, order.RestaurantID, posType)
	if err != nil {
		return "", err
	}

	gateway, err := s.registry.Get(posType)
	if err != nil {
		return "", err
	}

	start := time.Now()
	posOrderID, err := gateway.CreateOrder(ctx, integration, order)
	duration := time.Since(start)

	s.logger.GatewayCall(ctx, string(posType), "createOrder", err == nil, duration)
	s.metrics.RecordGatewayCall(string(posType), "createOrder", err == nil, duration)

	if err != nil {
		s.appendLog(ctx, integration.ID, domain.SyncTypeOrder, domain.SyncOutcomeFailed, map[string]any{
			"operation": "createOrder",
			"orderId":   order.ID,
			"error":     err.Error(),
		})
		return "", err
	}

	if err := s.mappings.Upsert(ctx, &domain.OrderMapping{
		FoodhubOrderID: order.ID,
		POSOrderID:     posOrderID,
		POSType:        posType,
		SyncStatus:     domain.SyncStatusSynced,
	}); err != nil {
		s.appendLog(ctx, integration.ID, domain.SyncTypeOrder, domain.SyncOutcomeFailed, map[string]any{
			"operation":  "createOrder",
			"orderId":    order.ID,
			"posOrderId": posOrderID,
			"error":      err.Error(),
		})
		return "", err
	}

	s.appendLog(ctx, integration.ID, domain.SyncTypeOrder, domain.SyncOutcomeSuccess, map[string]any{
		"operation":  "createOrder",
		"orderId":    order.ID,
		"posOrderId": posOrderID,
	})

	return posOrderID, nil
}

// ApplyGatewayOrderStatus resolves a gateway order through the mapping
// table and applies the translated status to the platform order. Unmapped
// gateway statuses fall back to pending rather than erroring.
func (s *SyncService) ApplyGatewayOrderStatus(ctx context.Context, integration *domain.POSIntegration, posOrderID, gatewayStatus string) (string, domain.OrderStatus, error) {
	gateway, err := s.registry.Get(integration.POSType)
	if err != nil {
		return "", "", err
	}

	mapping, err := s.mappings.FindByPOSOrder(ctx, posOrderID, integration.POSType)
	if err != nil {
		s.appendLog(ctx, integration.ID, domain.SyncTypeOrder, domain.SyncOutcomeFailed, map[string]any{
			"operation":  "updateOrderStatus",
			"posOrderId": posOrderID,
			"error":      err.Error(),
		})
		return "", "", err
	}
	if mapping == nil {
		appErr := errors.ErrNotFoundWithID("order mapping", posOrderID)
		s.appendLog(ctx, integration.ID, domain.SyncTypeOrder, domain.SyncOutcomeFailed, map[string]any{
			"operation":  "updateOrderStatus",
			"posOrderId": posOrderID,
			"error":      appErr.Message,
		})
		return "", "", appErr
	}

	status := gateway.MapOrderStatus(gatewayStatus)

	if err := s.orders.UpdateStatus(ctx, mapping.FoodhubOrderID, status); err != nil {
		s.appendLog(ctx, integration.ID, domain.SyncTypeOrder, domain.SyncOutcomeFailed, map[string]any{
			"operation":  "updateOrderStatus",
			"orderId":    mapping.FoodhubOrderID,
			"posOrderId": posOrderID,
			"error":      err.Error(),
		})
		return "", "", err
	}

	s.appendLog(ctx, integration.ID, domain.SyncTypeOrder, domain.SyncOutcomeSuccess, map[string]any{
		"operation":     "updateOrderStatus",
		"orderId":       mapping.FoodhubOrderID,
		"posOrderId":    posOrderID,
		"gatewayStatus": gatewayStatus,
		"status":        string(status),
	})

	s.logger.Info("Applied gateway order status",
		"posType", integration.POSType,
		"posOrderId", posOrderID,
		"orderId", mapping.FoodhubOrderID,
		"gatewayStatus", gatewayStatus,
		"status", status,
	)

	return mapping.FoodhubOrderID, status, nil
}

// SyncMenu fetches the gateway catalog and creates or updates menu items
// keyed by gateway item id. Individual item failures are collected, not
// fatal to the batch.
func (s *SyncService) SyncMenu(ctx context.Context, integration *domain.POSIntegration) (*MenuSyncResult, error) {
	gateway, err := s.registry.Get(integration.POSType)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	catalog, err := gateway.FetchCatalog(ctx, integration)
	duration := time.Since(start)

	s.logger.GatewayCall(ctx, string(integration.POSType), "fetchCatalog", err == nil, duration)
	s.metrics.RecordGatewayCall(string(integration.POSType), "fetchCatalog", err == nil, duration)

	if err != nil {
		s.appendLog(ctx, integration.ID, domain.SyncTypeMenu, domain.SyncOutcomeFailed, map[string]any{
			"operation": "syncMenu",
			"error":     err.Error(),
		})
		return nil, err
	}

	result := &MenuSyncResult{}
	for _, catalogItem := range catalog {
		existing, err := s.menuItems.FindByGatewayItem(ctx, integration.RestaurantID, integration.POSType, catalogItem.GatewayItemID)
		if err != nil {
			result.Errors = append(result.Errors, catalogItem.GatewayItemID+": "+err.Error())
			continue
		}

		if existing == nil {
			err = s.menuItems.Create(ctx, &domain.MenuItem{
				RestaurantID:  integration.RestaurantID,
				GatewayItemID: catalogItem.GatewayItemID,
				POSType:       integration.POSType,
				Name:          catalogItem.Name,
				Description:   catalogItem.Description,
				Price:         catalogItem.Price,
				Category:      catalogItem.Category,
				Available:     catalogItem.Available,
			})
			if err != nil {
				result.Errors = append(result.Errors, catalogItem.GatewayItemID+": "+err.Error())
				continue
			}
			result.CreatedCount++
		} else {
			existing.Name = catalogItem.Name
			existing.Description = catalogItem.Description
			existing.Price = catalogItem.Price
			existing.Category = catalogItem.Category
			existing.Available = catalogItem.Available
			if err := s.menuItems.Update(ctx, existing); err != nil {
				result.Errors = append(result.Errors, catalogItem.GatewayItemID+": "+err.Error())
				continue
			}
			result.UpdatedCount++
		}
	}

	outcome := domain.SyncOutcomeSuccess
	if len(result.Errors) > 0 && result.CreatedCount+result.UpdatedCount == 0 {
		outcome = domain.SyncOutcomeFailed
	}
	s.appendLog(ctx, integration.ID, domain.SyncTypeMenu, outcome, map[string]any{
		"operation": "syncMenu",
		"created":   result.CreatedCount,
		"updated":   result.UpdatedCount,
		"errors":    len(result.Errors),
	})

	return result, nil
}

// SyncInventory fetches gateway stock levels and overwrites stock quantity
// and availability per matched item; unmatched gateway items are skipped.
func (s *SyncService) SyncInventory(ctx context.Context, integration *domain.POSIntegration) (*InventorySyncResult, error) {
	gateway, err := s.registry.Get(integration.POSType)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	levels, err := gateway.FetchInventory(ctx, integration)
	duration := time.Since(start)

	s.logger.GatewayCall(ctx, string(integration.POSType), "fetchInventory", err == nil, duration)
	s.metrics.RecordGatewayCall(string(integration.POSType), "fetchInventory", err == nil, duration)

	if err != nil {
		s.appendLog(ctx, integration.ID, domain.SyncTypeInventory, domain.SyncOutcomeFailed, map[string]any{
			"operation": "syncInventory",
			"error":     err.Error(),
		})
		return nil, err
	}

	result := &InventorySyncResult{}
	for _, level := range levels {
		matched, err := s.menuItems.UpdateStock(ctx, integration.RestaurantID, integration.POSType, level.GatewayItemID, level.Quantity, level.Available)
		if err != nil {
			result.Errors = append(result.Errors, level.GatewayItemID+": "+err.Error())
			continue
		}
		if matched {
			result.UpdatedCount++
		} else {
			result.SkippedCount++
		}
	}

	s.appendLog(ctx, integration.ID, domain.SyncTypeInventory, domain.SyncOutcomeSuccess, map[string]any{
		"operation": "syncInventory",
		"updated":   result.UpdatedCount,
		"skipped":   result.SkippedCount,
		"errors":    len(result.Errors),
	})

	return result, nil
}

// TestConnection performs a lightweight authenticated probe against the
// gateway
func (s *SyncService) TestConnection(ctx context.Context, integration *domain.POSIntegration) error {
	gateway, err := s.registry.Get(integration.POSType)
	if err != nil {
		return err
	}

	start := time.Now()
	err = gateway.TestConnection(ctx, integration)
	duration := time.Since(start)

	s.logger.GatewayCall(ctx, string(integration.POSType), "testConnection", err == nil, duration)
	s.metrics.RecordGatewayCall(string(integration.POSType), "testConnection", err == nil, duration)

	outcome := domain.SyncOutcomeSuccess
	details := map[string]any{"operation": "testConnection"}
	if err != nil {
		outcome = domain.SyncOutcomeFailed
		details["error"] = err.Error()
	}
	s.appendLog(ctx, integration.ID, domain.SyncTypeOrder, outcome, details)

	return err
}

// VerifyPOSWebhook validates an inbound POS webhook signature through the
// gateway adapter
func (s *SyncService) VerifyPOSWebhook(integration *domain.POSIntegration, posType domain.POSType, signature string, body []byte) (bool, error) {
	gateway, err := s.registry.Get(posType)
	if err != nil {
		return false, err
	}
	return gateway.VerifyWebhook(integration, signature, body), nil
}

func (s *SyncService) appendLog(ctx context.Context, integrationID string, syncType domain.SyncType, status domain.SyncOutcome, details map[string]any) {
	entry := &domain.SyncLogEntry{
		IntegrationID: integrationID,
		SyncType:      syncType,
		Status:        status,
		Details:       details,
	}
	if err := s.syncLogs.Append(ctx, entry); err != nil {
		s.logger.WithError(err).Error("Failed to append sync log entry",
			"integrationId", integrationID, "syncType", syncType)
	}
}
