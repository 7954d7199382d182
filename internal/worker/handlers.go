package worker

import (
	"context"

	"github.com/Bare3-dev/FoodHub-sub001/internal/application"
	"github.com/Bare3-dev/FoodHub-sub001/internal/domain"
)

// RegisterSyncHandlers binds the four task kinds to the sync service.
func RegisterSyncHandlers(pool *Pool, syncService *application.SyncService) {
	pool.Register(domain.TaskOrderCreate, orderCreateHandler(syncService))
	pool.Register(domain.TaskOrderStatus, orderStatusHandler(syncService))
	pool.Register(domain.TaskPaymentSync, paymentSyncHandler(syncService))
	pool.Register(domain.TaskInventorySync, inventorySyncHandler(syncService))
}

// orderCreateHandler pushes a platform order to the gateway. A missing
// order means it was deleted before the task ran; the not-found error
// makes the pool discard the task.
func orderCreateHandler(s *application.SyncService) Handler {
	return func(ctx context.Context, task *Task) error {
		order, err := s.Order(ctx, task.EntityID)
		if err != nil {
			return err
		}
		_, err = s.PushOrder(ctx, order, task.POSType)
		return err
	}
}

// orderStatusHandler applies a gateway-reported status to the platform
// order through the mapping table
func orderStatusHandler(s *application.SyncService) Handler {
	return func(ctx context.Context, task *Task) error {
		integration, err := s.ActiveIntegration(ctx, task.RestaurantID, task.POSType)
		if err != nil {
			return err
		}
		_, _, err = s.ApplyGatewayOrderStatus(ctx, integration, task.POSOrderID, task.GatewayStatus)
		return err
	}
}

// paymentSyncHandler re-pushes a paid order so the register reflects the
// final payment state. The mapping upsert makes the push idempotent.
func paymentSyncHandler(s *application.SyncService) Handler {
	return func(ctx context.Context, task *Task) error {
		order, err := s.Order(ctx, task.EntityID)
		if err != nil {
			return err
		}
		_, err = s.PushOrder(ctx, order, task.POSType)
		return err
	}
}

// inventorySyncHandler refreshes stock levels for one integration
func inventorySyncHandler(s *application.SyncService) Handler {
	return func(ctx context.Context, task *Task) error {
		integration, err := s.Integration(ctx, task.EntityID)
		if err != nil {
			return err
		}
		_, err = s.SyncInventory(ctx, integration)
		return err
	}
}
