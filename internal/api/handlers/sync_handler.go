package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Bare3-dev/FoodHub-sub001/internal/application"
	"github.com/Bare3-dev/FoodHub-sub001/internal/domain"
	"github.com/Bare3-dev/FoodHub-sub001/internal/worker"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/errors"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/logging"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/middleware"
)

// SyncHandler handles sync triggers and diagnostics
type SyncHandler struct {
	service *application.SyncService
	pool    *worker.Pool
	logger  *logging.Logger
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(service *application.SyncService, pool *worker.Pool, logger *logging.Logger) *SyncHandler {
	return &SyncHandler{
		service: service,
		pool:    pool,
		logger:  logger.WithComponent("sync-handler"),
	}
}

// RegisterRoutes registers the sync routes
func (h *SyncHandler) RegisterRoutes(r *gin.RouterGroup) {
	integrations := r.Group("/integrations")
	{
		integrations.POST("/:id/test", h.TestConnection)
		integrations.POST("/:id/sync/menu", h.SyncMenu)
		integrations.POST("/:id/sync/inventory", h.SyncInventory)
		integrations.GET("/:id/sync-logs", h.GetSyncLogs)
	}

	r.POST("/orders/:orderId/push/:posType", h.PushOrder)
}

// TestConnection handles POST /integrations/:id/test
func (h *SyncHandler) TestConnection(c *gin.Context) {
	integration, ok := h.resolveIntegration(c)
	if !ok {
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"integration.id": integration.ID,
		"pos.type":       string(integration.POSType),
		"operation":      "test_connection",
	})

	if err := h.service.TestConnection(c.Request.Context(), integration); err != nil {
		h.logger.WithError(err).Warn("Connection test failed",
			"integrationId", integration.ID, "posType", integration.POSType)
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"posType": integration.POSType,
	})
}

// SyncMenu handles POST /integrations/:id/sync/menu
func (h *SyncHandler) SyncMenu(c *gin.Context) {
	integration, ok := h.resolveIntegration(c)
	if !ok {
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"integration.id": integration.ID,
		"pos.type":       string(integration.POSType),
		"operation":      "sync_menu",
	})

	result, err := h.service.SyncMenu(c.Request.Context(), integration)
	if err != nil {
		h.logger.WithError(err).Error("Menu sync failed",
			"integrationId", integration.ID, "posType", integration.POSType)
		middleware.AbortWithError(c, err)
		return
	}

	h.logger.Info("Menu sync completed",
		"integrationId", integration.ID,
		"created", result.CreatedCount,
		"updated", result.UpdatedCount,
		"errors", len(result.Errors),
	)
	c.JSON(http.StatusOK, result)
}

// SyncInventory handles POST /integrations/:id/sync/inventory.
// The sync runs asynchronously on the low-priority lane.
func (h *SyncHandler) SyncInventory(c *gin.Context) {
	integration, ok := h.resolveIntegration(c)
	if !ok {
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"integration.id": integration.ID,
		"pos.type":       string(integration.POSType),
		"operation":      "sync_inventory",
	})

	task := &worker.Task{
		Kind:         domain.TaskInventorySync,
		POSType:      integration.POSType,
		RestaurantID: integration.RestaurantID,
		EntityID:     integration.ID,
	}
	if err := h.pool.Enqueue(c.Request.Context(), task); err != nil {
		h.logger.WithError(err).Error("Failed to enqueue inventory sync",
			"integrationId", integration.ID)
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"taskId":  task.ID,
		"message": "Inventory sync enqueued",
	})
}

// PushOrder handles POST /orders/:orderId/push/:posType
func (h *SyncHandler) PushOrder(c *gin.Context) {
	orderID := c.Param("orderId")
	posType := domain.POSType(c.Param("posType"))
	if !domain.IsSupportedPOSType(posType) {
		middleware.AbortWithAppError(c, errors.ErrUnsupportedGateway(string(posType)))
		return
	}

	order, err := h.service.Order(c.Request.Context(), orderID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"order.id":  orderID,
		"pos.type":  string(posType),
		"operation": "push_order",
	})

	task := &worker.Task{
		Kind:         domain.TaskOrderCreate,
		POSType:      posType,
		RestaurantID: order.RestaurantID,
		EntityID:     orderID,
	}
	if err := h.pool.Enqueue(c.Request.Context(), task); err != nil {
		h.logger.WithError(err).Error("Failed to enqueue order push",
			"orderId", orderID, "posType", posType)
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"taskId":  task.ID,
		"orderId": orderID,
		"posType": posType,
		"message": "Order push enqueued",
	})
}

// GetSyncLogs handles GET /integrations/:id/sync-logs
func (h *SyncHandler) GetSyncLogs(c *gin.Context) {
	integrationID := c.Param("id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	logs, err := h.service.SyncLogs(c.Request.Context(), integrationID, limit, offset)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load sync logs", "integrationId", integrationID)
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":   logs,
		"total":  len(logs),
		"limit":  limit,
		"offset": offset,
	})
}

func (h *SyncHandler) resolveIntegration(c *gin.Context) (*domain.POSIntegration, bool) {
	integration, err := h.service.Integration(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return nil, false
	}
	if !integration.IsActive {
		middleware.AbortWithAppError(c, errors.ErrIntegrationInactive(integration.RestaurantID, string(integration.POSType)))
		return nil, false
	}
	return integration, true
}
