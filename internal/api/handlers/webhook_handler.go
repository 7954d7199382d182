package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Bare3-dev/FoodHub-sub001/internal/application"
	"github.com/Bare3-dev/FoodHub-sub001/internal/domain"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/errors"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/logging"
	"github.com/Bare3-dev/FoodHub-sub001/pkg/middleware"
)

// signatureHeaders maps each payment provider to its signature header
var signatureHeaders = map[domain.PaymentProvider]string{
	domain.ProviderStripe:    "Stripe-Signature",
	domain.ProviderPayPal:    "Paypal-Transmission-Sig",
	domain.ProviderJazzCash:  "X-Signature",
	domain.ProviderEasypaisa: "X-Signature",
}

// WebhookHandler handles inbound payment-gateway and POS webhooks
type WebhookHandler struct {
	service *application.WebhookService
	logger  *logging.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(service *application.WebhookService, logger *logging.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		logger:  logger.WithComponent("webhook-handler"),
	}
}

// RegisterRoutes registers the webhook routes
func (h *WebhookHandler) RegisterRoutes(r *gin.RouterGroup) {
	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/payments/:provider", h.HandlePaymentWebhook)
		webhooks.POST("/pos/:posType", h.HandlePOSWebhook)
		webhooks.GET("/stats", h.GetStats)
	}
}

// HandlePaymentWebhook handles POST /webhooks/payments/:provider
func (h *WebhookHandler) HandlePaymentWebhook(c *gin.Context) {
	provider := domain.PaymentProvider(c.Param("provider"))
	if !domain.IsSupportedProvider(provider) {
		middleware.AbortWithAppError(c, errors.ErrBadRequest("unsupported payment provider: "+string(provider)))
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		middleware.AbortWithAppError(c, errors.ErrBadRequest("failed to read request body"))
		return
	}

	signature := c.GetHeader(signatureHeaders[provider])
	if signature == "" {
		signature = c.GetHeader("X-Webhook-Signature")
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"webhook.provider": string(provider),
		"operation":        "payment_webhook",
	})

	result, err := h.service.ProcessPaymentWebhook(
		c.Request.Context(), provider, body, signature, c.ClientIP(), c.Request.UserAgent(),
	)
	if err != nil {
		middleware.SetSpanError(c, err)
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// HandlePOSWebhook handles POST /webhooks/pos/:posType
func (h *WebhookHandler) HandlePOSWebhook(c *gin.Context) {
	posType := domain.POSType(c.Param("posType"))
	if !domain.IsSupportedPOSType(posType) {
		middleware.AbortWithAppError(c, errors.ErrUnsupportedGateway(string(posType)))
		return
	}

	restaurantID := c.GetHeader("X-Restaurant-ID")
	if restaurantID == "" {
		restaurantID = c.Query("restaurantId")
	}
	if restaurantID == "" {
		middleware.AbortWithAppError(c, errors.ErrBadRequest("restaurant id is required"))
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		middleware.AbortWithAppError(c, errors.ErrBadRequest("failed to read request body"))
		return
	}

	signature := c.GetHeader("X-Webhook-Signature")
	if signature == "" {
		signature = c.GetHeader("X-Signature")
	}

	middleware.AddSpanAttributes(c, map[string]interface{}{
		"webhook.pos_type": string(posType),
		"restaurant.id":    restaurantID,
		"operation":        "pos_webhook",
	})

	result, err := h.service.ProcessPOSWebhook(c.Request.Context(), posType, restaurantID, signature, body)
	if err != nil {
		middleware.SetSpanError(c, err)
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetStats handles GET /webhooks/stats
func (h *WebhookHandler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load webhook stats")
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats": stats,
		"total": len(stats),
	})
}
