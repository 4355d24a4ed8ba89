package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eduline/billing-service/internal/domain"
	"github.com/eduline/billing-service/internal/service"
	"github.com/eduline/billing-service/pkg/logger"
)

// Stripe подписывает тело запроса целиком, лимит защищает от раздутых запросов
const maxWebhookBodyBytes = int64(65536)

// WebhookHandler обработчик вебхуков Stripe
type WebhookHandler struct {
	service *service.WebhookService
	log     *logger.Logger
}

// NewWebhookHandler создает новый обработчик вебхуков
func NewWebhookHandler(svc *service.WebhookService, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: svc,
		log:     log,
	}
}

// HandleStripeWebhook принимает событие Stripe, проверяет подпись и обрабатывает его.
// Ошибка обработки возвращает 500, чтобы Stripe повторил доставку.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		h.log.Error("Failed to read webhook body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	sigHeader := c.GetHeader("Stripe-Signature")
	eventType, err := h.service.HandleEvent(c.Request.Context(), payload, sigHeader)
	if err != nil {
		if errors.Is(err, domain.ErrWebhookValidationFailed) {
			h.log.Warn("Webhook signature verification failed: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
			return
		}
		if errors.Is(err, domain.ErrGatewayUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Webhook processing is not configured"})
			return
		}
		h.log.Error("Failed to process webhook event %s: %v", eventType, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
