package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eduline/billing-service/internal/api/rest/middleware"
	"github.com/eduline/billing-service/internal/domain"
	"github.com/eduline/billing-service/internal/service"
	"github.com/eduline/billing-service/pkg/logger"
)

// BillingHandler обработчик для операций биллинга
type BillingHandler struct {
	service *service.BillingService
	baseURL string
	log     *logger.Logger
}

// NewBillingHandler создает новый обработчик биллинга. Если baseURL задан,
// обратные URL строятся от него, иначе от хоста входящего запроса.
func NewBillingHandler(svc *service.BillingService, baseURL string, log *logger.Logger) *BillingHandler {
	return &BillingHandler{
		service: svc,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		log:     log,
	}
}

// CreateCheckout создает сессию оплаты и возвращает URL для редиректа
func (h *BillingHandler) CreateCheckout(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid checkout request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	url, err := h.service.CreateCheckoutSession(c.Request.Context(), user, req, h.origin(c))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, domain.ErrGatewayUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Billing is temporarily unavailable"})
			return
		}
		h.log.Error("Failed to create checkout session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checkout session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// CreatePortal создает сессию портала управления подпиской
func (h *BillingHandler) CreatePortal(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	url, err := h.service.CreatePortalSession(c.Request.Context(), user, h.origin(c))
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			h.log.Warn("No billing customer for user %s", user.ID)
			c.JSON(http.StatusNotFound, gin.H{"error": "No billing account found"})
			return
		}
		if errors.Is(err, domain.ErrGatewayUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Billing is temporarily unavailable"})
			return
		}
		h.log.Error("Failed to create portal session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create portal session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// origin определяет базовый URL для построения обратных URL. Заголовки вроде
// Origin не учитываются: клиент не должен управлять адресом редиректа.
func (h *BillingHandler) origin(c *gin.Context) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	scheme := "https"
	if c.Request.TLS == nil {
		scheme = "http"
	}
	return scheme + "://" + c.Request.Host
}
