package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/eduline/billing-service/internal/catalog"
	"github.com/eduline/billing-service/internal/domain"
	"github.com/eduline/billing-service/internal/gateway"
	"github.com/eduline/billing-service/internal/metrics"
	"github.com/eduline/billing-service/pkg/logger"
)

// CheckoutRequest запрос на создание сессии оплаты
type CheckoutRequest struct {
	PriceID  string `json:"price_id"`
	Quantity int64  `json:"quantity"`
}

// BillingService бизнес-логика биллинга
type BillingService struct {
	gateway gateway.Gateway
	catalog *catalog.Catalog
	metrics metrics.BillingMetrics
	log     *logger.Logger
}

// NewBillingService создает сервис биллинга
func NewBillingService(gw gateway.Gateway, cat *catalog.Catalog, m metrics.BillingMetrics, log *logger.Logger) *BillingService {
	return &BillingService{
		gateway: gw,
		catalog: cat,
		metrics: m,
		log:     log,
	}
}

// CreateCheckoutSession создает сессию оплаты подписки и возвращает URL для редиректа.
// Количество мест по умолчанию 1, идентификатор цены обязан быть привязан к тарифу.
func (s *BillingService) CreateCheckoutSession(ctx context.Context, user domain.AuthenticatedUser, req CheckoutRequest, origin string) (string, error) {
	priceID := strings.TrimSpace(req.PriceID)
	if priceID == "" {
		s.metrics.IncCheckoutSession(metrics.OutcomeRejected)
		return "", fmt.Errorf("%w: price_id is required", domain.ErrInvalidInput)
	}
	if !s.catalog.Known(priceID) {
		s.metrics.IncCheckoutSession(metrics.OutcomeRejected)
		return "", fmt.Errorf("%w: unknown price_id %s", domain.ErrInvalidInput, priceID)
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		s.metrics.IncCheckoutSession(metrics.OutcomeRejected)
		return "", fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}

	sess, err := s.gateway.CreateCheckoutSession(ctx, gateway.CheckoutParams{
		PriceID:    priceID,
		Quantity:   quantity,
		UserID:     user.ID,
		Email:      user.Email,
		SuccessURL: origin + "/account/billing?status=success&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  origin + "/account/billing?status=canceled",
	})
	if err != nil {
		s.metrics.IncCheckoutSession(metrics.OutcomeError)
		s.log.Error("Failed to create checkout session for user %s: %v", user.ID, err)
		return "", err
	}

	s.metrics.IncCheckoutSession(metrics.OutcomeOK)
	s.log.Info("Created checkout session %s for user %s", sess.ID, user.ID)
	return sess.URL, nil
}

// CreatePortalSession создает сессию портала управления подпиской.
// Пользователь без записи клиента в Stripe получает ErrCustomerNotFound.
func (s *BillingService) CreatePortalSession(ctx context.Context, user domain.AuthenticatedUser, origin string) (string, error) {
	cust, err := s.gateway.FindCustomerByEmail(ctx, user.Email)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			s.metrics.IncPortalSession(metrics.OutcomeRejected)
			return "", err
		}
		s.metrics.IncPortalSession(metrics.OutcomeError)
		s.log.Error("Failed to look up customer for user %s: %v", user.ID, err)
		return "", err
	}

	sess, err := s.gateway.CreatePortalSession(ctx, cust.ID, origin+"/dashboard")
	if err != nil {
		s.metrics.IncPortalSession(metrics.OutcomeError)
		s.log.Error("Failed to create portal session for customer %s: %v", cust.ID, err)
		return "", err
	}

	s.metrics.IncPortalSession(metrics.OutcomeOK)
	s.log.Info("Created portal session for customer %s", cust.ID)
	return sess.URL, nil
}
