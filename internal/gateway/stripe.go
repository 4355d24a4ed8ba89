package gateway

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"

	"github.com/eduline/billing-service/internal/domain"
	"github.com/eduline/billing-service/pkg/logger"
)

// CheckoutParams параметры создания сессии оплаты
type CheckoutParams struct {
	PriceID    string
	Quantity   int64
	UserID     string
	Email      string
	SuccessURL string
	CancelURL  string
}

// Gateway интерфейс для работы с платежным провайдером
type Gateway interface {
	FindCustomerByEmail(ctx context.Context, email string) (*stripe.Customer, error)
	CreateCustomer(ctx context.Context, email, userID string) (*stripe.Customer, error)
	ListActiveSubscriptions(ctx context.Context, customerID string) ([]*stripe.Subscription, error)
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*stripe.CheckoutSession, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (*stripe.BillingPortalSession, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
	ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error)
}

// StripeGateway реализация Gateway поверх Stripe API
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	log           *logger.Logger
}

// NewStripeGateway создает клиент Stripe.
// С пустым API-ключом клиент не создается, все вызовы вернут ErrGatewayUnavailable.
func NewStripeGateway(apiKey, webhookSecret string, log *logger.Logger) *StripeGateway {
	g := &StripeGateway{webhookSecret: webhookSecret, log: log}
	if apiKey == "" {
		log.Warn("Stripe API key is not configured, billing operations are disabled")
		return g
	}
	g.api = client.New(apiKey, nil)
	return g
}

func (g *StripeGateway) available() error {
	if g.api == nil {
		return domain.ErrGatewayUnavailable
	}
	return nil
}

// FindCustomerByEmail ищет клиента Stripe по email.
// При нескольких совпадениях берется первое, остальные логируются.
func (g *StripeGateway) FindCustomerByEmail(ctx context.Context, email string) (*stripe.Customer, error) {
	if err := g.available(); err != nil {
		return nil, err
	}

	params := &stripe.CustomerListParams{Email: stripe.String(email)}
	params.Context = ctx
	params.Limit = stripe.Int64(2)

	iter := g.api.Customers.List(params)
	var found *stripe.Customer
	for iter.Next() {
		c := iter.Customer()
		if found == nil {
			found = c
			continue
		}
		g.log.Warn("Multiple Stripe customers found for email %s, using %s", email, found.ID)
		break
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	if found == nil {
		return nil, domain.ErrCustomerNotFound
	}
	return found, nil
}

// CreateCustomer создает клиента Stripe с привязкой к пользователю
func (g *StripeGateway) CreateCustomer(ctx context.Context, email, userID string) (*stripe.Customer, error) {
	if err := g.available(); err != nil {
		return nil, err
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	params.AddMetadata("user_id", userID)
	params.Context = ctx

	cust, err := g.api.Customers.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return cust, nil
}

// ListActiveSubscriptions возвращает активные подписки клиента Stripe
func (g *StripeGateway) ListActiveSubscriptions(ctx context.Context, customerID string) ([]*stripe.Subscription, error) {
	if err := g.available(); err != nil {
		return nil, err
	}

	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	params.Context = ctx

	var subs []*stripe.Subscription
	iter := g.api.Subscriptions.List(params)
	for iter.Next() {
		subs = append(subs, iter.Subscription())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

// CreateCheckoutSession создает сессию оплаты подписки
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*stripe.CheckoutSession, error) {
	if err := g.available(); err != nil {
		return nil, err
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(p.Quantity),
			},
		},
		SuccessURL:          stripe.String(p.SuccessURL),
		CancelURL:           stripe.String(p.CancelURL),
		AllowPromotionCodes: stripe.Bool(true),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"user_id": p.UserID,
			},
		},
	}
	// user_id дублируется в метаданных сессии для корреляции checkout.session.completed
	params.AddMetadata("user_id", p.UserID)
	if p.Email != "" {
		params.CustomerEmail = stripe.String(p.Email)
	}
	params.Context = ctx

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return sess, nil
}

// CreatePortalSession создает сессию портала управления подпиской
func (g *StripeGateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (*stripe.BillingPortalSession, error) {
	if err := g.available(); err != nil {
		return nil, err
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := g.api.BillingPortalSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create portal session: %w", err)
	}
	return sess, nil
}

// GetSubscription получает подписку с раскрытой ценой позиций
func (g *StripeGateway) GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error) {
	if err := g.available(); err != nil {
		return nil, err
	}

	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	params.AddExpand("items.data.price")

	sub, err := g.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub, nil
}

// ConstructEvent проверяет подпись вебхука и разбирает событие
func (g *StripeGateway) ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	if g.webhookSecret == "" {
		return stripe.Event{}, domain.ErrGatewayUnavailable
	}
	event, err := webhook.ConstructEvent(payload, sigHeader, g.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", domain.ErrWebhookValidationFailed, err)
	}
	return event, nil
}
