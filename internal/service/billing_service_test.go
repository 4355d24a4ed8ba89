package service

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v78"

	"github.com/eduline/billing-service/config"
	"github.com/eduline/billing-service/internal/catalog"
	"github.com/eduline/billing-service/internal/domain"
	"github.com/eduline/billing-service/internal/gateway"
	"github.com/eduline/billing-service/internal/metrics"
	"github.com/eduline/billing-service/pkg/logger"
)

// fakeGateway управляемая заглушка платежного шлюза
type fakeGateway struct {
	event        stripe.Event
	eventErr     error
	customer     *stripe.Customer
	customerErr  error
	checkout     *stripe.CheckoutSession
	checkoutErr  error
	portal       *stripe.BillingPortalSession
	portalErr    error
	subscription *stripe.Subscription
	subErr       error

	lastCheckout gateway.CheckoutParams
}

func (f *fakeGateway) FindCustomerByEmail(_ context.Context, _ string) (*stripe.Customer, error) {
	if f.customerErr != nil {
		return nil, f.customerErr
	}
	return f.customer, nil
}

func (f *fakeGateway) CreateCustomer(_ context.Context, email, _ string) (*stripe.Customer, error) {
	return &stripe.Customer{ID: "cus_new", Email: email}, nil
}

func (f *fakeGateway) ListActiveSubscriptions(_ context.Context, _ string) ([]*stripe.Subscription, error) {
	return nil, nil
}

func (f *fakeGateway) CreateCheckoutSession(_ context.Context, p gateway.CheckoutParams) (*stripe.CheckoutSession, error) {
	f.lastCheckout = p
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	return f.checkout, nil
}

func (f *fakeGateway) CreatePortalSession(_ context.Context, _, _ string) (*stripe.BillingPortalSession, error) {
	if f.portalErr != nil {
		return nil, f.portalErr
	}
	return f.portal, nil
}

func (f *fakeGateway) GetSubscription(_ context.Context, _ string) (*stripe.Subscription, error) {
	if f.subErr != nil {
		return nil, f.subErr
	}
	return f.subscription, nil
}

func (f *fakeGateway) ConstructEvent(_ []byte, _ string) (stripe.Event, error) {
	if f.eventErr != nil {
		return stripe.Event{}, f.eventErr
	}
	return f.event, nil
}

func testCatalog() *catalog.Catalog {
	return catalog.New(config.PricesConfig{
		EssentialMonthly: "price_ess_m",
		FamilyMonthly:    "price_fam_m",
		FamilyAnnual:     "price_fam_a",
		PlusAnnual:       "price_plus_a",
	})
}

func testMetrics() metrics.BillingMetrics {
	return metrics.NewBillingMetrics(prometheus.NewRegistry(), testLogger())
}

func testLogger() *logger.Logger {
	return logger.New(logger.ERROR)
}

func testUser() domain.AuthenticatedUser {
	return domain.AuthenticatedUser{ID: "user_1", Email: "parent@example.com"}
}

func TestCheckoutRequiresPriceID(t *testing.T) {
	svc := NewBillingService(&fakeGateway{}, testCatalog(), testMetrics(), testLogger())

	_, err := svc.CreateCheckoutSession(context.Background(), testUser(), CheckoutRequest{}, "https://app.example.com")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCheckoutRejectsUnknownPrice(t *testing.T) {
	svc := NewBillingService(&fakeGateway{}, testCatalog(), testMetrics(), testLogger())

	_, err := svc.CreateCheckoutSession(context.Background(), testUser(), CheckoutRequest{PriceID: "price_bogus"}, "https://app.example.com")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCheckoutRejectsNegativeQuantity(t *testing.T) {
	svc := NewBillingService(&fakeGateway{}, testCatalog(), testMetrics(), testLogger())

	_, err := svc.CreateCheckoutSession(context.Background(), testUser(), CheckoutRequest{PriceID: "price_fam_m", Quantity: -1}, "https://app.example.com")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCheckoutDefaultsQuantityToOne(t *testing.T) {
	gw := &fakeGateway{checkout: &stripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/cs_1"}}
	svc := NewBillingService(gw, testCatalog(), testMetrics(), testLogger())

	url, err := svc.CreateCheckoutSession(context.Background(), testUser(), CheckoutRequest{PriceID: "price_fam_m"}, "https://app.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/cs_1", url)

	assert.Equal(t, int64(1), gw.lastCheckout.Quantity)
	assert.Equal(t, "price_fam_m", gw.lastCheckout.PriceID)
	assert.Equal(t, "user_1", gw.lastCheckout.UserID)
	assert.Equal(t, "parent@example.com", gw.lastCheckout.Email)
	assert.Contains(t, gw.lastCheckout.SuccessURL, "https://app.example.com/account/billing")
	assert.Contains(t, gw.lastCheckout.CancelURL, "https://app.example.com/account/billing")
}

func TestPortalCustomerNotFound(t *testing.T) {
	gw := &fakeGateway{customerErr: domain.ErrCustomerNotFound}
	svc := NewBillingService(gw, testCatalog(), testMetrics(), testLogger())

	_, err := svc.CreatePortalSession(context.Background(), testUser(), "https://app.example.com")
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestPortalSessionCreated(t *testing.T) {
	gw := &fakeGateway{
		customer: &stripe.Customer{ID: "cus_1", Email: "parent@example.com"},
		portal:   &stripe.BillingPortalSession{URL: "https://billing.stripe.com/p/session_1"},
	}
	svc := NewBillingService(gw, testCatalog(), testMetrics(), testLogger())

	url, err := svc.CreatePortalSession(context.Background(), testUser(), "https://app.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://billing.stripe.com/p/session_1", url)
}

func TestCheckoutGatewayUnavailable(t *testing.T) {
	gw := &fakeGateway{checkoutErr: domain.ErrGatewayUnavailable}
	svc := NewBillingService(gw, testCatalog(), testMetrics(), testLogger())

	_, err := svc.CreateCheckoutSession(context.Background(), testUser(), CheckoutRequest{PriceID: "price_ess_m"}, "https://app.example.com")
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
}
