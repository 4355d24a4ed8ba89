package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v78"

	"github.com/eduline/billing-service/internal/domain"
	"github.com/eduline/billing-service/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.ERROR)
}

func signPayload(t *testing.T, secret string, payload []byte) string {
	t.Helper()
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestUnconfiguredGatewayIsUnavailable(t *testing.T) {
	g := NewStripeGateway("", "", testLogger())
	ctx := context.Background()

	_, err := g.FindCustomerByEmail(ctx, "user@example.com")
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)

	_, err = g.CreateCheckoutSession(ctx, CheckoutParams{PriceID: "price_x", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)

	_, err = g.CreatePortalSession(ctx, "cus_x", "https://app.example.com/account")
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)

	_, err = g.ConstructEvent([]byte("{}"), "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)
}

func TestConstructEventValidSignature(t *testing.T) {
	const secret = "whsec_test_secret"
	g := NewStripeGateway("", secret, testLogger())

	payload := []byte(fmt.Sprintf(
		`{"id":"evt_1","api_version":%q,"type":"customer.subscription.deleted","data":{"object":{"id":"sub_1"}}}`,
		stripe.APIVersion,
	))
	event, err := g.ConstructEvent(payload, signPayload(t, secret, payload))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, "customer.subscription.deleted", string(event.Type))
}

func TestConstructEventInvalidSignature(t *testing.T) {
	g := NewStripeGateway("", "whsec_test_secret", testLogger())

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	_, err := g.ConstructEvent(payload, signPayload(t, "whsec_wrong_secret", payload))
	assert.ErrorIs(t, err, domain.ErrWebhookValidationFailed)
}

func TestConstructEventTamperedPayload(t *testing.T) {
	const secret = "whsec_test_secret"
	g := NewStripeGateway("", secret, testLogger())

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	header := signPayload(t, secret, payload)
	_, err := g.ConstructEvent([]byte(`{"id":"evt_2","type":"checkout.session.completed"}`), header)
	assert.ErrorIs(t, err, domain.ErrWebhookValidationFailed)
}
