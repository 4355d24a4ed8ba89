package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eduline/billing-service/config"
	"github.com/eduline/billing-service/internal/domain"
)

func testPrices() config.PricesConfig {
	return config.PricesConfig{
		EssentialMonthly: "price_ess_m",
		EssentialAnnual:  "price_ess_a",
		FamilyMonthly:    "price_fam_m",
		FamilyAnnual:     "price_fam_a",
		PlusMonthly:      "price_plus_m",
		PlusAnnual:       "price_plus_a",
	}
}

func TestResolveConfiguredPrices(t *testing.T) {
	c := New(testPrices())

	cases := []struct {
		priceID string
		want    domain.PlanDescriptor
	}{
		{"price_ess_m", domain.PlanDescriptor{Plan: domain.PlanEssential, Seats: 1, Billing: domain.BillingMonthly}},
		{"price_ess_a", domain.PlanDescriptor{Plan: domain.PlanEssential, Seats: 1, Billing: domain.BillingAnnual}},
		{"price_fam_m", domain.PlanDescriptor{Plan: domain.PlanFamily, Seats: 4, Billing: domain.BillingMonthly}},
		{"price_fam_a", domain.PlanDescriptor{Plan: domain.PlanFamily, Seats: 4, Billing: domain.BillingAnnual}},
		{"price_plus_m", domain.PlanDescriptor{Plan: domain.PlanPlus, Seats: 6, Billing: domain.BillingMonthly}},
		{"price_plus_a", domain.PlanDescriptor{Plan: domain.PlanPlus, Seats: 6, Billing: domain.BillingAnnual}},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, c.Resolve(tc.priceID), "price %s", tc.priceID)
		assert.True(t, c.Known(tc.priceID))
	}
}

func TestResolveUnknownPriceFallsBackToFree(t *testing.T) {
	c := New(testPrices())

	free := domain.FreePlan()
	assert.Equal(t, free, c.Resolve("price_does_not_exist"))
	assert.Equal(t, free, c.Resolve(""))
	assert.False(t, c.Known("price_does_not_exist"))
}

func TestEmptyBindingsAreSkipped(t *testing.T) {
	c := New(config.PricesConfig{FamilyMonthly: "price_fam_m"})

	assert.True(t, c.Known("price_fam_m"))
	// Пустая привязка не должна матчить пустой идентификатор
	assert.False(t, c.Known(""))
	assert.Equal(t, domain.FreePlan(), c.Resolve(""))
}
