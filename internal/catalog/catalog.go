package catalog

import (
	"github.com/eduline/billing-service/config"
	"github.com/eduline/billing-service/internal/domain"
)

// Catalog сопоставляет идентификаторы цен Stripe с тарифами подписки
type Catalog struct {
	byPriceID map[string]domain.PlanDescriptor
}

// New создает каталог тарифов из привязок конфигурации.
// Пустые идентификаторы цен пропускаются.
func New(prices config.PricesConfig) *Catalog {
	c := &Catalog{byPriceID: make(map[string]domain.PlanDescriptor)}

	c.bind(prices.EssentialMonthly, domain.PlanEssential, domain.BillingMonthly)
	c.bind(prices.EssentialAnnual, domain.PlanEssential, domain.BillingAnnual)
	c.bind(prices.FamilyMonthly, domain.PlanFamily, domain.BillingMonthly)
	c.bind(prices.FamilyAnnual, domain.PlanFamily, domain.BillingAnnual)
	c.bind(prices.PlusMonthly, domain.PlanPlus, domain.BillingMonthly)
	c.bind(prices.PlusAnnual, domain.PlanPlus, domain.BillingAnnual)

	return c
}

func (c *Catalog) bind(priceID string, plan domain.Plan, billing domain.BillingCadence) {
	if priceID == "" {
		return
	}
	c.byPriceID[priceID] = domain.PlanDescriptor{
		Plan:    plan,
		Seats:   seatsFor(plan),
		Billing: billing,
	}
}

// Resolve возвращает тариф для идентификатора цены.
// Неизвестный или пустой идентификатор дает бесплатный тариф, ошибок не бывает.
func (c *Catalog) Resolve(priceID string) domain.PlanDescriptor {
	if d, ok := c.byPriceID[priceID]; ok {
		return d
	}
	return domain.FreePlan()
}

// Known сообщает, привязан ли идентификатор цены к какому-либо тарифу
func (c *Catalog) Known(priceID string) bool {
	_, ok := c.byPriceID[priceID]
	return ok
}

func seatsFor(plan domain.Plan) int {
	switch plan {
	case domain.PlanEssential:
		return 1
	case domain.PlanFamily:
		return 4
	case domain.PlanPlus:
		return 6
	default:
		return 1
	}
}
