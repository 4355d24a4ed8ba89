package domain

// Plan уровень тарифа образовательной платформы
type Plan string

const (
	PlanFree      Plan = "free"
	PlanEssential Plan = "essential"
	PlanFamily    Plan = "family"
	PlanPlus      Plan = "plus"
)

// BillingCadence периодичность списания
type BillingCadence string

const (
	BillingMonthly BillingCadence = "monthly"
	BillingAnnual  BillingCadence = "annual"
)

// PlanDescriptor описывает тариф, вычисленный из идентификатора цены Stripe.
// Никогда не сохраняется: пересчитывается при каждом обращении.
type PlanDescriptor struct {
	Plan    Plan           `json:"plan"`
	Seats   int            `json:"seats"`
	Billing BillingCadence `json:"billing"`
}

// FreePlan дескриптор по умолчанию для неизвестных идентификаторов цен.
// Отсутствие совпадения - валидный бизнес-результат, а не ошибка.
func FreePlan() PlanDescriptor {
	return PlanDescriptor{
		Plan:    PlanFree,
		Seats:   1,
		Billing: BillingMonthly,
	}
}
