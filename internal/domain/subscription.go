package domain

import "time"

// SubscriptionStatus статус подписки
type SubscriptionStatus string

const (
	SubscriptionStatusActive     SubscriptionStatus = "active"
	SubscriptionStatusTrialing   SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue    SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled   SubscriptionStatus = "canceled"
	SubscriptionStatusIncomplete SubscriptionStatus = "incomplete"
)

// SubscriptionRecord локальная запись о подписке, синхронизируемая из вебхуков.
// Ключом служит идентификатор подписки в Stripe.
type SubscriptionRecord struct {
	StripeSubscriptionID string             `json:"stripe_subscription_id" db:"stripe_subscription_id"`
	StripeCustomerID     string             `json:"stripe_customer_id" db:"stripe_customer_id"`
	UserID               string             `json:"user_id,omitempty" db:"user_id"`
	Plan                 Plan               `json:"plan" db:"plan"`
	SeatsAllowed         int                `json:"seats_allowed" db:"seats_allowed"`
	Billing              BillingCadence     `json:"billing" db:"billing"`
	Status               SubscriptionStatus `json:"status" db:"status"`
	CurrentPeriodEnd     time.Time          `json:"current_period_end" db:"current_period_end"`
	CanceledAt           *time.Time         `json:"canceled_at,omitempty" db:"canceled_at"`
	CreatedAt            time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at" db:"updated_at"`
}

// IsCanceled сообщает, отменена ли подписка
func (s *SubscriptionRecord) IsCanceled() bool {
	return s.Status == SubscriptionStatusCanceled
}
