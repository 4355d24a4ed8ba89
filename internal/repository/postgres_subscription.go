package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eduline/billing-service/internal/domain"
)

// PostgresSubscriptionRepository хранилище подписок в PostgreSQL
type PostgresSubscriptionRepository struct {
	db *sqlx.DB
}

// NewPostgresSubscriptionRepository создает хранилище подписок в PostgreSQL
func NewPostgresSubscriptionRepository(db *sqlx.DB) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{db: db}
}

// Upsert создает или обновляет запись о подписке.
// При обновлении пустой user_id не затирает уже привязанного пользователя.
func (r *PostgresSubscriptionRepository) Upsert(ctx context.Context, rec *domain.SubscriptionRecord) error {
	if rec == nil || rec.StripeSubscriptionID == "" {
		return domain.ErrInvalidInput
	}

	query := `
		INSERT INTO subscriptions (
			stripe_subscription_id, stripe_customer_id, user_id,
			plan, seats_allowed, billing, status,
			current_period_end, canceled_at, created_at, updated_at
		) VALUES (
			:stripe_subscription_id, :stripe_customer_id, :user_id,
			:plan, :seats_allowed, :billing, :status,
			:current_period_end, :canceled_at, now(), now()
		)
		ON CONFLICT (stripe_subscription_id) DO UPDATE SET
			stripe_customer_id = EXCLUDED.stripe_customer_id,
			user_id            = CASE WHEN EXCLUDED.user_id = '' THEN subscriptions.user_id ELSE EXCLUDED.user_id END,
			plan               = EXCLUDED.plan,
			seats_allowed      = EXCLUDED.seats_allowed,
			billing            = EXCLUDED.billing,
			status             = EXCLUDED.status,
			current_period_end = EXCLUDED.current_period_end,
			canceled_at        = EXCLUDED.canceled_at,
			updated_at         = now()`

	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}

// GetByStripeID возвращает запись по идентификатору подписки Stripe
func (r *PostgresSubscriptionRepository) GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*domain.SubscriptionRecord, error) {
	var rec domain.SubscriptionRecord
	query := `SELECT * FROM subscriptions WHERE stripe_subscription_id = $1`

	if err := r.db.GetContext(ctx, &rec, query, stripeSubscriptionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &rec, nil
}

// GetByStripeCustomerID возвращает последнюю по времени обновления запись клиента
func (r *PostgresSubscriptionRepository) GetByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*domain.SubscriptionRecord, error) {
	var rec domain.SubscriptionRecord
	query := `SELECT * FROM subscriptions WHERE stripe_customer_id = $1 ORDER BY updated_at DESC LIMIT 1`

	if err := r.db.GetContext(ctx, &rec, query, stripeCustomerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get subscription by customer: %w", err)
	}
	return &rec, nil
}

// GetByUserID возвращает последнюю по времени обновления запись пользователя
func (r *PostgresSubscriptionRepository) GetByUserID(ctx context.Context, userID string) (*domain.SubscriptionRecord, error) {
	var rec domain.SubscriptionRecord
	query := `SELECT * FROM subscriptions WHERE user_id = $1 ORDER BY updated_at DESC LIMIT 1`

	if err := r.db.GetContext(ctx, &rec, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get subscription by user: %w", err)
	}
	return &rec, nil
}

// MarkCanceled помечает подписку отмененной. Уже отмененная запись не меняется.
func (r *PostgresSubscriptionRepository) MarkCanceled(ctx context.Context, stripeSubscriptionID string, at time.Time) error {
	query := `
		UPDATE subscriptions
		SET status = $2, canceled_at = COALESCE(canceled_at, $3), updated_at = now()
		WHERE stripe_subscription_id = $1`

	res, err := r.db.ExecContext(ctx, query, stripeSubscriptionID, domain.SubscriptionStatusCanceled, at.UTC())
	if err != nil {
		return fmt.Errorf("failed to mark subscription canceled: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
