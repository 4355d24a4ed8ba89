package repository

import (
	"context"
	"sync"
	"time"

	"github.com/eduline/billing-service/internal/domain"
)

// SubscriptionRepository интерфейс хранилища подписок
type SubscriptionRepository interface {
	// Upsert создает или обновляет запись по идентификатору подписки Stripe
	Upsert(ctx context.Context, rec *domain.SubscriptionRecord) error
	// GetByStripeID возвращает запись по идентификатору подписки Stripe
	GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*domain.SubscriptionRecord, error)
	// GetByStripeCustomerID возвращает последнюю запись клиента Stripe
	GetByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*domain.SubscriptionRecord, error)
	// GetByUserID возвращает последнюю запись пользователя
	GetByUserID(ctx context.Context, userID string) (*domain.SubscriptionRecord, error)
	// MarkCanceled помечает подписку отмененной. Повторный вызов - no-op.
	MarkCanceled(ctx context.Context, stripeSubscriptionID string, at time.Time) error
}

// InMemorySubscriptionRepository хранилище подписок в памяти.
// Используется при отсутствии базы данных и в тестах.
type InMemorySubscriptionRepository struct {
	mu   sync.RWMutex
	byID map[string]*domain.SubscriptionRecord
}

// NewInMemorySubscriptionRepository создает хранилище в памяти
func NewInMemorySubscriptionRepository() *InMemorySubscriptionRepository {
	return &InMemorySubscriptionRepository{
		byID: make(map[string]*domain.SubscriptionRecord),
	}
}

// Upsert создает или обновляет запись о подписке
func (r *InMemorySubscriptionRepository) Upsert(_ context.Context, rec *domain.SubscriptionRecord) error {
	if rec == nil || rec.StripeSubscriptionID == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	cp := *rec
	if existing, ok := r.byID[rec.StripeSubscriptionID]; ok {
		cp.CreatedAt = existing.CreatedAt
		// Пользователь привязывается один раз при оформлении, обновления его не затирают
		if cp.UserID == "" {
			cp.UserID = existing.UserID
		}
	} else {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now

	r.byID[rec.StripeSubscriptionID] = &cp
	return nil
}

// GetByStripeID возвращает запись по идентификатору подписки Stripe
func (r *InMemorySubscriptionRepository) GetByStripeID(_ context.Context, stripeSubscriptionID string) (*domain.SubscriptionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[stripeSubscriptionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// GetByStripeCustomerID возвращает последнюю по времени обновления запись клиента
func (r *InMemorySubscriptionRepository) GetByStripeCustomerID(_ context.Context, stripeCustomerID string) (*domain.SubscriptionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *domain.SubscriptionRecord
	for _, rec := range r.byID {
		if rec.StripeCustomerID != stripeCustomerID {
			continue
		}
		if latest == nil || rec.UpdatedAt.After(latest.UpdatedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

// GetByUserID возвращает последнюю по времени обновления запись пользователя
func (r *InMemorySubscriptionRepository) GetByUserID(_ context.Context, userID string) (*domain.SubscriptionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *domain.SubscriptionRecord
	for _, rec := range r.byID {
		if rec.UserID != userID {
			continue
		}
		if latest == nil || rec.UpdatedAt.After(latest.UpdatedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

// MarkCanceled помечает подписку отмененной
func (r *InMemorySubscriptionRepository) MarkCanceled(_ context.Context, stripeSubscriptionID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[stripeSubscriptionID]
	if !ok {
		return domain.ErrNotFound
	}
	if rec.Status == domain.SubscriptionStatusCanceled {
		return nil
	}
	rec.Status = domain.SubscriptionStatusCanceled
	canceled := at.UTC()
	rec.CanceledAt = &canceled
	rec.UpdatedAt = time.Now().UTC()
	return nil
}
