package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eduline/billing-service/internal/domain"
	"github.com/eduline/billing-service/pkg/logger"
)

const subscriptionCacheTTL = 5 * time.Minute

// CachedSubscriptionRepository декоратор хранилища подписок с кэшем в Redis.
// Ошибки кэша не фатальны: чтение и запись просто идут в базовое хранилище.
type CachedSubscriptionRepository struct {
	inner SubscriptionRepository
	redis *redis.Client
	log   *logger.Logger
}

// NewCachedSubscriptionRepository оборачивает хранилище кэшем в Redis
func NewCachedSubscriptionRepository(inner SubscriptionRepository, rdb *redis.Client, log *logger.Logger) *CachedSubscriptionRepository {
	return &CachedSubscriptionRepository{inner: inner, redis: rdb, log: log}
}

func subKey(stripeSubscriptionID string) string {
	return fmt.Sprintf("billing:sub:%s", stripeSubscriptionID)
}

func userKey(userID string) string {
	return fmt.Sprintf("billing:sub:user:%s", userID)
}

// Upsert обновляет хранилище и сбрасывает кэш записи
func (r *CachedSubscriptionRepository) Upsert(ctx context.Context, rec *domain.SubscriptionRecord) error {
	if err := r.inner.Upsert(ctx, rec); err != nil {
		return err
	}
	r.invalidate(ctx, rec.StripeSubscriptionID, rec.UserID)
	return nil
}

// GetByStripeID возвращает запись, используя кэш
func (r *CachedSubscriptionRepository) GetByStripeID(ctx context.Context, stripeSubscriptionID string) (*domain.SubscriptionRecord, error) {
	if rec := r.fromCache(ctx, subKey(stripeSubscriptionID)); rec != nil {
		return rec, nil
	}

	rec, err := r.inner.GetByStripeID(ctx, stripeSubscriptionID)
	if err != nil {
		return nil, err
	}
	r.toCache(ctx, subKey(stripeSubscriptionID), rec)
	return rec, nil
}

// GetByStripeCustomerID возвращает запись клиента без кэширования.
// Вызывается только из обработки вебхуков, кэш здесь не окупается.
func (r *CachedSubscriptionRepository) GetByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*domain.SubscriptionRecord, error) {
	return r.inner.GetByStripeCustomerID(ctx, stripeCustomerID)
}

// GetByUserID возвращает запись пользователя, используя кэш
func (r *CachedSubscriptionRepository) GetByUserID(ctx context.Context, userID string) (*domain.SubscriptionRecord, error) {
	if rec := r.fromCache(ctx, userKey(userID)); rec != nil {
		return rec, nil
	}

	rec, err := r.inner.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	r.toCache(ctx, userKey(userID), rec)
	return rec, nil
}

// MarkCanceled помечает подписку отмененной и сбрасывает кэш
func (r *CachedSubscriptionRepository) MarkCanceled(ctx context.Context, stripeSubscriptionID string, at time.Time) error {
	var userID string
	if rec, err := r.inner.GetByStripeID(ctx, stripeSubscriptionID); err == nil {
		userID = rec.UserID
	}

	if err := r.inner.MarkCanceled(ctx, stripeSubscriptionID, at); err != nil {
		return err
	}
	r.invalidate(ctx, stripeSubscriptionID, userID)
	return nil
}

func (r *CachedSubscriptionRepository) fromCache(ctx context.Context, key string) *domain.SubscriptionRecord {
	data, err := r.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn("Redis read failed for key %s: %v", key, err)
		}
		return nil
	}

	var rec domain.SubscriptionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		r.log.Warn("Failed to decode cached subscription %s: %v", key, err)
		return nil
	}
	return &rec
}

func (r *CachedSubscriptionRepository) toCache(ctx context.Context, key string, rec *domain.SubscriptionRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := r.redis.Set(ctx, key, data, subscriptionCacheTTL).Err(); err != nil {
		r.log.Warn("Redis write failed for key %s: %v", key, err)
	}
}

func (r *CachedSubscriptionRepository) invalidate(ctx context.Context, stripeSubscriptionID, userID string) {
	keys := []string{subKey(stripeSubscriptionID)}
	if userID != "" {
		keys = append(keys, userKey(userID))
	}
	if err := r.redis.Del(ctx, keys...).Err(); err != nil {
		r.log.Warn("Redis invalidation failed: %v", err)
	}
}
