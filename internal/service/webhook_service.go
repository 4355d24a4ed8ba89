package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v78"

	"github.com/eduline/billing-service/internal/catalog"
	"github.com/eduline/billing-service/internal/domain"
	"github.com/eduline/billing-service/internal/gateway"
	"github.com/eduline/billing-service/internal/kafka/producer"
	"github.com/eduline/billing-service/internal/metrics"
	"github.com/eduline/billing-service/internal/repository"
	"github.com/eduline/billing-service/pkg/logger"
)

// Обрабатываемые типы событий Stripe
const (
	eventCheckoutCompleted   = "checkout.session.completed"
	eventSubscriptionUpdated = "customer.subscription.updated"
	eventSubscriptionDeleted = "customer.subscription.deleted"
)

// WebhookService обрабатывает события вебхуков Stripe.
// Каждое событие приводит локальную запись к состоянию Stripe, поэтому
// повторная доставка одного и того же события безопасна.
type WebhookService struct {
	gateway  gateway.Gateway
	catalog  *catalog.Catalog
	repo     repository.SubscriptionRepository
	producer producer.SubscriptionProducer
	metrics  metrics.BillingMetrics
	log      *logger.Logger
}

// NewWebhookService создает сервис обработки вебхуков.
// producer может быть nil, тогда события в Kafka не публикуются.
func NewWebhookService(
	gw gateway.Gateway,
	cat *catalog.Catalog,
	repo repository.SubscriptionRepository,
	prod producer.SubscriptionProducer,
	m metrics.BillingMetrics,
	log *logger.Logger,
) *WebhookService {
	return &WebhookService{
		gateway:  gw,
		catalog:  cat,
		repo:     repo,
		producer: prod,
		metrics:  m,
		log:      log,
	}
}

// HandleEvent проверяет подпись и обрабатывает событие вебхука.
// Возвращает тип события для логирования ответа.
func (s *WebhookService) HandleEvent(ctx context.Context, payload []byte, sigHeader string) (string, error) {
	event, err := s.gateway.ConstructEvent(payload, sigHeader)
	if err != nil {
		s.metrics.IncWebhookEvent("unknown", metrics.OutcomeRejected)
		return "", err
	}

	eventType := string(event.Type)
	started := time.Now()
	defer func() {
		s.metrics.ObserveWebhookDuration(eventType, time.Since(started).Seconds())
	}()

	switch eventType {
	case eventCheckoutCompleted:
		err = s.handleCheckoutCompleted(ctx, event)
	case eventSubscriptionUpdated:
		err = s.handleSubscriptionUpdated(ctx, event)
	case eventSubscriptionDeleted:
		err = s.handleSubscriptionDeleted(ctx, event)
	default:
		// Незнакомые события подтверждаются без обработки
		s.log.Debug("Ignoring webhook event type %s", eventType)
		s.metrics.IncWebhookEvent(eventType, metrics.OutcomeOK)
		return eventType, nil
	}

	if err != nil {
		s.metrics.IncWebhookEvent(eventType, metrics.OutcomeError)
		return eventType, err
	}
	s.metrics.IncWebhookEvent(eventType, metrics.OutcomeOK)
	return eventType, nil
}

// handleCheckoutCompleted обрабатывает завершение оплаты.
// Пользователь берется из метаданных сессии, детали подписки запрашиваются у Stripe.
func (s *WebhookService) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return fmt.Errorf("failed to parse checkout session: %w", err)
	}

	if session.Mode != stripe.CheckoutSessionModeSubscription {
		s.log.Debug("Ignoring checkout session %s with mode %s", session.ID, session.Mode)
		return nil
	}
	if session.Subscription == nil {
		return fmt.Errorf("checkout session %s has no subscription", session.ID)
	}

	sub, err := s.gateway.GetSubscription(ctx, session.Subscription.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch subscription %s: %w", session.Subscription.ID, err)
	}

	rec := s.recordFromSubscription(sub)
	rec.UserID = session.Metadata["user_id"]
	if rec.UserID == "" {
		s.log.Warn("Checkout session %s has no user_id metadata", session.ID)
	}

	if err := s.repo.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("failed to store subscription %s: %w", rec.StripeSubscriptionID, err)
	}
	s.log.Info("Checkout completed: subscription %s, plan %s, user %s",
		rec.StripeSubscriptionID, rec.Plan, rec.UserID)

	s.publish(ctx, producer.TopicSubscriptionUpdated, rec)
	return nil
}

// handleSubscriptionUpdated синхронизирует изменение подписки.
// Привязка к пользователю сохраняется из существующей записи.
func (s *WebhookService) handleSubscriptionUpdated(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("failed to parse subscription: %w", err)
	}

	rec := s.recordFromSubscription(&sub)

	// Новая подписка известного клиента (например, после смены тарифа)
	// наследует привязку к пользователю от его предыдущей записи
	if _, err := s.repo.GetByStripeID(ctx, rec.StripeSubscriptionID); errors.Is(err, domain.ErrNotFound) && rec.StripeCustomerID != "" {
		if prev, err := s.repo.GetByStripeCustomerID(ctx, rec.StripeCustomerID); err == nil {
			rec.UserID = prev.UserID
		}
	}

	if err := s.repo.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("failed to store subscription %s: %w", rec.StripeSubscriptionID, err)
	}
	s.log.Info("Subscription %s updated: plan %s, status %s",
		rec.StripeSubscriptionID, rec.Plan, rec.Status)

	s.publish(ctx, producer.TopicSubscriptionUpdated, rec)
	return nil
}

// handleSubscriptionDeleted помечает подписку отмененной, записывая момент
// окончания из события. Событие по неизвестной подписке подтверждается без
// ошибки, повторная доставка уже отмененной подписки ничего не публикует.
func (s *WebhookService) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("failed to parse subscription: %w", err)
	}

	existing, err := s.repo.GetByStripeID(ctx, sub.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Warn("Received deletion for unknown subscription %s", sub.ID)
			return nil
		}
		return fmt.Errorf("failed to load subscription %s: %w", sub.ID, err)
	}
	if existing.IsCanceled() {
		s.log.Debug("Subscription %s is already canceled", sub.ID)
		return nil
	}

	if err := s.repo.MarkCanceled(ctx, sub.ID, canceledAtFromEvent(&sub)); err != nil {
		return fmt.Errorf("failed to mark subscription %s canceled: %w", sub.ID, err)
	}
	s.log.Info("Subscription %s canceled", sub.ID)

	if rec, err := s.repo.GetByStripeID(ctx, sub.ID); err == nil {
		s.publish(ctx, producer.TopicSubscriptionCanceled, rec)
	}
	return nil
}

// canceledAtFromEvent выбирает момент отмены из данных события: фактический
// момент завершения, иначе конец оплаченного периода, иначе текущее время.
func canceledAtFromEvent(sub *stripe.Subscription) time.Time {
	if sub.EndedAt > 0 {
		return time.Unix(sub.EndedAt, 0).UTC()
	}
	if sub.CurrentPeriodEnd > 0 {
		return time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	}
	return time.Now().UTC()
}

// recordFromSubscription строит локальную запись из подписки Stripe
func (s *WebhookService) recordFromSubscription(sub *stripe.Subscription) *domain.SubscriptionRecord {
	var priceID string
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		priceID = sub.Items.Data[0].Price.ID
	}
	descriptor := s.catalog.Resolve(priceID)

	var customerID string
	if sub.Customer != nil {
		customerID = sub.Customer.ID
	}

	return &domain.SubscriptionRecord{
		StripeSubscriptionID: sub.ID,
		StripeCustomerID:     customerID,
		Plan:                 descriptor.Plan,
		SeatsAllowed:         descriptor.Seats,
		Billing:              descriptor.Billing,
		Status:               mapSubscriptionStatus(sub.Status),
		CurrentPeriodEnd:     time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
	}
}

// publish отправляет событие в Kafka. Ошибка публикации не прерывает обработку:
// локальная запись уже обновлена.
func (s *WebhookService) publish(ctx context.Context, topic string, rec *domain.SubscriptionRecord) {
	if s.producer == nil {
		return
	}

	var err error
	switch topic {
	case producer.TopicSubscriptionCanceled:
		err = s.producer.PublishSubscriptionCanceled(ctx, *rec)
	default:
		err = s.producer.PublishSubscriptionUpdated(ctx, *rec)
	}
	if err != nil {
		s.log.Error("Failed to publish event to %s: %v", topic, err)
	}
}

// mapSubscriptionStatus переводит статус Stripe в доменный статус
func mapSubscriptionStatus(status stripe.SubscriptionStatus) domain.SubscriptionStatus {
	switch status {
	case stripe.SubscriptionStatusActive:
		return domain.SubscriptionStatusActive
	case stripe.SubscriptionStatusTrialing:
		return domain.SubscriptionStatusTrialing
	case stripe.SubscriptionStatusPastDue:
		return domain.SubscriptionStatusPastDue
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusUnpaid:
		return domain.SubscriptionStatusCanceled
	default:
		return domain.SubscriptionStatusIncomplete
	}
}
